// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package cache provides the badger-backed serving cache for stored
recommendation lists.

# Overview

API list surfaces read the latest completed cycle from DuckDB. Cache sits in
front of those reads:

  - Keys are namespaced by cycle id (cycle:<id>:<surface>:<hash>), so a newly
    published cycle is never answered from an older cycle's entries
  - Entries expire after the configured TTL (default 6h)
  - Retain evicts every key of other cycles once a cycle completes
  - Hits and misses feed the cache_hits_total and cache_misses_total metrics

# Usage

	c, err := cache.Open(cfg.Cache, logger)
	if err != nil {
	    return err
	}
	defer c.Close()

	key := cache.Key(cycleID, "similar", articleID, limit)
	list, err := cache.GetOrLoad(ctx, c, key, func(ctx context.Context) ([]recommend.SimilarArticle, error) {
	    return store.SimilarArticles(ctx, cycleID, articleID, limit)
	})

A nil *Cache is valid for GetOrLoad and disables caching.

# Garbage Collection

Cache implements suture.Service; Serve runs badger value log GC every ten
minutes for on-disk caches.
*/
package cache
