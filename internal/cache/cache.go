// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/metrics"
)

// metricName labels this cache in cache hit/miss metrics.
const metricName = "serving"

// cycleKeyPrefix namespaces every entry by the cycle that produced it.
const cycleKeyPrefix = "cycle:"

// Stats tracks cache performance
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Cache is the badger-backed serving cache for stored recommendation lists.
// Keys carry the cycle id, so a new cycle never serves stale entries.
// It is safe for concurrent use.
type Cache struct {
	db       *badger.DB
	ttl      time.Duration
	inMemory bool
	logger   zerolog.Logger

	gcInterval time.Duration

	mu    sync.Mutex
	stats Stats
}

// Open opens the cache described by cfg. An in-memory cache keeps nothing
// on disk.
func Open(cfg config.CacheConfig, logger zerolog.Logger) (*Cache, error) {
	logger = logger.With().Str("component", "cache").Logger()

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
		// serving entries are small and short-lived
		opts.ValueLogFileSize = 64 << 20
	}
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	return &Cache{
		db:         db,
		ttl:        ttl,
		inMemory:   cfg.InMemory,
		logger:     logger,
		gcInterval: 10 * time.Minute,
		stats:      Stats{LastCleanup: time.Now()},
	}, nil
}

// Key builds a cache key for one surface of one cycle. Parameters are
// hashed so keys stay short.
func Key(cycleID, surface string, params ...any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s%s:%s:%v", cycleKeyPrefix, cycleID, surface, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s%s:%s:%x", cycleKeyPrefix, cycleID, surface, hash[:12])
}

// Get decodes the entry at key into dest. It reports false on a miss.
func (c *Cache) Get(_ context.Context, key string, dest any) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		c.record(false)
		return false, nil
	case err != nil:
		c.record(false)
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	c.record(true)
	return true, nil
}

// Set stores value at key with the cache TTL.
func (c *Cache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(c.ttl))
	})
}

// GetOrLoad returns the cached value at key, calling load on a miss and
// caching its result. A nil cache always calls load.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		metrics.CacheErrors.WithLabelValues(metricName, "get").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, loading from store")
	}
	if hit {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value); err != nil {
		metrics.CacheErrors.WithLabelValues(metricName, "set").Inc()
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return value, nil
}

// Retain drops every entry that does not belong to cycleID and returns
// the number of removed keys.
func (c *Cache) Retain(cycleID string) (int, error) {
	keep := []byte(cycleKeyPrefix + cycleID + ":")
	var stale [][]byte

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(cycleKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if !bytes.HasPrefix(key, keep) {
				stale = append(stale, key)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan cache keys: %w", err)
	}

	if len(stale) > 0 {
		wb := c.db.NewWriteBatch()
		defer wb.Cancel()
		for _, key := range stale {
			if err := wb.Delete(key); err != nil {
				return 0, fmt.Errorf("delete stale key: %w", err)
			}
		}
		if err := wb.Flush(); err != nil {
			return 0, fmt.Errorf("flush stale keys: %w", err)
		}
	}

	c.mu.Lock()
	c.stats.Evictions += int64(len(stale))
	c.mu.Unlock()

	c.logger.Debug().Str("cycle_id", cycleID).Int("evicted", len(stale)).Msg("retained current cycle entries")
	return len(stale), nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	return c.db.DropAll()
}

// GetStats returns a snapshot of the cache statistics.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) record(hit bool) {
	metrics.RecordCacheLookup(metricName, hit)
	c.mu.Lock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.mu.Unlock()
}

// String names the service in supervisor logs.
func (c *Cache) String() string {
	return "serving-cache-gc"
}

// Serve runs value log garbage collection until ctx is cancelled. It
// implements suture.Service.
func (c *Cache) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.runGC()
		}
	}
}

func (c *Cache) runGC() {
	// in-memory stores have no value log
	if c.inMemory {
		return
	}
	for {
		err := c.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			c.logger.Warn().Err(err).Msg("value log gc failed")
			break
		}
	}
	c.mu.Lock()
	c.stats.LastCleanup = time.Now()
	c.mu.Unlock()
}

// Close closes the underlying badger database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// badgerLogger routes badger's internal logs through zerolog. Info and
// debug output is demoted to debug.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(trimNewline(format), args...)
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn().Msgf(trimNewline(format), args...)
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug().Msgf(trimNewline(format), args...)
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Trace().Msgf(trimNewline(format), args...)
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}
