// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package recommend implements the hybrid article recommender.
//
// # Architecture
//
// A batch cycle loads a snapshot of published articles, registered users and
// reader interactions, then builds four sub-models over it:
//
//   - Content: TF-IDF vectors of title, abstract, authors and affiliations,
//     compared by cosine similarity
//   - Collaborative: rank-k truncated SVD of the user-article rating matrix
//   - Segmentation: k-means over standardized user features
//   - Popularity: per-article interaction counts and mean ratings
//
// The hybrid predictor blends whichever signals are available with weights
// .4/.3/.2/.1 and reports confidence as the fraction of signals used. A
// sub-model that lacks data is marked unavailable and the cycle continues.
//
// # Publication
//
// Cycles are single-flight. A completed cycle is written to the CycleStore
// in one transaction and then swapped in as the current cycle. A failed cycle
// leaves the previous one published.
//
// # Usage
//
//	engine, err := recommend.NewEngine(cfg, provider, source, logger)
//	if err != nil {
//	    return err
//	}
//	engine.SetStore(store)
//
//	summary, err := engine.RunCycle(ctx, recommend.RunOptions{Trigger: "schedule"})
//
//	recs, err := engine.RecommendationsForUser(userID, 10)
package recommend
