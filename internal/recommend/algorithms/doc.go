// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package algorithms implements the numeric sub-models of the recommendation
// cycle. Every model is built from one cycle's snapshot and is immutable
// afterwards, so a published model can be read from many goroutines.
//
// # Sub-models
//
// Content similarity (content.go):
//   - TF-IDF over weighted analysis documents with 1-3 grams
//   - document-frequency pruning and a capped vocabulary
//   - dense symmetric cosine similarity matrix, diagonal 1
//
// Interaction matrix (matrix.go):
//   - dense users x articles ratings in [1,5], 0 when unobserved
//
// Collaborative factorization (svd.go):
//   - rank-k truncated SVD, k = min(5, min(users, articles) - 1)
//   - prediction = clamp(dot(user, item) + 2.5, 1, 5)
//
// Segmentation (kmeans.go):
//   - k-means++ with a fixed seed over five behavioral features
//
// Popularity (popularity.go):
//   - views x rating / 5 summed per article, max-normalized
//
// Hybrid predictor (hybrid.go):
//   - weighted blend of content .4, collaborative .3, popularity .2 and
//     behavioral .1, renormalized over the signals that contribute
//   - confidence = contributing signals / 4
//
// # Degradation
//
// Builders that cannot run on the given snapshot return an
// *InsufficientDataError wrapping ErrInsufficientData. Callers treat that
// sub-model as unavailable and keep going; NewPredictor accepts nil models.
//
// # Usage Example
//
//	m, err := algorithms.BuildInteractionMatrix(userIDs, articleIDs, entries)
//	if err != nil {
//	    return err
//	}
//	content, _ := algorithms.BuildContentModel(articleIDs, docs, algorithms.DefaultContentConfig())
//	factors, _ := algorithms.FitFactorModel(m, algorithms.DefaultFactorConfig())
//
//	p, err := algorithms.NewPredictor(algorithms.HybridInput{
//	    Matrix:  m,
//	    Content: content,
//	    Factors: factors,
//	}, algorithms.DefaultHybridConfig())
//	if err != nil {
//	    return err
//	}
//	recs, ok := p.Recommend(userID, 10)
//
// All math is implemented directly on [][]float64; results are deterministic
// for identical input and seeds.
package algorithms
