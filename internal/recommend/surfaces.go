// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/lectern/internal/recommend/algorithms"
)

// Algorithm tags attached to surface entries.
const (
	AlgorithmContent         = "content_based_tfidf"
	AlgorithmContentFallback = "content_based_tfidf_fallback"
	AlgorithmPairwise        = "batch_tfidf_cosine"
	AlgorithmAuthor          = "author_similarity"
	AlgorithmRecency         = "recency_based"
	AlgorithmHybrid          = "hybrid_content_collaborative"
)

// Recency categories.
const (
	RecencyVeryRecent = "very_recent"
	RecencyRecent     = "recent"
	RecencyModerate   = "moderately_recent"
	RecencyOlder      = "older"
)

// SimilarArticles returns up to n articles most similar to articleID. Entries
// above the primary threshold come first; when fewer than n pass, the list is
// filled from the fallback threshold with reduced confidence. Without a
// content model the list is empty.
func (c *Cycle) SimilarArticles(articleID, n int) ([]SimilarArticle, error) {
	if _, ok := c.articleIdx.Pos(articleID); !ok {
		return nil, unknown("article", articleID)
	}
	if c.content == nil || n <= 0 {
		return []SimilarArticle{}, nil
	}

	t := c.cfg.Thresholds
	out := make([]SimilarArticle, 0, n)
	for _, s := range c.content.MostSimilar(articleID, n, t.SimilarArticle) {
		out = append(out, c.similarEntry(s, AlgorithmContent, math.Min(s.Score*1.5, 1)))
	}
	if len(out) >= n {
		return out, nil
	}

	for _, s := range c.content.MostSimilar(articleID, 0, t.SimilarArticleFallback) {
		if s.Score > t.SimilarArticle {
			continue
		}
		out = append(out, c.similarEntry(s, AlgorithmContentFallback, math.Min(s.Score*1.2, 0.7)))
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func (c *Cycle) similarEntry(s algorithms.Scored, tag string, confidence float64) SimilarArticle {
	a, _ := c.Article(s.ID)
	return SimilarArticle{
		ArticleID:  s.ID,
		Score:      s.Score,
		Confidence: confidence,
		Algorithm:  tag,
		Display:    c.display(a),
	}
}

// AllPairwiseSimilarities returns, for every article, the other articles
// with similarity >= minThreshold, best first.
func (c *Cycle) AllPairwiseSimilarities(minThreshold float64) map[int][]ScoredArticle {
	if c.content == nil {
		return map[int][]ScoredArticle{}
	}
	pairs := c.content.Pairs(minThreshold)
	out := make(map[int][]ScoredArticle, len(pairs))
	for id, row := range pairs {
		scored := make([]ScoredArticle, len(row))
		for i, s := range row {
			scored[i] = ScoredArticle{ArticleID: s.ID, Score: s.Score}
		}
		out[id] = scored
	}
	return out
}

// AuthorRecommendations returns up to n other articles sharing authors with
// articleID. The score is the exact-name overlap ratio, or the surname
// overlap ratio capped at 0.7 when no full name matches.
func (c *Cycle) AuthorRecommendations(articleID, n int) ([]AuthorRecommendation, error) {
	src, ok := c.Article(articleID)
	if !ok {
		return nil, unknown("article", articleID)
	}

	target := authorKeys(src.Authors)
	out := make([]AuthorRecommendation, 0)
	if len(target) == 0 || n <= 0 {
		return out, nil
	}

	for i := range c.articles {
		a := &c.articles[i]
		if a.ID == articleID {
			continue
		}
		score, shared := AuthorSimilarity(target, authorKeys(a.Authors))
		if score <= c.cfg.Thresholds.AuthorSimilarity {
			continue
		}
		out = append(out, AuthorRecommendation{
			ArticleID:     a.ID,
			Score:         score,
			SharedAuthors: shared,
			Algorithm:     AlgorithmAuthor,
			Display:       c.display(a),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ArticleID < out[j].ArticleID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// authorKeys lowercases author names and drops names of two characters or
// fewer.
func authorKeys(authors []string) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		k := strings.ToLower(strings.Join(strings.Fields(a), " "))
		if len([]rune(k)) > 2 {
			out = append(out, k)
		}
	}
	return out
}

// AuthorSimilarity scores two lowercased author lists. Exact matches score
// |shared| / min(|a|, |b|); otherwise matching surnames of multi-word names
// score 0.7 x |shared| / min(|a|, |b|) over the surname sets. The shared
// names or surnames are returned sorted.
func AuthorSimilarity(a, b []string) (float64, []string) {
	if len(a) == 0 || len(b) == 0 {
		return 0, nil
	}

	setA, setB := toSet(a), toSet(b)
	if shared := intersect(setA, setB); len(shared) > 0 {
		return math.Min(1, float64(len(shared))/float64(minInt(len(setA), len(setB)))), shared
	}

	surA, surB := surnames(setA), surnames(setB)
	if len(surA) == 0 || len(surB) == 0 {
		return 0, nil
	}
	if shared := intersect(surA, surB); len(shared) > 0 {
		ratio := float64(len(shared)) / float64(minInt(len(surA), len(surB)))
		return math.Min(0.7, ratio*0.7), shared
	}
	return 0, nil
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func surnames(names map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for n := range names {
		fields := strings.Fields(n)
		if len(fields) > 1 {
			out[fields[len(fields)-1]] = struct{}{}
		}
	}
	return out
}

func intersect(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// RecencyScore decays with age: 1.0 up to 7 days, then linear segments to
// 30 and 90 days, then slowly down to a floor of 0.1.
func RecencyScore(days int, dated bool) float64 {
	if !dated {
		return 0.3
	}
	d := float64(days)
	switch {
	case days <= 7:
		return 1.0
	case days <= 30:
		return 0.9 - (d-7)*0.02
	case days <= 90:
		return 0.7 - (d-30)*0.008
	default:
		return math.Max(0.1, 0.5-(d-90)*0.001)
	}
}

// RecencyCategory buckets an article age. Undated articles are older.
func RecencyCategory(days int, dated bool) string {
	switch {
	case !dated:
		return RecencyOlder
	case days <= 7:
		return RecencyVeryRecent
	case days <= 30:
		return RecencyRecent
	case days <= 90:
		return RecencyModerate
	default:
		return RecencyOlder
	}
}

// RecentArticles returns the n freshest articles by recency score. Equal
// scores order by age, then ID.
func (c *Cycle) RecentArticles(n int) []RecentArticle {
	out := make([]RecentArticle, 0, len(c.articles))
	for i := range c.articles {
		a := &c.articles[i]
		out = append(out, RecentArticle{
			ArticleID:          a.ID,
			RecencyScore:       RecencyScore(a.DaysSincePublished, a.Dated()),
			Category:           RecencyCategory(a.DaysSincePublished, a.Dated()),
			DaysSincePublished: a.DaysSincePublished,
			Display:            c.display(a),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecencyScore != out[j].RecencyScore {
			return out[i].RecencyScore > out[j].RecencyScore
		}
		if out[i].DaysSincePublished != out[j].DaysSincePublished {
			return out[i].DaysSincePublished < out[j].DaysSincePublished
		}
		return out[i].ArticleID < out[j].ArticleID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RecommendationsForUser returns up to n unseen articles with a predicted
// rating above the configured minimum, best first.
func (c *Cycle) RecommendationsForUser(userID, n int) ([]UserRecommendation, error) {
	if _, ok := c.userIdx.Pos(userID); !ok || c.predictor == nil {
		return nil, unknown("user", userID)
	}

	preds, ok := c.predictor.Recommend(userID, n)
	if !ok {
		return nil, unknown("user", userID)
	}

	out := make([]UserRecommendation, 0, len(preds))
	for _, p := range preds {
		a, _ := c.Article(p.ArticleID)
		out = append(out, UserRecommendation{
			ArticleID:       p.ArticleID,
			PredictedRating: p.Rating,
			Confidence:      p.Confidence,
			Methods:         p.Methods,
			Interpretation:  algorithms.RatingLabel(p.Rating),
			Display:         c.display(a),
		})
	}
	return out, nil
}

// PredictRating scores one (user, article) pair, including articles the
// user already interacted with.
func (c *Cycle) PredictRating(userID, articleID int) (Prediction, error) {
	if _, ok := c.userIdx.Pos(userID); !ok || c.predictor == nil {
		return Prediction{}, unknown("user", userID)
	}
	if _, ok := c.articleIdx.Pos(articleID); !ok {
		return Prediction{}, unknown("article", articleID)
	}

	p, ok := c.predictor.Predict(userID, articleID)
	if !ok {
		return Prediction{}, unknown("article", articleID)
	}
	return Prediction{
		UserID:         userID,
		ArticleID:      articleID,
		Rating:         p.Rating,
		Confidence:     p.Confidence,
		Methods:        p.Methods,
		Signals:        p.Signals,
		Details:        p.Details(),
		Interpretation: algorithms.RatingLabel(p.Rating),
	}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
