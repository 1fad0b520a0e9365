// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"fmt"
	"time"

	"github.com/tomtom215/lectern/internal/recommend/algorithms"
)

// Content vectorizer variants.
const (
	ContentVariantFull  = "full"
	ContentVariantLight = "light"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights are the hybrid blend weights.
	Weights algorithms.Weights `koanf:"weights" json:"weights"`

	// Content selects and tunes the TF-IDF vectorizer.
	Content ContentConfig `koanf:"content" json:"content"`

	// Factorization contains truncated SVD parameters.
	Factorization algorithms.FactorConfig `koanf:"factorization" json:"factorization"`

	// Segmentation contains k-means parameters.
	Segmentation algorithms.SegmentationConfig `koanf:"segmentation" json:"segmentation"`

	// Thresholds contains the heuristic cut-offs of the predictor and surfaces.
	Thresholds ThresholdConfig `koanf:"thresholds" json:"thresholds"`

	// Surfaces contains list sizes for batch output.
	Surfaces SurfaceConfig `koanf:"surfaces" json:"surfaces"`

	// Cycle contains batch cycle parameters.
	Cycle CycleConfig `koanf:"cycle" json:"cycle"`
}

// ContentConfig selects the vectorizer. Variant "full" uses 1-3 grams and
// min_df 2; "light" uses 1-2 grams and min_df 1.
type ContentConfig struct {
	// Variant is "full" or "light".
	// Default: full.
	Variant string `koanf:"variant" json:"variant"`

	// MaxFeatures overrides the variant's vocabulary cap when positive.
	MaxFeatures int `koanf:"max_features" json:"max_features"`
}

// Vectorizer resolves the algorithms configuration for the variant.
func (c ContentConfig) Vectorizer() algorithms.ContentConfig {
	cfg := algorithms.DefaultContentConfig()
	if c.Variant == ContentVariantLight {
		cfg = algorithms.LightContentConfig()
	}
	if c.MaxFeatures > 0 {
		cfg.MaxFeatures = c.MaxFeatures
	}
	return cfg
}

// ThresholdConfig contains the predictor and surface cut-offs.
type ThresholdConfig struct {
	// ContentSimilarity is the similarity a rated article must exceed to
	// feed the content signal.
	// Default: 0.1.
	ContentSimilarity float64 `koanf:"content_similarity" json:"content_similarity"`

	// MinPredictedRating is the exclusive lower bound of list output.
	// Default: 2.0.
	MinPredictedRating float64 `koanf:"min_predicted_rating" json:"min_predicted_rating"`

	// SimilarArticle and SimilarArticleFallback are the similar-article
	// thresholds; fallback matches fill lists the primary leaves short.
	// Defaults: 0.01, 0.005.
	SimilarArticle         float64 `koanf:"similar_article" json:"similar_article"`
	SimilarArticleFallback float64 `koanf:"similar_article_fallback" json:"similar_article_fallback"`

	// PairwiseMin is the minimum similarity persisted in bulk.
	// Default: 0.01.
	PairwiseMin float64 `koanf:"pairwise_min" json:"pairwise_min"`

	// AuthorSimilarity is the minimum author overlap score.
	// Default: 0.3.
	AuthorSimilarity float64 `koanf:"author_similarity" json:"author_similarity"`
}

// SurfaceConfig contains per-surface list sizes.
type SurfaceConfig struct {
	SimilarPerArticle int `koanf:"similar_per_article" json:"similar_per_article"`
	AuthorPerArticle  int `koanf:"author_per_article" json:"author_per_article"`
	PerUser           int `koanf:"per_user" json:"per_user"`
	Recent            int `koanf:"recent" json:"recent"`
	Featured          int `koanf:"featured" json:"featured"`
	Popular           int `koanf:"popular" json:"popular"`
	Trending          int `koanf:"trending" json:"trending"`
	SnippetLength     int `koanf:"snippet_length" json:"snippet_length"`
}

// CycleConfig contains batch cycle parameters.
type CycleConfig struct {
	// Timeout bounds one full cycle.
	// Default: 30m.
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// ProfileLookups enables provider profile lookups in behavior summaries.
	// Default: true.
	ProfileLookups bool `koanf:"profile_lookups" json:"profile_lookups"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: algorithms.DefaultWeights(),
		Content: ContentConfig{
			Variant: ContentVariantFull,
		},
		Factorization: algorithms.DefaultFactorConfig(),
		Segmentation:  algorithms.DefaultSegmentationConfig(),
		Thresholds: ThresholdConfig{
			ContentSimilarity:      0.1,
			MinPredictedRating:     2.0,
			SimilarArticle:         0.01,
			SimilarArticleFallback: 0.005,
			PairwiseMin:            0.01,
			AuthorSimilarity:       0.3,
		},
		Surfaces: SurfaceConfig{
			SimilarPerArticle: 10,
			AuthorPerArticle:  5,
			PerUser:           10,
			Recent:            20,
			Featured:          15,
			Popular:           12,
			Trending:          10,
			SnippetLength:     300,
		},
		Cycle: CycleConfig{
			Timeout:        30 * time.Minute,
			ProfileLookups: true,
		},
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	w := c.Weights
	if w.Content < 0 || w.Collaborative < 0 || w.Popularity < 0 || w.Behavioral < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", w)
	}
	if w.Content+w.Collaborative+w.Popularity+w.Behavioral <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}

	switch c.Content.Variant {
	case ContentVariantFull, ContentVariantLight:
	default:
		return fmt.Errorf("content.variant must be %q or %q, got %q", ContentVariantFull, ContentVariantLight, c.Content.Variant)
	}
	if c.Content.MaxFeatures < 0 {
		return fmt.Errorf("content.max_features must be non-negative, got %d", c.Content.MaxFeatures)
	}

	if err := c.Factorization.Validate(); err != nil {
		return err
	}
	if err := c.Segmentation.Validate(); err != nil {
		return err
	}

	t := c.Thresholds
	if t.ContentSimilarity < 0 || t.ContentSimilarity >= 1 {
		return fmt.Errorf("thresholds.content_similarity must be in [0, 1), got %f", t.ContentSimilarity)
	}
	if t.MinPredictedRating < 1 || t.MinPredictedRating >= 5 {
		return fmt.Errorf("thresholds.min_predicted_rating must be in [1, 5), got %f", t.MinPredictedRating)
	}
	if t.SimilarArticleFallback > t.SimilarArticle {
		return fmt.Errorf("thresholds.similar_article_fallback must be <= similar_article, got %f > %f",
			t.SimilarArticleFallback, t.SimilarArticle)
	}
	if t.AuthorSimilarity <= 0 || t.AuthorSimilarity > 1 {
		return fmt.Errorf("thresholds.author_similarity must be in (0, 1], got %f", t.AuthorSimilarity)
	}

	s := c.Surfaces
	for name, v := range map[string]int{
		"similar_per_article": s.SimilarPerArticle,
		"author_per_article":  s.AuthorPerArticle,
		"per_user":            s.PerUser,
		"recent":              s.Recent,
		"featured":            s.Featured,
		"popular":             s.Popular,
		"trending":            s.Trending,
		"snippet_length":      s.SnippetLength,
	} {
		if v < 1 {
			return fmt.Errorf("surfaces.%s must be positive, got %d", name, v)
		}
	}

	if c.Cycle.Timeout <= 0 {
		return fmt.Errorf("cycle.timeout must be positive, got %v", c.Cycle.Timeout)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// all nested structs are value types
	clone := *c
	return &clone
}

// hybridConfig maps the engine configuration onto the predictor.
func (c *Config) hybridConfig() algorithms.HybridConfig {
	h := algorithms.DefaultHybridConfig()
	h.Weights = c.Weights
	h.ContentThreshold = c.Thresholds.ContentSimilarity
	h.MinPredictedRating = c.Thresholds.MinPredictedRating
	return h
}
