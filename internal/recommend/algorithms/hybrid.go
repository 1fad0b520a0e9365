// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Signal names reported as contributing methods.
const (
	SignalContent       = "content"
	SignalCollaborative = "collaborative"
	SignalPopularity    = "popularity"
	SignalBehavioral    = "behavioral"
	SignalNoData        = "no_data"
)

// signalCount is the number of sub-predictors feeding the blend.
const signalCount = 4

// Weights are the blend weights per signal. They are renormalized over the
// signals that actually contribute to a prediction.
type Weights struct {
	Content       float64 `koanf:"content" json:"content" validate:"gte=0"`
	Collaborative float64 `koanf:"collaborative" json:"collaborative" validate:"gte=0"`
	Popularity    float64 `koanf:"popularity" json:"popularity" validate:"gte=0"`
	Behavioral    float64 `koanf:"behavioral" json:"behavioral" validate:"gte=0"`
}

// DefaultWeights returns content .4, collaborative .3, popularity .2,
// behavioral .1.
func DefaultWeights() Weights {
	return Weights{Content: 0.4, Collaborative: 0.3, Popularity: 0.2, Behavioral: 0.1}
}

// HybridConfig contains the blend parameters.
type HybridConfig struct {
	Weights Weights

	// ContentThreshold is the similarity a rated article must exceed to feed
	// the content signal.
	// Default: 0.1.
	ContentThreshold float64

	// MinPredictedRating is the exclusive lower bound for list output.
	// Default: 2.0.
	MinPredictedRating float64

	// ActivityBoost scales the user's activity level in the behavioral signal.
	// Default: 0.5.
	ActivityBoost float64

	// FreshDays and FreshBonus add a bonus for articles younger than FreshDays.
	// Defaults: 30, 0.3.
	FreshDays  int
	FreshBonus float64
}

// DefaultHybridConfig returns the production defaults.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		Weights:            DefaultWeights(),
		ContentThreshold:   0.1,
		MinPredictedRating: 2.0,
		ActivityBoost:      0.5,
		FreshDays:          30,
		FreshBonus:         0.3,
	}
}

// Validate checks the configuration for errors.
func (c HybridConfig) Validate() error {
	w := c.Weights
	if w.Content < 0 || w.Collaborative < 0 || w.Popularity < 0 || w.Behavioral < 0 {
		return fmt.Errorf("hybrid weights must be non-negative, got %+v", w)
	}
	if w.Content+w.Collaborative+w.Popularity+w.Behavioral <= 0 {
		return fmt.Errorf("hybrid weights must not all be zero")
	}
	if c.ContentThreshold < 0 || c.ContentThreshold >= 1 {
		return fmt.Errorf("hybrid content_threshold must be in [0,1), got %v", c.ContentThreshold)
	}
	if c.FreshDays < 0 {
		return fmt.Errorf("hybrid fresh_days must be non-negative, got %d", c.FreshDays)
	}
	return nil
}

// HybridInput carries the per-cycle models the predictor blends. Only Matrix
// is required; nil sub-models are treated as unavailable.
type HybridInput struct {
	Matrix     *InteractionMatrix
	Content    *ContentModel
	Factors    *FactorModel
	Segments   *Segmentation
	Popularity *Popularity

	// Activity is the activity level per matrix user position.
	Activity []float64

	// AgeDays is the days since publication per matrix article position.
	AgeDays []int
}

// Prediction is a blended rating with the signals that produced it.
type Prediction struct {
	ArticleID  int                `json:"article_id"`
	Rating     float64            `json:"predicted_rating"`
	Confidence float64            `json:"confidence"`
	Methods    []string           `json:"methods"`
	Signals    map[string]float64 `json:"signals,omitempty"`
}

// Details renders the contributing signals as "method:score" pairs.
func (p Prediction) Details() string {
	parts := make([]string, 0, len(p.Methods))
	for _, m := range p.Methods {
		if s, ok := p.Signals[m]; ok {
			parts = append(parts, fmt.Sprintf("%s:%.2f", m, s))
		} else {
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, ", ")
}

// Predictor blends content, collaborative, popularity and behavioral
// signals. It is read-only after construction and safe for concurrent use.
type Predictor struct {
	cfg        HybridConfig
	matrix     *InteractionMatrix
	content    *ContentModel
	factors    *FactorModel
	segments   *Segmentation
	popularity *Popularity
	activity   []float64
	ageDays    []int

	// contentPos maps matrix article positions to content rows (-1 if absent).
	contentPos []int

	// clusterMean[label][article] is the mean peer rating, NaN without peers.
	clusterMean [][]float64
}

// NewPredictor validates cfg and precomputes lookup tables from in.
func NewPredictor(in HybridInput, cfg HybridConfig) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if in.Matrix == nil {
		return nil, insufficient(ModelMatrix, "no interaction matrix")
	}

	numUsers, numArticles := in.Matrix.Shape()
	if in.Activity != nil && len(in.Activity) != numUsers {
		return nil, fmt.Errorf("hybrid: %d activity levels for %d users", len(in.Activity), numUsers)
	}
	if in.AgeDays != nil && len(in.AgeDays) != numArticles {
		return nil, fmt.Errorf("hybrid: %d article ages for %d articles", len(in.AgeDays), numArticles)
	}

	p := &Predictor{
		cfg:        cfg,
		matrix:     in.Matrix,
		content:    in.Content,
		factors:    in.Factors,
		segments:   in.Segments,
		popularity: in.Popularity,
		activity:   in.Activity,
		ageDays:    in.AgeDays,
	}
	if p.popularity == nil {
		p.popularity = BuildPopularity(in.Matrix)
	}

	p.contentPos = make([]int, numArticles)
	for a := range p.contentPos {
		p.contentPos[a] = -1
		if p.content == nil {
			continue
		}
		if pos, ok := p.content.Index().Pos(in.Matrix.Articles().ID(a)); ok {
			p.contentPos[a] = pos
		}
	}

	if p.segments != nil {
		p.clusterMean = p.buildClusterMeans()
	}
	return p, nil
}

// buildClusterMeans averages observed ratings per (cluster, article) using
// the segmentation's user IDs resolved against the matrix axis.
func (p *Predictor) buildClusterMeans() [][]float64 {
	_, numArticles := p.matrix.Shape()
	k := p.segments.K()
	sums := newMatrix(k, numArticles)
	counts := make([][]int, k)
	for c := range counts {
		counts[c] = make([]int, numArticles)
	}

	users := p.matrix.Users()
	for u := 0; u < users.Len(); u++ {
		label, ok := p.segments.Label(users.ID(u))
		if !ok {
			continue
		}
		for a, r := range p.matrix.Row(u) {
			if r > 0 {
				sums[label][a] += r
				counts[label][a]++
			}
		}
	}

	for c := range sums {
		for a := range sums[c] {
			if counts[c][a] == 0 {
				sums[c][a] = math.NaN()
			} else {
				sums[c][a] /= float64(counts[c][a])
			}
		}
	}
	return sums
}

// Predict blends the signals for (userID, articleID). ok is false when
// either ID is not on the matrix axes.
func (p *Predictor) Predict(userID, articleID int) (Prediction, bool) {
	u, ok := p.matrix.Users().Pos(userID)
	if !ok {
		return Prediction{}, false
	}
	a, ok := p.matrix.Articles().Pos(articleID)
	if !ok {
		return Prediction{}, false
	}
	return p.PredictAt(u, a), true
}

// PredictAt blends the signals for matrix positions (u, a).
func (p *Predictor) PredictAt(u, a int) Prediction {
	pred := Prediction{ArticleID: p.matrix.Articles().ID(a), Signals: make(map[string]float64, signalCount)}

	var weighted, weightSum float64
	add := func(method string, score, weight float64) {
		// a zero weight takes the signal out of the blend
		if weight <= 0 {
			return
		}
		pred.Methods = append(pred.Methods, method)
		pred.Signals[method] = score
		weighted += score * weight
		weightSum += weight
	}

	if s, ok := p.contentSignal(u, a); ok {
		add(SignalContent, s, p.cfg.Weights.Content)
	}
	if p.factors != nil {
		if s, ok := p.factors.Predict(p.matrix.Users().ID(u), pred.ArticleID); ok {
			add(SignalCollaborative, s, p.cfg.Weights.Collaborative)
		}
	}
	add(SignalPopularity, p.popularity.Rating(a), p.cfg.Weights.Popularity)
	add(SignalBehavioral, p.behavioralSignal(u, a), p.cfg.Weights.Behavioral)

	if len(pred.Methods) == 0 {
		return Prediction{
			ArticleID:  pred.ArticleID,
			Rating:     NeutralRating,
			Confidence: 0.1,
			Methods:    []string{SignalNoData},
		}
	}

	pred.Rating = weighted / weightSum
	pred.Confidence = math.Min(1, float64(len(pred.Methods))/signalCount)
	return pred
}

// contentSignal is the mean of rating x similarity over the user's rated
// articles whose similarity to the target exceeds the threshold.
func (p *Predictor) contentSignal(u, a int) (float64, bool) {
	if p.content == nil {
		return 0, false
	}
	target := p.contentPos[a]
	if target < 0 {
		return 0, false
	}

	var sum float64
	n := 0
	for b, r := range p.matrix.Row(u) {
		if r == 0 || b == a {
			continue
		}
		row := p.contentPos[b]
		if row < 0 {
			continue
		}
		sim := p.content.SimilarityAt(row, target)
		if sim > p.cfg.ContentThreshold {
			sum += r * sim
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// behavioralSignal applies the activity and freshness heuristics, then
// averages with the cluster peers' mean rating when one exists.
func (p *Predictor) behavioralSignal(u, a int) float64 {
	score := NeutralRating
	if p.activity != nil {
		score += p.activity[u] * p.cfg.ActivityBoost
	}
	if p.ageDays != nil && p.ageDays[a] < p.cfg.FreshDays {
		score += p.cfg.FreshBonus
	}

	if p.clusterMean != nil {
		if label, ok := p.segments.Label(p.matrix.Users().ID(u)); ok {
			if peer := p.clusterMean[label][a]; !math.IsNaN(peer) {
				score = (score + peer) / 2
			}
		}
	}
	return clamp(score, 1, 5)
}

// Recommend ranks every article the user has not interacted with, keeps
// predictions above MinPredictedRating and returns the best n (n <= 0 means
// no limit). Ties are broken by article ID ascending.
func (p *Predictor) Recommend(userID, n int) ([]Prediction, bool) {
	u, ok := p.matrix.Users().Pos(userID)
	if !ok {
		return nil, false
	}

	row := p.matrix.Row(u)
	out := make([]Prediction, 0, len(row))
	for a, r := range row {
		if r > 0 {
			continue
		}
		pred := p.PredictAt(u, a)
		if pred.Rating > p.cfg.MinPredictedRating {
			out = append(out, pred)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ArticleID < out[j].ArticleID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, true
}

// RatingLabel interprets a rating on the 1..5 scale.
func RatingLabel(r float64) string {
	switch {
	case r >= 4.5:
		return "Excellent"
	case r >= 3.5:
		return "Very good"
	case r >= 2.5:
		return "Good"
	case r >= 1.5:
		return "Fair"
	default:
		return "Poor"
	}
}
