// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/recommend/algorithms"
	"github.com/tomtom215/lectern/internal/recommend/textnorm"
)

// Pipeline step names used in PipelineError and logs.
const (
	StepLoad         = "load"
	StepMatrix       = "interaction_matrix"
	StepContent      = "content"
	StepFactors      = "factorization"
	StepSegmentation = "segmentation"
	StepPopularity   = "popularity"
	StepPredictor    = "predictor"
	StepSurfaces     = "surfaces"
	StepPublish      = "publish"
)

// CycleInput is the normalized snapshot a cycle is computed from.
type CycleInput struct {
	Articles     []Article
	Users        []User
	Interactions InteractionSet

	// Source names the interaction source.
	Source string
}

// Cycle is one completed batch computation. It is immutable once built and
// safe for concurrent readers.
type Cycle struct {
	ID          string
	StartedAt   time.Time
	CompletedAt time.Time
	Source      string

	cfg          *Config
	articles     []Article
	articleIdx   *algorithms.Index
	users        []User
	userIdx      *algorithms.Index
	interactions InteractionSet

	matrix     *algorithms.InteractionMatrix
	content    *algorithms.ContentModel
	factors    *algorithms.FactorModel
	segments   *algorithms.Segmentation
	popularity *algorithms.Popularity
	predictor  *algorithms.Predictor

	readiness   ModelReadiness
	unavailable map[string]string
}

// BuildCycle runs the scoring pipeline over a snapshot. Sub-models that lack
// data are recorded as unavailable; an empty article set, a cancelled
// context or an unexpected builder error yields a *PipelineError.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func BuildCycle(ctx context.Context, id string, in CycleInput, cfg *Config, now time.Time, logger zerolog.Logger) (*Cycle, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(in.Articles) == 0 {
		return nil, pipelineError(StepLoad, "no published articles", nil)
	}

	c := &Cycle{
		ID:           id,
		StartedAt:    now,
		Source:       in.Source,
		cfg:          cfg,
		articles:     sortedArticles(in.Articles),
		users:        sortedUsers(in.Users),
		interactions: restrictInteractions(in.Interactions, in.Articles, in.Users),
		unavailable:  make(map[string]string),
	}
	c.articleIdx = algorithms.NewIndex(articleIDs(c.articles))
	c.userIdx = algorithms.NewIndex(userIDs(c.users))

	log := logger.With().Str("cycle_id", id).Logger()

	steps := []struct {
		name string
		run  func() error
	}{
		{StepMatrix, c.buildMatrix},
		{StepContent, c.buildContent},
		{StepFactors, c.buildFactors},
		{StepSegmentation, c.buildSegmentation},
		{StepPopularity, c.buildPopularity},
		{StepPredictor, c.buildPredictor},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, pipelineError(step.name, "cancelled", err)
		}

		start := time.Now()
		err := step.run()
		var insufficient *InsufficientDataError
		switch {
		case err == nil:
		case errors.As(err, &insufficient):
			c.unavailable[step.name] = insufficient.Reason
			log.Warn().Str("step", step.name).Str("reason", insufficient.Reason).Msg("sub-model unavailable")
		default:
			return nil, pipelineError(step.name, "builder failed", err)
		}

		log.Debug().
			Str("step", step.name).
			Dur("duration", time.Since(start)).
			Msg("pipeline step complete")
	}

	c.readiness = ModelReadiness{
		Content:       c.content != nil,
		Collaborative: c.factors != nil,
		Segmentation:  c.segments != nil,
		Popularity:    c.popularity != nil && c.matrix.Observed() > 0,
	}
	c.CompletedAt = time.Now()

	log.Info().
		Int("articles", len(c.articles)).
		Int("users", len(c.users)).
		Int("interactions", c.interactions.Count()).
		Int("models_ready", c.readiness.Count()).
		Msg("cycle computed")

	return c, nil
}

func (c *Cycle) buildMatrix() error {
	if len(c.users) == 0 {
		return &InsufficientDataError{Model: algorithms.ModelMatrix, Reason: "no users"}
	}

	entries := make([]algorithms.Entry, 0, c.interactions.Count())
	for _, u := range c.users {
		rated := c.interactions[u.ID]
		ids := make([]int, 0, len(rated))
		for aid := range rated {
			ids = append(ids, aid)
		}
		sort.Ints(ids)
		for _, aid := range ids {
			in := rated[aid]
			entries = append(entries, algorithms.Entry{User: u.ID, Article: aid, Rating: in.Rating, Views: in.Views})
		}
	}

	m, err := algorithms.BuildInteractionMatrix(c.userIdx.IDs(), c.articleIdx.IDs(), entries)
	if err != nil {
		return err
	}
	c.matrix = m
	return nil
}

func (c *Cycle) buildContent() error {
	docs := make([]string, len(c.articles))
	for i := range c.articles {
		docs[i] = c.articles[i].Document
	}
	m, err := algorithms.BuildContentModel(c.articleIdx.IDs(), docs, c.cfg.Content.Vectorizer())
	if err != nil {
		return err
	}
	c.content = m
	return nil
}

func (c *Cycle) buildFactors() error {
	if c.matrix == nil {
		return &InsufficientDataError{Model: algorithms.ModelFactorization, Reason: "no interaction matrix"}
	}
	f, err := algorithms.FitFactorModel(c.matrix, c.cfg.Factorization)
	if err != nil {
		return err
	}
	c.factors = f
	return nil
}

// segmentationFeatures returns, per user: activity level, session count,
// registration days / 365, interaction count and mean rating (2.5 without
// interactions).
func (c *Cycle) segmentationFeatures() [][]float64 {
	features := make([][]float64, len(c.users))
	for i := range c.users {
		u := &c.users[i]
		rated := c.interactions[u.ID]
		mean := algorithms.NeutralRating
		if len(rated) > 0 {
			var sum float64
			for _, in := range rated {
				sum += in.Rating
			}
			mean = sum / float64(len(rated))
		}
		features[i] = []float64{
			u.ActivityLevel,
			float64(u.SessionCount),
			float64(u.RegistrationDays) / 365,
			float64(len(rated)),
			mean,
		}
	}
	return features
}

func (c *Cycle) buildSegmentation() error {
	s, err := algorithms.Segment(c.userIdx.IDs(), c.segmentationFeatures(), c.cfg.Segmentation)
	if err != nil {
		return err
	}
	c.segments = s
	return nil
}

func (c *Cycle) buildPopularity() error {
	if c.matrix == nil {
		return &InsufficientDataError{Model: algorithms.ModelPopularity, Reason: "no interaction matrix"}
	}
	c.popularity = algorithms.BuildPopularity(c.matrix)
	if c.matrix.Observed() == 0 {
		return &InsufficientDataError{Model: algorithms.ModelPopularity, Reason: "no interactions"}
	}
	return nil
}

func (c *Cycle) buildPredictor() error {
	if c.matrix == nil {
		return &InsufficientDataError{Model: "predictor", Reason: "no interaction matrix"}
	}

	activity := make([]float64, len(c.users))
	for i := range c.users {
		activity[i] = c.users[i].ActivityLevel
	}
	ages := make([]int, len(c.articles))
	for i := range c.articles {
		ages[i] = c.articles[i].DaysSincePublished
	}

	p, err := algorithms.NewPredictor(algorithms.HybridInput{
		Matrix:     c.matrix,
		Content:    c.content,
		Factors:    c.factors,
		Segments:   c.segments,
		Popularity: c.popularity,
		Activity:   activity,
		AgeDays:    ages,
	}, c.cfg.hybridConfig())
	if err != nil {
		return err
	}
	c.predictor = p
	return nil
}

// Readiness reports which sub-models were built.
func (c *Cycle) Readiness() ModelReadiness { return c.readiness }

// Unavailable returns the reason per pipeline step that degraded.
func (c *Cycle) Unavailable() map[string]string {
	out := make(map[string]string, len(c.unavailable))
	for k, v := range c.unavailable {
		out[k] = v
	}
	return out
}

// Articles returns the working set, sorted by ID. Callers must not modify it.
func (c *Cycle) Articles() []Article { return c.articles }

// Users returns the normalized users, sorted by ID. Callers must not modify it.
func (c *Cycle) Users() []User { return c.users }

// Article looks up a working-set article.
func (c *Cycle) Article(id int) (*Article, bool) {
	i, ok := c.articleIdx.Pos(id)
	if !ok {
		return nil, false
	}
	return &c.articles[i], true
}

// User looks up a working-set user.
func (c *Cycle) User(id int) (*User, bool) {
	i, ok := c.userIdx.Pos(id)
	if !ok {
		return nil, false
	}
	return &c.users[i], true
}

// Interactions returns the interactions of one user.
func (c *Cycle) Interactions(userID int) map[int]Interaction {
	return c.interactions[userID]
}

// InteractionCount returns the number of interactions in the cycle.
func (c *Cycle) InteractionCount() int { return c.interactions.Count() }

// Cluster returns the user's segment label.
func (c *Cycle) Cluster(userID int) (int, bool) {
	if c.segments == nil {
		return 0, false
	}
	return c.segments.Label(userID)
}

// VocabularySize returns the TF-IDF vocabulary size, 0 without a content model.
func (c *Cycle) VocabularySize() int {
	if c.content == nil {
		return 0
	}
	return c.content.VocabularySize()
}

// Sparsity returns the fraction of empty matrix cells, 1 without a matrix.
func (c *Cycle) Sparsity() float64 {
	if c.matrix == nil {
		return 1
	}
	return c.matrix.Sparsity()
}

// SimilarityReport validates the similarity matrix.
func (c *Cycle) SimilarityReport() (algorithms.MatrixReport, bool) {
	if c.content == nil {
		return algorithms.MatrixReport{}, false
	}
	return c.content.Validate(), true
}

// display builds denormalized metadata for an article.
func (c *Cycle) display(a *Article) ArticleDisplay {
	return ArticleDisplay{
		Title:   a.Title,
		Authors: a.AuthorList(),
		Snippet: textnorm.Snippet(a.Abstract, c.cfg.Surfaces.SnippetLength),
		URL:     a.URL(),
	}
}

func sortedArticles(in []Article) []Article {
	out := make([]Article, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedUsers(in []User) []User {
	out := make([]User, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func articleIDs(articles []Article) []int {
	ids := make([]int, len(articles))
	for i := range articles {
		ids[i] = articles[i].ID
	}
	return ids
}

func userIDs(users []User) []int {
	ids := make([]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	return ids
}

// restrictInteractions drops interactions outside the working set.
func restrictInteractions(set InteractionSet, articles []Article, users []User) InteractionSet {
	known := make(map[int]struct{}, len(articles))
	for i := range articles {
		known[articles[i].ID] = struct{}{}
	}

	out := make(InteractionSet, len(users))
	for i := range users {
		uid := users[i].ID
		rated := set[uid]
		if len(rated) == 0 {
			continue
		}
		kept := make(map[int]Interaction, len(rated))
		for aid, in := range rated {
			if _, ok := known[aid]; ok {
				kept[aid] = in
			}
		}
		if len(kept) > 0 {
			out[uid] = kept
		}
	}
	return out
}
