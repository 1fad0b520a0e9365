// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func daysAgo(d int) *time.Time {
	t := fixedNow.AddDate(0, 0, -d)
	return &t
}

// testConfig uses the light vectorizer so the small fixture keeps a
// non-empty vocabulary.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Content.Variant = ContentVariantLight
	return cfg
}

func rawArticles() []RawArticle {
	return []RawArticle{
		{
			ID: 1, SubmissionID: 101,
			Title:        "Machine Learning in <i>Healthcare</i>",
			Abstract:     "Neural networks improve clinical diagnosis in hospitals. Models learn from patient records.",
			Authors:      "Ana García; Luis Pérez",
			Affiliations: "Universidad Central",
			PublishedAt:  daysAgo(5),
		},
		{
			ID: 2, SubmissionID: 102,
			Title:        "Deep Learning Medical Imaging",
			Abstract:     "Neural networks segment medical images for clinical diagnosis. Radiology benefits from automation.",
			Authors:      "Ana García; Marta Ruiz",
			Affiliations: "Hospital Norte",
			PublishedAt:  daysAgo(20),
		},
		{
			ID: 3, SubmissionID: 103,
			Title:       "Cooking Recipes for Beginners",
			Abstract:    "Simple recipes for home cooking with fresh vegetables. Every kitchen needs sharp knives.",
			Authors:     "Carlos Soto",
			PublishedAt: daysAgo(100),
		},
		{
			ID: 4, SubmissionID: 104,
			Title:    "Bread Baking Techniques",
			Abstract: "Sourdough bread baking at home with fresh flour. Ovens should be preheated carefully.",
			Authors:  "Pedro Soto",
		},
		{
			ID: 5, SubmissionID: 105,
			Title:    "Sin título",
			Abstract: "Placeholder entry without a resolvable title.",
		},
	}
}

func rawUsers() []RawUser {
	return []RawUser{
		{ID: 10, RegisteredAt: daysAgo(400), LastLoginAt: daysAgo(1), SessionCount: 8},
		{ID: 11, RegisteredAt: daysAgo(200), LastLoginAt: daysAgo(10), SessionCount: 3},
		{ID: 12, RegisteredAt: daysAgo(50), LastLoginAt: daysAgo(25), SessionCount: 1},
		{ID: 13, SessionCount: 0},
	}
}

func testInteractions() InteractionSet {
	at := fixedNow.AddDate(0, 0, -3)
	return InteractionSet{
		10: {
			1: {Rating: 5, Views: 3, TimeSpent: 400, InteractedAt: at},
			3: {Rating: 2, Views: 1, TimeSpent: 30, InteractedAt: at},
		},
		11: {
			1: {Rating: 4, Views: 2, TimeSpent: 200, InteractedAt: at},
			2: {Rating: 5, Views: 4, TimeSpent: 600, InteractedAt: at},
		},
		12: {
			3: {Rating: 4, Views: 1, TimeSpent: 120, InteractedAt: at},
			4: {Rating: 5, Views: 2, TimeSpent: 300, InteractedAt: at},
		},
	}
}

func testInput() CycleInput {
	return CycleInput{
		Articles:     NormalizeArticles(rawArticles(), fixedNow),
		Users:        NormalizeUsers(rawUsers(), fixedNow),
		Interactions: testInteractions(),
		Source:       "static",
	}
}

func buildTestCycle(t *testing.T) *Cycle {
	t.Helper()
	c, err := BuildCycle(context.Background(), "cycle-1", testInput(), testConfig(), fixedNow, testLogger())
	if err != nil {
		t.Fatalf("BuildCycle() error = %v", err)
	}
	return c
}

// mockProvider implements DataProvider for testing.
type mockProvider struct {
	mu         sync.Mutex
	articles   []RawArticle
	users      []RawUser
	profiles   map[int]*UserProfile
	articleErr error
	userErr    error
	profileErr error

	// block, when set, is waited on inside FetchArticles; entered is closed
	// on the first call.
	block   chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newMockProvider() *mockProvider {
	return &mockProvider{articles: rawArticles(), users: rawUsers()}
}

func (m *mockProvider) FetchArticles(ctx context.Context) ([]RawArticle, error) {
	if m.entered != nil {
		m.once.Do(func() { close(m.entered) })
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.articleErr != nil {
		return nil, m.articleErr
	}
	return m.articles, nil
}

func (m *mockProvider) FetchUsers(ctx context.Context) ([]RawUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userErr != nil {
		return nil, m.userErr
	}
	return m.users, nil
}

func (m *mockProvider) FetchUserProfile(ctx context.Context, userID int) (*UserProfile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profiles[userID], nil
}

func (m *mockProvider) FetchUsageEvents(ctx context.Context) ([]UsageEvent, error) {
	return nil, nil
}

func (m *mockProvider) setArticleErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articleErr = err
}

// staticSource returns a fixed interaction set.
type staticSource struct {
	set InteractionSet
	err error
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Load(ctx context.Context, articles []Article, users []User) (InteractionSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.set, nil
}

// mockStore implements CycleStore for testing.
type mockStore struct {
	mu         sync.Mutex
	completed  bool
	checkErr   error
	publishErr error
	begun      []string
	published  []*CycleResults
	failed     map[string]string
}

func (m *mockStore) CompletedOn(ctx context.Context, t time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed, m.checkErr
}

func (m *mockStore) BeginCycle(ctx context.Context, id string, startedAt time.Time, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.begun = append(m.begun, id)
	return nil
}

func (m *mockStore) PublishCycle(ctx context.Context, results *CycleResults) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, results)
	return nil
}

func (m *mockStore) FailCycle(ctx context.Context, id string, finishedAt time.Time, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed == nil {
		m.failed = make(map[string]string)
	}
	m.failed[id] = reason
	return nil
}

// mockEvents records published cycle events.
type mockEvents struct {
	mu     sync.Mutex
	events []CycleEvent
}

func (m *mockEvents) PublishCycleEvent(ctx context.Context, event CycleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEvents) statuses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Status
	}
	return out
}
