// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package interactions

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/lectern/internal/recommend"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockProvider struct {
	events []recommend.UsageEvent
	err    error
}

func (m *mockProvider) FetchArticles(ctx context.Context) ([]recommend.RawArticle, error) {
	return nil, nil
}

func (m *mockProvider) FetchUsers(ctx context.Context) ([]recommend.RawUser, error) {
	return nil, nil
}

func (m *mockProvider) FetchUserProfile(ctx context.Context, userID int) (*recommend.UserProfile, error) {
	return nil, nil
}

func (m *mockProvider) FetchUsageEvents(ctx context.Context) ([]recommend.UsageEvent, error) {
	return m.events, m.err
}

func workingSet(nArticles int) ([]recommend.Article, []recommend.User) {
	articles := make([]recommend.Article, nArticles)
	for i := range articles {
		articles[i] = recommend.Article{ID: i + 1, Title: "t", DaysSincePublished: i * 30}
	}
	users := []recommend.User{
		{ID: 10, ActivityLevel: 0.9},
		{ID: 11, ActivityLevel: 0.5},
		{ID: 12, ActivityLevel: 0},
	}
	return articles, users
}

func ptr(v float64) *float64 { return &v }

func TestImplicitRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		views   int
		seconds float64
		want    float64
	}{
		{"single short view", 1, 0, 2.5},
		{"two views", 2, 0, 3.0},
		{"long read", 1, 600, 4.0},
		{"partial read", 1, 150, 3.0},
		{"capped at 5", 6, 900, 5.0},
		{"zero views treated as one", 0, 0, 2.5},
		{"negative time ignored", 1, -50, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImplicitRating(tt.views, tt.seconds); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ImplicitRating(%d, %v) = %f, want %f", tt.views, tt.seconds, got, tt.want)
			}
		})
	}
}

func TestLogSource_Load(t *testing.T) {
	t.Parallel()

	early := now.Add(-48 * time.Hour)
	late := now.Add(-time.Hour)
	provider := &mockProvider{events: []recommend.UsageEvent{
		{UserID: 10, ArticleID: 1, EventType: "view", DurationSeconds: 100, CreatedAt: early},
		{UserID: 10, ArticleID: 1, EventType: "view", DurationSeconds: 200, CreatedAt: late},
		{UserID: 10, ArticleID: 2, EventType: "rate", Rating: ptr(4), CreatedAt: early},
		{UserID: 10, ArticleID: 2, EventType: "rate", Rating: ptr(5), CreatedAt: early},
		{UserID: 11, ArticleID: 3, EventType: "rate", Rating: ptr(9), CreatedAt: early},
		{UserID: 99, ArticleID: 1, EventType: "view", CreatedAt: early},
		{UserID: 11, ArticleID: 42, EventType: "view", CreatedAt: early},
	}}
	articles, users := workingSet(3)

	src := NewLogSource(provider)
	if src.Name() != SourceLog {
		t.Errorf("Name() = %q", src.Name())
	}

	set, err := src.Load(context.Background(), articles, users)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if set.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", set.Count())
	}

	viewed := set[10][1]
	if viewed.Views != 2 || viewed.TimeSpent != 300 || !viewed.InteractedAt.Equal(late) {
		t.Errorf("viewed = %+v, want 2 views, 300s, latest timestamp", viewed)
	}
	if viewed.Rating != ImplicitRating(2, 300) {
		t.Errorf("viewed.Rating = %f, want implicit %f", viewed.Rating, ImplicitRating(2, 300))
	}
	if got := set[10][2].Rating; got != 4.5 {
		t.Errorf("rated.Rating = %f, want mean 4.5", got)
	}
	if got := set[11][3].Rating; got != 5 {
		t.Errorf("out-of-range rating = %f, want clamped 5", got)
	}
	if _, ok := set[99]; ok {
		t.Error("unknown user included")
	}
}

func TestLogSource_Load_NonFiniteValues(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{events: []recommend.UsageEvent{
		{UserID: 10, ArticleID: 1, EventType: "rate", Rating: ptr(math.NaN()), CreatedAt: now},
		{UserID: 10, ArticleID: 1, EventType: "rate", Rating: ptr(4), CreatedAt: now},
		{UserID: 10, ArticleID: 2, EventType: "rate", Rating: ptr(math.Inf(1)), DurationSeconds: 120, CreatedAt: now},
		{UserID: 11, ArticleID: 3, EventType: "rate", Rating: ptr(math.Inf(-1)), CreatedAt: now},
		{UserID: 11, ArticleID: 3, EventType: "view", DurationSeconds: math.Inf(1), CreatedAt: now},
	}}
	articles, users := workingSet(3)

	set, err := NewLogSource(provider).Load(context.Background(), articles, users)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name      string
		user      int
		article   int
		want      float64
		wantViews int
		wantTime  float64
	}{
		{"NaN ignored beside a finite rating", 10, 1, 4, 2, 0},
		{"only infinite rating falls back to implicit", 10, 2, ImplicitRating(1, 120), 1, 120},
		{"infinite duration ignored", 11, 3, ImplicitRating(2, 0), 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, ok := set[tt.user][tt.article]
			if !ok {
				t.Fatalf("interaction (%d,%d) missing", tt.user, tt.article)
			}
			if math.IsNaN(it.Rating) || it.Rating != tt.want {
				t.Errorf("Rating = %f, want %f", it.Rating, tt.want)
			}
			if it.Views != tt.wantViews || it.TimeSpent != tt.wantTime {
				t.Errorf("views/time = %d/%f, want %d/%f", it.Views, it.TimeSpent, tt.wantViews, tt.wantTime)
			}
		})
	}
}

func TestLogSource_ProviderError(t *testing.T) {
	t.Parallel()

	src := NewLogSource(&mockProvider{err: errors.New("boom")})
	articles, users := workingSet(2)
	if _, err := src.Load(context.Background(), articles, users); err == nil {
		t.Error("Load() error = nil, want provider error")
	}
}

func TestSyntheticSource_Load(t *testing.T) {
	t.Parallel()

	articles, users := workingSet(20)
	clock := func() time.Time { return now }

	a, err := NewSyntheticSource(42, clock).Load(context.Background(), articles, users)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	t.Run("deterministic for a seed", func(t *testing.T) {
		// reversed input must not change the draw
		rev := make([]recommend.Article, len(articles))
		for i := range articles {
			rev[len(articles)-1-i] = articles[i]
		}
		b, err := NewSyntheticSource(42, clock).Load(context.Background(), rev, users)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Error("same seed produced different interactions")
		}
	})

	t.Run("inactive user has none", func(t *testing.T) {
		if len(a[12]) != 0 {
			t.Errorf("user 12 has %d interactions, want 0", len(a[12]))
		}
	})

	t.Run("values in range", func(t *testing.T) {
		for uid, row := range a {
			if len(row) > len(articles) {
				t.Errorf("user %d has %d interactions", uid, len(row))
			}
			for aid, it := range row {
				if it.Rating < 1 || it.Rating > 5 {
					t.Errorf("(%d,%d) rating %f out of range", uid, aid, it.Rating)
				}
				if it.Views < 1 || it.Views > 4 {
					t.Errorf("(%d,%d) views %d out of range", uid, aid, it.Views)
				}
				if it.TimeSpent < 30 || it.TimeSpent > 300 {
					t.Errorf("(%d,%d) time %f out of range", uid, aid, it.TimeSpent)
				}
				age := now.Sub(it.InteractedAt).Hours() / 24
				if age < 1 || age > 180 {
					t.Errorf("(%d,%d) age %f days out of range", uid, aid, age)
				}
			}
		}
	})
}

func TestSyntheticSource_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	articles, users := workingSet(5)
	if _, err := NewSyntheticSource(1, nil).Load(ctx, articles, users); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() err = %v, want context.Canceled", err)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		provider recommend.DataProvider
		want     string
		wantErr  bool
	}{
		{name: "log", cfg: DefaultConfig(), provider: &mockProvider{}, want: SourceLog},
		{name: "log without provider", cfg: DefaultConfig(), wantErr: true},
		{name: "synthetic", cfg: Config{Name: SourceSynthetic, Seed: 7}, want: SourceSynthetic},
		{name: "unknown", cfg: Config{Name: "csv"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.cfg, tt.provider)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && src.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", src.Name(), tt.want)
			}
		})
	}
}
