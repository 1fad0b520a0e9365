// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Level labels used by the analytics summaries.
const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
	LevelLow    = "Low"
)

// preferenceRating is the rating a user must exceed for an article to count
// toward their content preferences.
const preferenceRating = 3.5

// FavoriteArticle is one of a user's best-rated articles.
type FavoriteArticle struct {
	ArticleID int     `json:"article_id"`
	Title     string  `json:"title"`
	Rating    float64 `json:"rating"`
}

// InteractionStats summarizes a user's interactions.
type InteractionStats struct {
	ArticlesViewed int               `json:"articles_viewed"`
	AverageRating  float64           `json:"average_rating"`
	TotalTimeSpent float64           `json:"total_time_spent"`
	Favorites      []FavoriteArticle `json:"favorites"`
}

// EngagementForecast is the heuristic outlook for a user.
type EngagementForecast struct {
	EngagementLevel string `json:"engagement_level"`
	LikelyToReturn  bool   `json:"likely_to_return"`
	NextVisitDays   int    `json:"predicted_next_visit_days"`
}

// ContentPreferences is derived from the articles a user rated above 3.5.
type ContentPreferences struct {
	PreferredAuthors   []string `json:"preferred_authors"`
	PreferredTopics    []string `json:"preferred_topics"`
	AverageRatingGiven float64  `json:"average_rating_given"`
	EngagementRatio    float64  `json:"content_engagement_level"`
}

// BehaviorSummary describes one user's behavior in the current cycle.
type BehaviorSummary struct {
	UserID                int                 `json:"user_id"`
	UserType              UserType            `json:"user_type"`
	ActivityLevel         float64             `json:"activity_level"`
	Cluster               *int                `json:"cluster,omitempty"`
	ProfileCompleteness   *float64            `json:"profile_completeness,omitempty"`
	Interactions          InteractionStats    `json:"interaction_statistics"`
	Forecast              EngagementForecast  `json:"behavior_predictions"`
	Preferences           *ContentPreferences `json:"content_preferences,omitempty"`
	RecommendationQuality string              `json:"recommendations_quality"`
}

// BehaviorSummary analyzes a user. profile is optional.
func (c *Cycle) BehaviorSummary(userID int, profile *UserProfile) (*BehaviorSummary, error) {
	u, ok := c.User(userID)
	if !ok {
		return nil, unknown("user", userID)
	}

	rated := c.interactions[userID]
	s := &BehaviorSummary{
		UserID:        userID,
		UserType:      u.Type,
		ActivityLevel: u.ActivityLevel,
		Interactions:  c.interactionStats(rated),
		Forecast:      Forecast(u.ActivityLevel),
		Preferences:   c.contentPreferences(rated),
	}
	if label, ok := c.Cluster(userID); ok {
		s.Cluster = &label
	}
	if profile != nil {
		completeness := profile.Completeness()
		s.ProfileCompleteness = &completeness
	}

	switch n := len(rated); {
	case n > 5:
		s.RecommendationQuality = LevelHigh
	case n > 2:
		s.RecommendationQuality = LevelMedium
	default:
		s.RecommendationQuality = LevelLow
	}
	return s, nil
}

// Forecast derives engagement, return likelihood and the expected days to
// the next visit (clamped to 1..30) from an activity level.
func Forecast(activity float64) EngagementForecast {
	f := EngagementForecast{LikelyToReturn: activity > 0.5}
	switch {
	case activity > 0.7:
		f.EngagementLevel = LevelHigh
	case activity > 0.3:
		f.EngagementLevel = LevelMedium
	default:
		f.EngagementLevel = LevelLow
	}

	days := int(30 * (1 - activity))
	if days < 1 {
		days = 1
	}
	if days > 30 {
		days = 30
	}
	f.NextVisitDays = days
	return f
}

func (c *Cycle) interactionStats(rated map[int]Interaction) InteractionStats {
	stats := InteractionStats{ArticlesViewed: len(rated), Favorites: []FavoriteArticle{}}
	if len(rated) == 0 {
		return stats
	}

	var sum float64
	favorites := make([]FavoriteArticle, 0, len(rated))
	for aid, in := range rated {
		sum += in.Rating
		stats.TotalTimeSpent += in.TimeSpent
		fav := FavoriteArticle{ArticleID: aid, Rating: in.Rating}
		if a, ok := c.Article(aid); ok {
			fav.Title = a.Title
		}
		favorites = append(favorites, fav)
	}
	stats.AverageRating = sum / float64(len(rated))

	sort.Slice(favorites, func(i, j int) bool {
		if favorites[i].Rating != favorites[j].Rating {
			return favorites[i].Rating > favorites[j].Rating
		}
		return favorites[i].ArticleID < favorites[j].ArticleID
	})
	if len(favorites) > 3 {
		favorites = favorites[:3]
	}
	stats.Favorites = favorites
	return stats
}

func (c *Cycle) contentPreferences(rated map[int]Interaction) *ContentPreferences {
	if len(rated) == 0 {
		return nil
	}

	ids := make([]int, 0, len(rated))
	for aid, in := range rated {
		if in.Rating > preferenceRating {
			ids = append(ids, aid)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)

	authors := newCounter()
	topics := newCounter()
	var sum float64
	for _, aid := range ids {
		sum += rated[aid].Rating
		a, ok := c.Article(aid)
		if !ok {
			continue
		}
		for _, name := range a.Authors {
			authors.add(name)
		}
		for _, w := range strings.Fields(strings.ToLower(a.Title)) {
			if utf8.RuneCountInString(w) > 4 {
				topics.add(w)
			}
		}
	}

	return &ContentPreferences{
		PreferredAuthors:   authors.top(3),
		PreferredTopics:    topics.top(5),
		AverageRatingGiven: sum / float64(len(ids)),
		EngagementRatio:    float64(len(ids)) / float64(len(rated)),
	}
}

// counter tallies strings, remembering first-seen order for ties.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(s string) {
	if _, ok := c.counts[s]; !ok {
		c.order = append(c.order, s)
	}
	c.counts[s]++
}

func (c *counter) top(n int) []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.SliceStable(out, func(i, j int) bool { return c.counts[out[i]] > c.counts[out[j]] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Insights aggregates the working set and model state of a cycle.
type Insights struct {
	TotalUsers                 int              `json:"total_users"`
	TotalArticles              int              `json:"total_articles"`
	TotalInteractions          int              `json:"total_interactions"`
	AverageInteractionsPerUser float64          `json:"average_interactions_per_user"`
	Sparsity                   float64          `json:"sparsity"`
	DataSufficiency            string           `json:"data_sufficiency"`
	UserTypes                  map[UserType]int `json:"user_distribution"`
	ClusterSizes               map[int]int      `json:"cluster_distribution"`
	Readiness                  ModelReadiness   `json:"model_readiness"`
}

// Insights computes system-wide statistics.
func (c *Cycle) Insights() Insights {
	in := Insights{
		TotalUsers:        len(c.users),
		TotalArticles:     len(c.articles),
		TotalInteractions: c.interactions.Count(),
		UserTypes:         make(map[UserType]int),
		ClusterSizes:      make(map[int]int),
		Readiness:         c.readiness,
	}
	if in.TotalUsers > 0 {
		in.AverageInteractionsPerUser = float64(in.TotalInteractions) / float64(in.TotalUsers)
	}

	in.Sparsity = 1
	if cells := in.TotalUsers * in.TotalArticles; cells > 0 {
		in.Sparsity = 1 - float64(in.TotalInteractions)/float64(cells)
	}
	in.DataSufficiency = DataSufficiency(in.Sparsity)

	for i := range c.users {
		in.UserTypes[c.users[i].Type]++
	}
	if c.segments != nil {
		for label, size := range c.segments.Sizes() {
			in.ClusterSizes[label] = size
		}
	}
	return in
}

// DataSufficiency grades a sparsity level: High below 0.95, Medium below 0.99.
func DataSufficiency(sparsity float64) string {
	switch {
	case sparsity < 0.95:
		return LevelHigh
	case sparsity < 0.99:
		return LevelMedium
	default:
		return LevelLow
	}
}

// SystemHealth is a compact readiness snapshot.
type SystemHealth struct {
	CycleID        string         `json:"cycle_id"`
	ArticlesLoaded int            `json:"articles_loaded"`
	VocabularySize int            `json:"vocabulary_size"`
	MatrixValid    bool           `json:"matrix_valid"`
	Sparsity       float64        `json:"sparsity"`
	Readiness      ModelReadiness `json:"model_readiness"`
}

// SystemHealth reports the state of the cycle's models.
func (c *Cycle) SystemHealth() SystemHealth {
	report, ok := c.SimilarityReport()
	return SystemHealth{
		CycleID:        c.ID,
		ArticlesLoaded: len(c.articles),
		VocabularySize: c.VocabularySize(),
		MatrixValid:    ok && report.Valid,
		Sparsity:       c.Sparsity(),
		Readiness:      c.readiness,
	}
}
