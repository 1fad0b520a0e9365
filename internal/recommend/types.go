// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RawArticle is a published article as read from the source store, before
// normalization. Status filtering happens upstream.
type RawArticle struct {
	// ID is the publication identifier.
	ID int `json:"id" db:"publication_id"`

	// SubmissionID is the human-facing identifier, stable across revisions.
	SubmissionID int `json:"submission_id" db:"submission_id"`

	Title        string     `json:"title" db:"title"`
	Abstract     string     `json:"abstract" db:"abstract"`
	Authors      string     `json:"authors" db:"authors"`
	Affiliations string     `json:"affiliations" db:"affiliations"`
	PublishedAt  *time.Time `json:"published_at,omitempty" db:"date_published"`
}

// RawUser is a registered reader with session statistics.
type RawUser struct {
	ID           int        `json:"id" db:"user_id"`
	RegisteredAt *time.Time `json:"registered_at,omitempty" db:"date_registered"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"date_last_login"`
	SessionCount int        `json:"session_count" db:"session_count"`
}

// UserProfile holds the optional profile fields of a user.
type UserProfile struct {
	UserID      int    `json:"user_id" db:"user_id"`
	GivenName   string `json:"given_name" db:"given_name"`
	FamilyName  string `json:"family_name" db:"family_name"`
	Country     string `json:"country" db:"country"`
	Affiliation string `json:"affiliation" db:"affiliation"`
	Biography   string `json:"biography" db:"biography"`
	Interests   string `json:"interests" db:"interests"`
}

// FullName joins the given and family names.
func (p *UserProfile) FullName() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// Completeness is the fraction of the six profile fields that are filled.
func (p *UserProfile) Completeness() float64 {
	fields := []string{p.GivenName, p.FamilyName, p.Country, p.Affiliation, p.Biography, p.Interests}
	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

// UsageEvent is one row of the reader usage log.
type UsageEvent struct {
	UserID          int       `json:"user_id" db:"user_id"`
	ArticleID       int       `json:"article_id" db:"publication_id"`
	EventType       string    `json:"event_type" db:"event_type"`
	DurationSeconds float64   `json:"duration_seconds" db:"duration_seconds"`
	Rating          *float64  `json:"rating,omitempty" db:"rating"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// DataProvider is the read-only source of bibliographic and behavioral
// records. It is typically implemented by the source package.
type DataProvider interface {
	// FetchArticles returns published articles.
	FetchArticles(ctx context.Context) ([]RawArticle, error)

	// FetchUsers returns registered users with session counts.
	FetchUsers(ctx context.Context) ([]RawUser, error)

	// FetchUserProfile returns the profile of one user, or nil if the user
	// has none.
	FetchUserProfile(ctx context.Context, userID int) (*UserProfile, error)

	// FetchUsageEvents returns the usage log.
	FetchUsageEvents(ctx context.Context) ([]UsageEvent, error)
}

// Article is a normalized article of the cycle's working set.
type Article struct {
	ID                 int        `json:"id"`
	SubmissionID       int        `json:"submission_id"`
	Title              string     `json:"title"`
	Abstract           string     `json:"abstract"`
	Authors            []string   `json:"authors"`
	Affiliations       string     `json:"affiliations"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	DaysSincePublished int        `json:"days_since_published"`

	// Document is the weighted analysis text used for vectorization only.
	Document string `json:"-"`
}

// AuthorList renders the authors joined by "; ".
func (a *Article) AuthorList() string {
	return strings.Join(a.Authors, "; ")
}

// URL returns the public article path.
func (a *Article) URL() string {
	return fmt.Sprintf("/article/view/%d", a.SubmissionID)
}

// Dated reports whether the article has a publication date.
func (a *Article) Dated() bool {
	return a.PublishedAt != nil
}

// UserType buckets users by activity.
type UserType string

const (
	UserTypePower   UserType = "power_user"
	UserTypeRegular UserType = "regular_user"
	UserTypeCasual  UserType = "casual_user"
)

// Interaction is a user's engagement with one article.
type Interaction struct {
	// Rating is the observed or implicit rating in [1,5].
	Rating float64 `json:"rating"`

	// Views is the number of recorded views.
	Views int `json:"views"`

	// TimeSpent is the total reading time in seconds.
	TimeSpent float64 `json:"time_spent"`

	// InteractedAt is the most recent interaction time.
	InteractedAt time.Time `json:"interacted_at"`
}

// InteractionSet maps user ID -> article ID -> interaction.
type InteractionSet map[int]map[int]Interaction

// Count returns the total number of interactions.
func (s InteractionSet) Count() int {
	n := 0
	for _, m := range s {
		n += len(m)
	}
	return n
}

// User is a normalized user of the cycle's working set.
type User struct {
	ID               int      `json:"id"`
	RegistrationDays int      `json:"registration_days"`
	LastLoginDays    int      `json:"last_login_days"`
	SessionCount     int      `json:"session_count"`
	ActivityLevel    float64  `json:"activity_level"`
	Type             UserType `json:"user_type"`
}

// InteractionSource produces the interactions of a cycle. Implementations
// live in the interactions package.
type InteractionSource interface {
	// Name identifies the source in logs and cycle records.
	Name() string

	// Load returns interactions restricted to the given working set.
	Load(ctx context.Context, articles []Article, users []User) (InteractionSet, error)
}

// ArticleDisplay is the denormalized metadata copied into each
// recommendation at generation time.
type ArticleDisplay struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Snippet string `json:"abstract_snippet"`
	URL     string `json:"url"`
}

// SimilarArticle is one entry of an article-to-article list.
type SimilarArticle struct {
	ArticleID  int            `json:"article_id"`
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Algorithm  string         `json:"algorithm"`
	Display    ArticleDisplay `json:"display"`
}

// ScoredArticle is an (article, score) pair for bulk persistence.
type ScoredArticle struct {
	ArticleID int     `json:"article_id"`
	Score     float64 `json:"score"`
}

// UserRecommendation is one entry of a user's personalized list.
type UserRecommendation struct {
	ArticleID       int            `json:"article_id"`
	PredictedRating float64        `json:"predicted_rating"`
	Confidence      float64        `json:"confidence"`
	Methods         []string       `json:"methods"`
	Interpretation  string         `json:"interpretation"`
	Display         ArticleDisplay `json:"display"`
}

// Prediction is a single (user, article) rating estimate.
type Prediction struct {
	UserID         int                `json:"user_id"`
	ArticleID      int                `json:"article_id"`
	Rating         float64            `json:"predicted_rating"`
	Confidence     float64            `json:"confidence"`
	Methods        []string           `json:"methods"`
	Signals        map[string]float64 `json:"signals,omitempty"`
	Details        string             `json:"details"`
	Interpretation string             `json:"interpretation"`
}

// AuthorRecommendation links an article to another sharing authors.
type AuthorRecommendation struct {
	ArticleID     int            `json:"article_id"`
	Score         float64        `json:"score"`
	SharedAuthors []string       `json:"shared_authors"`
	Algorithm     string         `json:"algorithm"`
	Display       ArticleDisplay `json:"display"`
}

// RecentArticle is an entry of the recency surface.
type RecentArticle struct {
	ArticleID          int            `json:"article_id"`
	RecencyScore       float64        `json:"recency_score"`
	Category           string         `json:"category"`
	DaysSincePublished int            `json:"days_since_published"`
	Display            ArticleDisplay `json:"display"`
}

// ModelReadiness reports which sub-models were available in a cycle.
type ModelReadiness struct {
	Content       bool `json:"content"`
	Collaborative bool `json:"collaborative"`
	Segmentation  bool `json:"segmentation"`
	Popularity    bool `json:"popularity"`
}

// Count returns the number of ready sub-models.
func (r ModelReadiness) Count() int {
	n := 0
	for _, ok := range []bool{r.Content, r.Collaborative, r.Segmentation, r.Popularity} {
		if ok {
			n++
		}
	}
	return n
}
