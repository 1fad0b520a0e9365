// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/lectern/internal/recommend/textnorm"
)

// Defaults used when source dates are missing.
const (
	DefaultDaysSincePublished = 365
	DefaultRegistrationDays   = 365
	DefaultLastLoginDays      = 30
)

// UntitledPlaceholder is the title the source store uses for articles
// without a resolvable title. Such articles are excluded.
const UntitledPlaceholder = "Sin título"

// NormalizeArticles cleans raw articles into the working set, sorted by ID.
// Articles without a title are dropped, as are duplicate IDs after the first.
func NormalizeArticles(raw []RawArticle, now time.Time) []Article {
	out := make([]Article, 0, len(raw))
	seen := make(map[int]struct{}, len(raw))

	for i := range raw {
		r := &raw[i]
		if _, dup := seen[r.ID]; dup {
			continue
		}

		title := textnorm.CleanText(r.Title)
		if title == "" || title == UntitledPlaceholder {
			continue
		}
		seen[r.ID] = struct{}{}

		abstract := textnorm.CleanText(r.Abstract)
		authors := textnorm.SplitAuthors(r.Authors)
		affiliations := textnorm.CleanText(r.Affiliations)

		a := Article{
			ID:                 r.ID,
			SubmissionID:       r.SubmissionID,
			Title:              title,
			Abstract:           abstract,
			Authors:            authors,
			Affiliations:       affiliations,
			PublishedAt:        r.PublishedAt,
			DaysSincePublished: daysSince(r.PublishedAt, now, DefaultDaysSincePublished),
		}
		a.Document = textnorm.AnalysisDocument(title, abstract, a.AuthorList(), affiliations)
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NormalizeUsers derives activity level and user type, sorted by ID.
func NormalizeUsers(raw []RawUser, now time.Time) []User {
	out := make([]User, 0, len(raw))
	seen := make(map[int]struct{}, len(raw))

	for i := range raw {
		r := &raw[i]
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}

		sessions := r.SessionCount
		if sessions < 0 {
			sessions = 0
		}
		lastLogin := daysSince(r.LastLoginAt, now, DefaultLastLoginDays)
		activity := ActivityLevel(sessions, lastLogin)

		out = append(out, User{
			ID:               r.ID,
			RegistrationDays: daysSince(r.RegisteredAt, now, DefaultRegistrationDays),
			LastLoginDays:    lastLogin,
			SessionCount:     sessions,
			ActivityLevel:    activity,
			Type:             ClassifyUser(activity, sessions),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActivityLevel averages a session score (sessions/10, capped at 1) and a
// login recency score that decays to 0 over 30 days.
func ActivityLevel(sessions, lastLoginDays int) float64 {
	sessionScore := math.Min(float64(sessions)/10, 1)
	recency := math.Max(0, 1-float64(lastLoginDays)/30)
	return (sessionScore + recency) / 2
}

// ClassifyUser buckets a user: power above .7 activity with more than five
// sessions, regular above .4, casual otherwise.
func ClassifyUser(activity float64, sessions int) UserType {
	switch {
	case activity > 0.7 && sessions > 5:
		return UserTypePower
	case activity > 0.4:
		return UserTypeRegular
	default:
		return UserTypeCasual
	}
}

// daysSince returns whole days between t and now, or def when t is nil.
// Future dates count as 0.
func daysSince(t *time.Time, now time.Time, def int) int {
	if t == nil || t.IsZero() {
		return def
	}
	d := int(now.Sub(*t).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
