// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"math"
	"sort"
)

// Homepage surface names.
const (
	SurfaceRecent   = "recent"
	SurfaceFeatured = "featured"
	SurfacePopular  = "popular"
	SurfaceTrending = "trending"
)

// HomepageSurfaces lists the surfaces in presentation order.
var HomepageSurfaces = []string{SurfaceRecent, SurfaceFeatured, SurfacePopular, SurfaceTrending}

// IsHomepageSurface reports whether name is a known homepage surface.
func IsHomepageSurface(name string) bool {
	for _, s := range HomepageSurfaces {
		if s == name {
			return true
		}
	}
	return false
}

// HomepageEntry is one ranked article of a homepage surface.
type HomepageEntry struct {
	ArticleID int            `json:"article_id"`
	Rank      int            `json:"rank"`
	Score     float64        `json:"score"`
	Display   ArticleDisplay `json:"display"`
}

// TargetStat counts how often an article appears in other articles'
// similar lists and its mean similarity there.
type TargetStat struct {
	ArticleID int     `json:"article_id"`
	Count     int     `json:"recommendation_count"`
	MeanScore float64 `json:"mean_score"`
}

// TargetStats aggregates similar-article lists by target article.
func TargetStats(similar map[int][]SimilarArticle) map[int]TargetStat {
	sums := make(map[int]float64)
	stats := make(map[int]TargetStat)
	for _, list := range similar {
		for _, s := range list {
			st := stats[s.ArticleID]
			st.ArticleID = s.ArticleID
			st.Count++
			stats[s.ArticleID] = st
			sums[s.ArticleID] += s.Score
		}
	}
	for id, st := range stats {
		st.MeanScore = sums[id] / float64(st.Count)
		stats[id] = st
	}
	return stats
}

// homepage computes the four homepage surfaces from the cycle's similar lists.
func (c *Cycle) homepage(similar map[int][]SimilarArticle) map[string][]HomepageEntry {
	sc := c.cfg.Surfaces
	stats := TargetStats(similar)

	out := map[string][]HomepageEntry{
		SurfaceRecent: c.recentHomepage(sc.Recent),
	}

	var featured, popular, trending []HomepageEntry
	for id, st := range stats {
		a, ok := c.Article(id)
		if !ok {
			continue
		}
		count := float64(st.Count)

		if st.Count >= 2 {
			featured = append(featured, HomepageEntry{ArticleID: id, Score: count*0.7 + st.MeanScore*0.3})
		}

		freshness := math.Max(0, 180-float64(a.DaysSincePublished)) / 180
		popular = append(popular, HomepageEntry{ArticleID: id, Score: count*0.6 + st.MeanScore*0.3 + freshness*0.1})

		trending = append(trending, HomepageEntry{ArticleID: id, Score: count*0.8 + trendingBonus(a)})
	}

	out[SurfaceFeatured] = c.rankHomepage(featured, sc.Featured)
	out[SurfacePopular] = c.rankHomepage(popular, sc.Popular)
	out[SurfaceTrending] = c.rankHomepage(trending, sc.Trending)
	return out
}

func trendingBonus(a *Article) float64 {
	switch {
	case !a.Dated():
		return 0.1
	case a.DaysSincePublished <= 14:
		return 0.2
	case a.DaysSincePublished <= 30:
		return 0.15
	default:
		return 0.05
	}
}

// recentHomepage takes the newest n articles, undated last, newer IDs first
// on equal dates.
func (c *Cycle) recentHomepage(n int) []HomepageEntry {
	idx := make([]int, len(c.articles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := &c.articles[idx[i]], &c.articles[idx[j]]
		if a.Dated() != b.Dated() {
			return a.Dated()
		}
		if a.Dated() && !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return a.ID > b.ID
	})
	if len(idx) > n {
		idx = idx[:n]
	}

	out := make([]HomepageEntry, len(idx))
	for rank, i := range idx {
		a := &c.articles[i]
		out[rank] = HomepageEntry{
			ArticleID: a.ID,
			Rank:      rank + 1,
			Score:     homepageRecency(a),
			Display:   c.display(a),
		}
	}
	return out
}

func homepageRecency(a *Article) float64 {
	switch {
	case !a.Dated():
		return 0.3
	case a.DaysSincePublished <= 7:
		return 1.0
	case a.DaysSincePublished <= 30:
		return 0.8
	case a.DaysSincePublished <= 90:
		return 0.6
	default:
		return 0.4
	}
}

// rankHomepage sorts by score descending (ID ascending on ties), truncates
// to n and assigns ranks from 1.
func (c *Cycle) rankHomepage(entries []HomepageEntry, n int) []HomepageEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ArticleID < entries[j].ArticleID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
		a, _ := c.Article(entries[i].ArticleID)
		entries[i].Display = c.display(a)
	}
	if entries == nil {
		return []HomepageEntry{}
	}
	return entries
}
