// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

// Popularity ranks articles by engagement across all users:
//
//	raw(article) = sum over users of views * rating / 5
//	score(article) = raw / max(raw)
//
// Articles nobody interacted with have no score.
type Popularity struct {
	articles *Index
	scores   []float64
	known    []bool
}

// NeutralRating is returned by Rating for articles without popularity.
const NeutralRating = 2.5

// BuildPopularity computes max-normalized popularity from the matrix.
func BuildPopularity(m *InteractionMatrix) *Popularity {
	users, articles := m.Shape()
	p := &Popularity{
		articles: m.Articles(),
		scores:   make([]float64, articles),
		known:    make([]bool, articles),
	}

	var maxRaw float64
	for a := 0; a < articles; a++ {
		var raw float64
		for u := 0; u < users; u++ {
			r := m.Rating(u, a)
			if r == 0 {
				continue
			}
			raw += float64(m.Views(u, a)) * r / 5
			p.known[a] = true
		}
		p.scores[a] = raw
		if raw > maxRaw {
			maxRaw = raw
		}
	}

	for a := range p.scores {
		if maxRaw > 0 {
			p.scores[a] /= maxRaw
		} else {
			p.scores[a] = 0
		}
	}
	return p
}

// Score returns the normalized popularity at article position a.
func (p *Popularity) Score(a int) (float64, bool) {
	if a < 0 || a >= len(p.scores) || !p.known[a] {
		return 0, false
	}
	return p.scores[a], true
}

// Rating maps popularity linearly into [2, 5]; articles without popularity
// get NeutralRating.
func (p *Popularity) Rating(a int) float64 {
	s, ok := p.Score(a)
	if !ok {
		return NeutralRating
	}
	return 2 + 3*s
}

// Top returns up to n article IDs by popularity, best first.
func (p *Popularity) Top(n int) []Scored {
	out := make([]Scored, 0, len(p.scores))
	for a, s := range p.scores {
		if p.known[a] {
			out = append(out, Scored{ID: p.articles.ID(a), Score: s})
		}
	}
	sortScored(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
