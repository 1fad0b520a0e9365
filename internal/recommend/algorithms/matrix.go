// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

// Entry is one observed (user, article) rating fed to the matrix builder.
type Entry struct {
	User    int
	Article int
	Rating  float64
	Views   int
}

// InteractionMatrix is a dense users x articles rating matrix. Unobserved
// cells are 0; observed ratings are in [1,5].
type InteractionMatrix struct {
	users    *Index
	articles *Index
	ratings  [][]float64
	views    [][]int
	observed int
}

// BuildInteractionMatrix lays out entries on the given user and article
// axes. Entries that reference IDs outside the axes are ignored; a later
// entry for the same cell replaces an earlier one. Either axis being empty
// yields an InsufficientDataError. Non-positive ratings are ignored.
func BuildInteractionMatrix(userIDs, articleIDs []int, entries []Entry) (*InteractionMatrix, error) {
	users := NewIndex(userIDs)
	articles := NewIndex(articleIDs)

	if users.Len() == 0 || articles.Len() == 0 {
		return nil, insufficient(ModelMatrix, "matrix shape %dx%d", users.Len(), articles.Len())
	}

	m := &InteractionMatrix{
		users:    users,
		articles: articles,
		ratings:  newMatrix(users.Len(), articles.Len()),
		views:    make([][]int, users.Len()),
	}
	for u := range m.views {
		m.views[u] = make([]int, articles.Len())
	}

	for _, e := range entries {
		if e.Rating <= 0 {
			continue
		}
		u, ok := users.Pos(e.User)
		if !ok {
			continue
		}
		a, ok := articles.Pos(e.Article)
		if !ok {
			continue
		}
		if m.ratings[u][a] == 0 {
			m.observed++
		}
		m.ratings[u][a] = clamp(e.Rating, 1, 5)
		m.views[u][a] = e.Views
	}

	return m, nil
}

// Users returns the user axis.
func (m *InteractionMatrix) Users() *Index { return m.users }

// Articles returns the article axis.
func (m *InteractionMatrix) Articles() *Index { return m.articles }

// Shape returns (users, articles).
func (m *InteractionMatrix) Shape() (int, int) {
	return m.users.Len(), m.articles.Len()
}

// Rating returns the rating at (u, a) positions, 0 when unobserved.
func (m *InteractionMatrix) Rating(u, a int) float64 {
	return m.ratings[u][a]
}

// Views returns the recorded view count at (u, a) positions.
func (m *InteractionMatrix) Views(u, a int) int {
	return m.views[u][a]
}

// Row returns the user's rating row. Callers must not modify it.
func (m *InteractionMatrix) Row(u int) []float64 {
	return m.ratings[u]
}

// Rated returns the article positions the user has rated, in axis order.
func (m *InteractionMatrix) Rated(u int) []int {
	var out []int
	for a, r := range m.ratings[u] {
		if r > 0 {
			out = append(out, a)
		}
	}
	return out
}

// Observed returns the number of non-zero cells.
func (m *InteractionMatrix) Observed() int {
	return m.observed
}

// Sparsity returns the fraction of unobserved cells.
func (m *InteractionMatrix) Sparsity() float64 {
	u, a := m.Shape()
	return 1 - float64(m.observed)/float64(u*a)
}

// Dense returns a deep copy of the rating matrix.
func (m *InteractionMatrix) Dense() [][]float64 {
	u, a := m.Shape()
	out := newMatrix(u, a)
	for i := range m.ratings {
		copy(out[i], m.ratings[i])
	}
	return out
}
