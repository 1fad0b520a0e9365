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
	"unicode"
	"unicode/utf8"
)

// ContentConfig controls TF-IDF vectorization of article analysis documents.
type ContentConfig struct {
	// NGramMin and NGramMax bound the n-gram sizes extracted from the token
	// stream (after stopword removal).
	NGramMin int
	NGramMax int

	// MaxFeatures caps the vocabulary to the most frequent terms in the corpus.
	MaxFeatures int

	// MinDF drops terms that appear in fewer documents than this.
	MinDF int

	// MaxDF drops terms that appear in more than this fraction of documents.
	MaxDF float64

	// Stopwords removed before n-gram construction. Nil means DefaultStopwords.
	Stopwords map[string]struct{}
}

// DefaultContentConfig returns the full vectorizer settings: 1-3 grams,
// 3000 features, min_df 2, max_df 0.85.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		NGramMin:    1,
		NGramMax:    3,
		MaxFeatures: 3000,
		MinDF:       2,
		MaxDF:       0.85,
	}
}

// LightContentConfig returns the lighter vectorizer used by the hybrid
// predictor on small corpora: 1-2 grams, 1000 features, min_df 1, max_df 0.8.
func LightContentConfig() ContentConfig {
	return ContentConfig{
		NGramMin:    1,
		NGramMax:    2,
		MaxFeatures: 1000,
		MinDF:       1,
		MaxDF:       0.8,
	}
}

// Validate checks the configuration for errors.
func (c ContentConfig) Validate() error {
	if c.NGramMin < 1 || c.NGramMax < c.NGramMin {
		return fmt.Errorf("content ngram range must satisfy 1 <= min <= max, got %d..%d", c.NGramMin, c.NGramMax)
	}
	if c.MaxFeatures < 1 {
		return fmt.Errorf("content max_features must be positive, got %d", c.MaxFeatures)
	}
	if c.MinDF < 1 {
		return fmt.Errorf("content min_df must be positive, got %d", c.MinDF)
	}
	if c.MaxDF <= 0 || c.MaxDF > 1 {
		return fmt.Errorf("content max_df must be in (0, 1], got %f", c.MaxDF)
	}
	return nil
}

// ContentModel holds the TF-IDF vocabulary and the dense cosine similarity
// matrix for one cycle's working article set. It is immutable once built.
type ContentModel struct {
	index *Index
	terms []string
	sim   [][]float64
}

// termWeight is one non-zero entry of a sparse TF-IDF row.
type termWeight struct {
	col    int
	weight float64
}

// BuildContentModel vectorizes docs (aligned with ids) and computes the
// pairwise cosine similarity matrix. Fewer than two documents, or a
// vocabulary that is empty after document-frequency pruning, yields an
// InsufficientDataError.
func BuildContentModel(ids []int, docs []string, cfg ContentConfig) (*ContentModel, error) {
	if len(ids) != len(docs) {
		return nil, fmt.Errorf("content: %d ids but %d documents", len(ids), len(docs))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := len(docs)
	if n < 2 {
		return nil, insufficient(ModelContent, "need at least 2 articles, got %d", n)
	}

	stopwords := cfg.Stopwords
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}

	counts := make([]map[string]int, n)
	docFreq := make(map[string]int)
	corpusFreq := make(map[string]int)

	for i, doc := range docs {
		tokens := removeStopwords(Tokenize(doc), stopwords)
		counts[i] = ngramCounts(tokens, cfg.NGramMin, cfg.NGramMax)
		for term, c := range counts[i] {
			docFreq[term]++
			corpusFreq[term] += c
		}
	}

	terms, err := selectVocabulary(docFreq, corpusFreq, n, cfg)
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for col, term := range terms {
		columns[term] = col
		idf[col] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	rows := make([][]termWeight, n)
	for i := range counts {
		rows[i] = tfidfRow(counts[i], columns, idf)
	}

	return &ContentModel{
		index: NewIndex(ids),
		terms: terms,
		sim:   cosineMatrix(rows),
	}, nil
}

// selectVocabulary applies min_df, max_df and max_features and returns the
// surviving terms in alphabetical (column) order.
func selectVocabulary(docFreq, corpusFreq map[string]int, n int, cfg ContentConfig) ([]string, error) {
	maxDocCount := cfg.MaxDF * float64(n)
	if maxDocCount < float64(cfg.MinDF) {
		return nil, insufficient(ModelContent,
			"max_df %.2f of %d documents is below min_df %d", cfg.MaxDF, n, cfg.MinDF)
	}

	kept := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= cfg.MinDF && float64(df) <= maxDocCount {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, insufficient(ModelContent, "no terms remain after document frequency pruning")
	}

	if len(kept) > cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if corpusFreq[kept[i]] != corpusFreq[kept[j]] {
				return corpusFreq[kept[i]] > corpusFreq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:cfg.MaxFeatures]
	}

	sort.Strings(kept)
	return kept, nil
}

// tfidfRow converts raw term counts into an L2-normalized sparse row.
func tfidfRow(counts map[string]int, columns map[string]int, idf []float64) []termWeight {
	row := make([]termWeight, 0, len(counts))
	for term, c := range counts {
		col, ok := columns[term]
		if !ok {
			continue
		}
		row = append(row, termWeight{col: col, weight: float64(c) * idf[col]})
	}
	sort.Slice(row, func(i, j int) bool { return row[i].col < row[j].col })

	var norm float64
	for _, tw := range row {
		norm += tw.weight * tw.weight
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range row {
			row[k].weight /= norm
		}
	}
	return row
}

// cosineMatrix computes the symmetric similarity matrix of L2-normalized
// rows. Each pair is computed once and mirrored; the diagonal is exactly 1.
func cosineMatrix(rows [][]termWeight) [][]float64 {
	n := len(rows)
	sim := newMatrix(n, n)
	for i := 0; i < n; i++ {
		sim[i][i] = 1
		for j := i + 1; j < n; j++ {
			s := clamp(sparseDot(rows[i], rows[j]), 0, 1)
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

// sparseDot merges two column-sorted rows.
func sparseDot(a, b []termWeight) float64 {
	var s float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].col == b[j].col:
			s += a[i].weight * b[j].weight
			i++
			j++
		case a[i].col < b[j].col:
			i++
		default:
			j++
		}
	}
	return s
}

// Tokenize lowercases text and returns maximal runs of word characters that
// consist only of Latin letters and are at least two letters long.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	tokens := make([]string, 0, len(text)/6)

	start := -1
	latin := true
	flush := func(end int) {
		if start >= 0 && latin && utf8.RuneCountInString(text[start:end]) >= 2 {
			tokens = append(tokens, text[start:end])
		}
		start = -1
		latin = true
	}

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			if !unicode.In(r, unicode.Latin) {
				latin = false
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func removeStopwords(tokens []string, stopwords map[string]struct{}) []string {
	out := tokens[:0]
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; !stop {
			out = append(out, tok)
		}
	}
	return out
}

// ngramCounts counts every n-gram of size minN..maxN in tokens.
func ngramCounts(tokens []string, minN, maxN int) map[string]int {
	counts := make(map[string]int, len(tokens)*(maxN-minN+1))
	for size := minN; size <= maxN; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			counts[strings.Join(tokens[i:i+size], " ")]++
		}
	}
	return counts
}

// Index returns the article index backing the matrix rows.
func (m *ContentModel) Index() *Index {
	return m.index
}

// VocabularySize returns the number of TF-IDF features.
func (m *ContentModel) VocabularySize() int {
	return len(m.terms)
}

// Terms returns a copy of the vocabulary in column order.
func (m *ContentModel) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Similarity returns the cosine similarity between two article IDs.
func (m *ContentModel) Similarity(a, b int) (float64, bool) {
	i, ok := m.index.Pos(a)
	if !ok {
		return 0, false
	}
	j, ok := m.index.Pos(b)
	if !ok {
		return 0, false
	}
	return m.sim[i][j], true
}

// SimilarityAt returns the similarity between two matrix positions.
func (m *ContentModel) SimilarityAt(i, j int) float64 {
	return m.sim[i][j]
}

// MostSimilar returns up to n other articles whose similarity to id is
// strictly greater than threshold, best first. A non-positive n means no limit.
func (m *ContentModel) MostSimilar(id, n int, threshold float64) []Scored {
	i, ok := m.index.Pos(id)
	if !ok {
		return nil
	}

	out := make([]Scored, 0, 16)
	for j, s := range m.sim[i] {
		if j == i || s <= threshold {
			continue
		}
		out = append(out, Scored{ID: m.index.ID(j), Score: s})
	}
	sortScored(out)

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Pairs returns, for every article, the other articles with similarity at
// least minThreshold, best first.
func (m *ContentModel) Pairs(minThreshold float64) map[int][]Scored {
	out := make(map[int][]Scored, m.index.Len())
	for i := range m.sim {
		var row []Scored
		for j, s := range m.sim[i] {
			if j == i || s < minThreshold {
				continue
			}
			row = append(row, Scored{ID: m.index.ID(j), Score: s})
		}
		sortScored(row)
		out[m.index.ID(i)] = row
	}
	return out
}

// Matrix returns a deep copy of the similarity matrix.
func (m *ContentModel) Matrix() [][]float64 {
	n := len(m.sim)
	out := newMatrix(n, n)
	for i := range m.sim {
		copy(out[i], m.sim[i])
	}
	return out
}

// MatrixReport summarizes structural checks and off-diagonal statistics of a
// similarity matrix.
type MatrixReport struct {
	Size           int     `json:"size"`
	Symmetric      bool    `json:"symmetric"`
	DiagonalOnes   bool    `json:"diagonal_ones"`
	InRange        bool    `json:"in_range"`
	Valid          bool    `json:"valid"`
	MeanSimilarity float64 `json:"mean_similarity"`
	StdSimilarity  float64 `json:"std_similarity"`
	MaxSimilarity  float64 `json:"max_similarity"`
	MinSimilarity  float64 `json:"min_similarity"`
}

// Validate checks symmetry (1e-9), unit diagonal (1e-6) and the [0,1] range,
// and computes statistics over the upper off-diagonal triangle.
func (m *ContentModel) Validate() MatrixReport {
	n := len(m.sim)
	report := MatrixReport{Size: n, Symmetric: true, DiagonalOnes: true, InRange: true}

	var sum, sumSq float64
	count := 0
	report.MinSimilarity = math.Inf(1)
	report.MaxSimilarity = math.Inf(-1)

	for i := 0; i < n; i++ {
		if math.Abs(m.sim[i][i]-1) > 1e-6 {
			report.DiagonalOnes = false
		}
		for j := 0; j < n; j++ {
			s := m.sim[i][j]
			if s < 0 || s > 1 {
				report.InRange = false
			}
			if j <= i {
				continue
			}
			if math.Abs(s-m.sim[j][i]) > 1e-9 {
				report.Symmetric = false
			}
			sum += s
			sumSq += s * s
			count++
			report.MaxSimilarity = math.Max(report.MaxSimilarity, s)
			report.MinSimilarity = math.Min(report.MinSimilarity, s)
		}
	}

	if count > 0 {
		mean := sum / float64(count)
		report.MeanSimilarity = mean
		report.StdSimilarity = math.Sqrt(math.Max(0, sumSq/float64(count)-mean*mean))
	} else {
		report.MinSimilarity, report.MaxSimilarity = 0, 0
	}

	report.Valid = report.Symmetric && report.DiagonalOnes && report.InRange
	return report
}
