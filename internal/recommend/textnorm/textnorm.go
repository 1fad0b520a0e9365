// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package textnorm cleans raw bibliographic text coming out of the journal
// database and builds the weighted analysis document used for vectorization.
//
// All functions are pure and never fail: nil-like or empty input yields an
// empty string.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Weighting applied by AnalysisDocument through literal repetition.
const (
	TitleWeight    = 3
	SentenceWeight = 2

	// MinSentenceLength is the shortest abstract sentence (in runes, after
	// trimming) kept in the analysis document.
	MinSentenceLength = 11

	// MinAuthorLength is the shortest author entry kept by CleanAuthors.
	MinAuthorLength = 3
)

// authorPlaceholders are entries the journal database uses for missing names.
var authorPlaceholders = map[string]struct{}{
	"unknown author":    {},
	"autor desconocido": {},
	"anonymous":         {},
	"anónimo":           {},
}

// CleanText decodes HTML entities, removes markup (each tag becomes a space)
// and collapses internal whitespace.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return collapse(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapse(raw)
	}

	var b strings.Builder
	b.Grow(len(raw))
	writeText(doc.Selection, &b)
	return collapse(b.String())
}

// writeText appends every text node below sel, separating elements with a space.
func writeText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "#text":
			b.WriteString(s.Text())
		case "script", "style", "#comment":
			return
		default:
			writeText(s, b)
		}
		b.WriteByte(' ')
	})
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SplitAuthors cleans a semicolon-delimited author string and returns the
// de-duplicated, order-preserving list of display names.
func SplitAuthors(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ";")
	seen := make(map[string]struct{}, len(parts))
	authors := make([]string, 0, len(parts))

	for _, part := range parts {
		name := CleanText(part)
		if utf8.RuneCountInString(name) < MinAuthorLength {
			continue
		}
		if _, ok := authorPlaceholders[strings.ToLower(name)]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		authors = append(authors, name)
	}

	return authors
}

// CleanAuthors is SplitAuthors joined back with "; ".
func CleanAuthors(raw string) string {
	return strings.Join(SplitAuthors(raw), "; ")
}

// Sentences splits text on runs of '.', '!' and '?' and returns the trimmed
// non-empty pieces.
func Sentences(text string) []string {
	pieces := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	out := pieces[:0]
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AnalysisDocument builds the document that is vectorized for an article:
// the title three times, every abstract sentence longer than ten characters
// twice, then authors and affiliations once. The result is lowercased with
// punctuation replaced by spaces.
func AnalysisDocument(title, abstract, authors, affiliations string) string {
	parts := make([]string, 0, 8)

	if title != "" {
		for i := 0; i < TitleWeight; i++ {
			parts = append(parts, title)
		}
	}

	for _, sentence := range Sentences(abstract) {
		if utf8.RuneCountInString(sentence) < MinSentenceLength {
			continue
		}
		for i := 0; i < SentenceWeight; i++ {
			parts = append(parts, sentence)
		}
	}

	if authors != "" {
		parts = append(parts, authors)
	}
	if affiliations != "" {
		parts = append(parts, affiliations)
	}

	return normalizeForAnalysis(strings.Join(parts, " "))
}

// normalizeForAnalysis lowercases s and replaces anything that is not a
// letter, digit or whitespace with a space.
func normalizeForAnalysis(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return collapse(mapped)
}

// Snippet truncates s to at most n runes, appending "..." when it was cut.
func Snippet(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
