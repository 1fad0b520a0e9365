// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package textnorm

import (
	"reflect"
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
		{"plain text collapsed", "  Machine   learning\nin  health ", "Machine learning in health"},
		{"tags become spaces", "<p>Hello</p><p>World</p>", "Hello World"},
		{"inline markup", "Deep <i>learning</i> models", "Deep learning models"},
		{"entities decoded", "Salud &amp; educaci&oacute;n", "Salud & educación"},
		{"numeric entity", "caf&#233;", "café"},
		{"line break tag", "first<br/>second", "first second"},
		{"script dropped", "text<script>alert(1)</script>more", "text more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.raw); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "Ana Pérez", []string{"Ana Pérez"}},
		{"dedupe keeps order", "Ana Pérez; Luis Gómez; Ana Pérez", []string{"Ana Pérez", "Luis Gómez"}},
		{"placeholder removed", "Autor desconocido; Luis Gómez", []string{"Luis Gómez"}},
		{"english placeholder", "Unknown Author;Maria Silva", []string{"Maria Silva"}},
		{"short and empty entries dropped", " ; ; J ;Jo; Maria Silva", []string{"Maria Silva"}},
		{"markup stripped", "<b>Ana</b> Pérez", []string{"Ana Pérez"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitAuthors(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitAuthors(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanAuthors(t *testing.T) {
	got := CleanAuthors("Ana Pérez;Luis Gómez; Ana Pérez;autor desconocido")
	want := "Ana Pérez; Luis Gómez"
	if got != want {
		t.Errorf("CleanAuthors() = %q, want %q", got, want)
	}
}

func TestAnalysisDocument(t *testing.T) {
	t.Run("title weighted three times", func(t *testing.T) {
		doc := AnalysisDocument("Neural Networks", "", "", "")
		if got := strings.Count(doc, "neural networks"); got != 3 {
			t.Errorf("title occurrences = %d, want 3 (doc %q)", got, doc)
		}
	})

	t.Run("long sentences weighted twice and short ones dropped", func(t *testing.T) {
		abstract := "We study protein folding. Short one. Results are promising!"
		doc := AnalysisDocument("T", abstract, "", "")
		if got := strings.Count(doc, "we study protein folding"); got != 2 {
			t.Errorf("long sentence occurrences = %d, want 2", got)
		}
		if strings.Contains(doc, "short one") {
			t.Errorf("short sentence should be dropped, doc %q", doc)
		}
		if got := strings.Count(doc, "results are promising"); got != 2 {
			t.Errorf("second sentence occurrences = %d, want 2", got)
		}
	})

	t.Run("authors and affiliations once, lowercased, punctuation removed", func(t *testing.T) {
		doc := AnalysisDocument("Título", "", "Ana Pérez; Luis Gómez", "Universidad Nacional")
		if !strings.Contains(doc, "ana pérez luis gómez") {
			t.Errorf("authors missing from %q", doc)
		}
		if strings.Count(doc, "universidad nacional") != 1 {
			t.Errorf("affiliations should appear once in %q", doc)
		}
		if strings.ContainsAny(doc, ";.!?") {
			t.Errorf("punctuation left in %q", doc)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := AnalysisDocument("", "", "", ""); got != "" {
			t.Errorf("AnalysisDocument() = %q, want empty", got)
		}
	})
}

func TestSnippet(t *testing.T) {
	if got := Snippet("short", 10); got != "short" {
		t.Errorf("Snippet() = %q, want %q", got, "short")
	}
	if got := Snippet("educación", 4); got != "educ..." {
		t.Errorf("Snippet() = %q, want %q", got, "educ...")
	}
}
