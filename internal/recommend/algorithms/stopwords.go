// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

// academicStopwords covers basic Spanish and English function words plus
// academic boilerplate that does not discriminate between articles.
var academicStopwords = []string{
	// Spanish
	"el", "la", "de", "que", "y", "a", "en", "un", "es", "se", "no", "te", "lo", "le",
	"su", "por", "son", "con", "para", "como", "las", "del", "los", "una", "al", "pero",
	"sus", "ya", "o", "fue", "este", "ha", "si", "porque", "esta", "entre", "cuando",
	"muy", "sin", "sobre", "también", "me", "hasta", "hay", "donde", "quien", "desde",
	"todos", "durante", "antes", "después", "más", "menos", "otro", "otra", "otros",
	"hacia", "bajo", "según", "mientras", "aunque", "sino", "cada", "tanto",

	// English
	"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
	"an", "be", "this", "that", "are", "was", "were", "been", "have", "has", "had",
	"do", "does", "did", "will", "would", "could", "should", "may", "might", "must",
	"through", "during", "before", "after", "above", "below", "between", "among",

	// Academic terms
	"research", "study", "analysis", "method", "results", "conclusion", "abstract",
	"investigación", "estudio", "análisis", "método", "resultados", "conclusión",
	"revista", "journal", "article", "paper", "artículo", "trabajo", "presenta",
	"propone", "desarrolla", "establece", "mediante", "través",
	"introducción", "introduction", "metodología", "methodology", "discusión",
	"discussion", "referencias", "references", "conclusiones", "conclusions",
}

// DefaultStopwords returns a fresh set built from the academic stopword list.
func DefaultStopwords() map[string]struct{} {
	set := make(map[string]struct{}, len(academicStopwords))
	for _, w := range academicStopwords {
		set[w] = struct{}{}
	}
	return set
}
