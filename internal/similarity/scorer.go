// Package similarity scores how alike two strings are on a 0..100 scale.
//
// All scorers work on runes, so multi-byte text (Japanese receipts) is
// compared character by character rather than byte by byte.
package similarity

import (
	"fmt"
	"strings"
)

// Scorer compares two strings and returns a score in [0, 100].
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

const (
	NameWeighted    = "wratio"
	NameLevenshtein = "levenshtein"
)

// Default is the scorer used when none is configured.
var Default Scorer = ScorerFunc(WRatio)

// ByName returns the scorer registered under name. Empty selects Default.
func ByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameWeighted:
		return Default, nil
	case NameLevenshtein:
		return ScorerFunc(LevenshteinRatio), nil
	default:
		return nil, fmt.Errorf("unknown similarity scorer %q", name)
	}
}
