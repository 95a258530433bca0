package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	unbaseScale      = 0.95
	partialScale     = 0.9
	longPartialScale = 0.6
	partialLenRatio  = 1.5
	longLenRatio     = 8.0
)

// WRatio blends Ratio, token and partial scores depending on how different
// the two lengths are. It tolerates reordered tokens and one string being a
// fragment of the other. Either side empty scores 0.
func WRatio(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}

	lenRatio := float64(max(la, lb)) / float64(min(la, lb))
	best := Ratio(a, b)
	if lenRatio < partialLenRatio {
		return max(best, TokenRatio(a, b)*unbaseScale)
	}

	scale := partialScale
	if lenRatio >= longLenRatio {
		scale = longPartialScale
	}
	best = max(best, PartialRatio(a, b)*scale)
	return max(best, PartialTokenRatio(a, b)*unbaseScale*scale)
}

// LevenshteinRatio is 1 - distance/maxlen, scaled to 0..100.
func LevenshteinRatio(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(max(la, lb)))
}
