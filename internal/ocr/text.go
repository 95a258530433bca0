package ocr

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var (
	// box drawing and block characters tesseract emits for receipt borders
	reBoxNoise = regexp.MustCompile(`[\x{2500}-\x{259F}|]+`)
	reSpaces   = regexp.MustCompile(`[ \t\x{3000}]+`)
)

// Normalize folds full-width ASCII and half-width katakana, strips border
// noise, collapses runs of blanks and drops empty lines.
func Normalize(txt string) string {
	txt = strings.ReplaceAll(txt, "\r\n", "\n")
	txt = strings.ReplaceAll(txt, "\f", "\n")
	txt = width.Fold.String(txt)

	lines := strings.Split(txt, "\n")
	out := lines[:0]
	for _, ln := range lines {
		ln = reBoxNoise.ReplaceAllString(ln, " ")
		ln = strings.TrimSpace(reSpaces.ReplaceAllString(ln, " "))
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
