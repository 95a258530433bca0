package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\d{4}\s*[-/.年]\s*\d{1,2}\s*[-/.月]\s*\d{1,2}`)
	reCurr   = regexp.MustCompile(`[¥￥円$€£]|\b(jpy|yen|usd|eur)\b`)
	reAmount = regexp.MustCompile(`\d{1,3}(,\d{3})+|\b\d+\.\d{2}\b|\d+円`)
	reTotal  = regexp.MustCompile(`合計|小計|total`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// heuristicConfidence scores text by the receipt artifacts it contains.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if reTotal.MatchString(txtL) {
		score += 0.1
	}
	if len([]rune(txt)) > 60 {
		score += 0.1
	}
	return min(score, 1.0)
}
