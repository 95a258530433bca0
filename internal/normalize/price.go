package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

var currencyMarkers = []string{"¥", `\`, "$", "€", "£"}

// Price parses an OCR price into a non-negative amount.
//
// After removing one currency marker, a trailing 円/yen and thousands commas,
// every rune other than a digit, '.', '+' or '-' is replaced by '0' in place
// rather than dropped, so "12A" reads as 120. Anything that still fails to
// parse is 0, and negative amounts clamp to 0.
func (n *Normalizer) Price(raw string) decimal.Decimal {
	s := strings.TrimSpace(width.Fold.String(raw))
	for _, m := range currencyMarkers {
		if strings.HasPrefix(s, m) {
			s = strings.TrimPrefix(s, m)
			break
		}
	}
	s = trimYenSuffix(s)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '+', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('0')
		}
	}

	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func trimYenSuffix(s string) string {
	if strings.HasSuffix(s, "円") {
		return strings.TrimSuffix(s, "円")
	}
	if len(s) >= 3 && strings.EqualFold(s[len(s)-3:], "yen") {
		return s[:len(s)-3]
	}
	return s
}
