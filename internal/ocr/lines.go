package ocr

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

var (
	reDateToken = regexp.MustCompile(`\d{4}\s*[-/.年]\s*\d{1,2}\s*[-/.月]\s*\d{1,2}日?`)

	// "name   ¥1,234" / "name 198" / "name 1234円", optional tax mark after.
	rePriceSpaced = regexp.MustCompile(`^(.+?)\s+([¥\\]?\s?\d[\d,]*(?:\.\d{1,2})?円?)\s*[*※軽外内]?$`)
	// "name¥198" with the currency sign acting as the separator.
	rePriceMarked = regexp.MustCompile(`^(.+?)([¥\\]\s?\d[\d,]*(?:\.\d{1,2})?円?)\s*[*※軽外内]?$`)
)

// summaryKeywords mark totals, tax and payment lines, which are not items.
var summaryKeywords = []string{
	"合計", "小計", "税", "お釣り", "お釣", "釣銭", "お預り", "お預かり", "預り",
	"total", "subtotal", "tax", "change", "cash",
}

// headerWords are titles printed above the store name.
var headerWords = []string{"領収書", "領収証", "レシート", "receipt"}

// ParseText splits normalized receipt text into raw lines. The first
// plausible header line becomes the store name and the first date found
// applies to every line.
func ParseText(txt string) []entity.RawReceiptLine {
	var (
		store string
		date  *string
		items [][2]string
	)
	for _, ln := range strings.Split(txt, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if m := reDateToken.FindString(ln); m != "" {
			if date == nil {
				d := m
				date = &d
			}
			continue
		}
		name, price, ok := splitPriceLine(ln)
		if ok {
			if !isSummary(ln) {
				items = append(items, [2]string{name, price})
			}
			continue
		}
		if store == "" && hasLetter(ln) && !isSummary(ln) && !isHeader(ln) {
			store = ln
		}
	}

	out := make([]entity.RawReceiptLine, 0, len(items))
	for _, it := range items {
		out = append(out, entity.RawReceiptLine{
			RawStoreName:    store,
			RawItemName:     it[0],
			RawPrice:        it[1],
			RawPurchaseDate: date,
		})
	}
	return out
}

func splitPriceLine(ln string) (name, price string, ok bool) {
	m := rePriceSpaced.FindStringSubmatch(ln)
	if m == nil {
		m = rePriceMarked.FindStringSubmatch(ln)
	}
	if m == nil {
		return "", "", false
	}
	name = strings.TrimSpace(m[1])
	if !hasLetter(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(m[2]), true
}

func isSummary(ln string) bool {
	l := strings.ToLower(ln)
	for _, k := range summaryKeywords {
		if strings.Contains(l, k) {
			return true
		}
	}
	return false
}

func isHeader(ln string) bool {
	l := strings.ToLower(ln)
	for _, k := range headerWords {
		if l == k {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
