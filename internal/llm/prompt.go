package llm

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/groceries-db/internal/ocr"
)

// MaxPromptRunes bounds how much OCR text goes into a prompt.
const MaxPromptRunes = 3000

func BuildSystemPrompt() string {
	return strings.Join([]string{
		"You read grocery receipts, usually Japanese, and list every purchased item.",
		`Return ONLY a JSON object {"lines": [...]} where each line has store_name, item_name, price and optionally purchase_date.`,
		"store_name is the shop printed at the top of the receipt and is the same on every line.",
		"price is the amount paid for that line exactly as printed, e.g. \"¥198\" or \"1,280円\".",
		"purchase_date is the receipt date exactly as printed, e.g. \"2026年10月01日\"; omit it if absent.",
		"Skip totals, subtotals, tax, points, payment and change lines.",
		"Never output null. If nothing was bought, return {\"lines\": []}.",
	}, " ")
}

func BuildUserPrompt(req ParseRequest) string {
	var b strings.Builder
	b.WriteString("OCR text")
	if ShouldAttachImage(req) {
		b.WriteString(" (low confidence, use the image when they disagree)")
	}
	b.WriteString(":\n")
	b.WriteString(Truncate(req.OCRText, MaxPromptRunes))
	return b.String()
}

// ShouldAttachImage reports whether the image should go along with the
// text: only when OCR was unsure of what it read.
func ShouldAttachImage(req ParseRequest) bool {
	return len(req.Image) > 0 && req.Confidence < ocr.ImageConfidenceThreshold
}

// DataURL encodes the image for a multimodal message.
func DataURL(req ParseRequest) string {
	ct := req.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(req.Image)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
