// Package extract turns a receipt payload into raw receipt lines.
package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

// ContentTypeEngineJSON marks a line list produced by an external OCR engine.
const ContentTypeEngineJSON = "application/json"

// MethodFallback marks lines recovered by the llm fallback.
const MethodFallback = "llm"

// LineExtractor is stage 1: payload -> raw lines.
type LineExtractor interface {
	ExtractLines(ctx context.Context, contentType string, data []byte) (LinesResult, error)
}

type LinesResult struct {
	Lines      []entity.RawReceiptLine
	Text       string // OCR text the lines were parsed from, empty for engine JSON
	Method     string // "image-ocr" | "cache" | "engine-json" | "llm"
	Confidence float32
	Duration   time.Duration
	Warnings   []string
}
