// Package llm asks a chat model for receipt lines when OCR text alone does
// not yield any.
package llm

import (
	"context"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

// ParseRequest carries the OCR output and, optionally, the image it came from.
type ParseRequest struct {
	OCRText     string
	Confidence  float32 // OCR confidence, 0..1
	ContentType string
	Image       []byte
}

// LineParser is implemented by model clients.
type LineParser interface {
	ParseLines(ctx context.Context, req ParseRequest) ([]entity.RawReceiptLine, error)
}
