package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/groceries-db/internal/llm"
	"github.com/joseph-ayodele/groceries-db/internal/ocr"
)

// ImageExtractor is the part of ocr.Extractor the adapter needs.
type ImageExtractor interface {
	ExtractBytes(ctx context.Context, contentType string, data []byte) (ocr.ExtractionResult, error)
}

// OCRAdapter runs tesseract on an image and parses the text into lines.
type OCRAdapter struct {
	e        ImageExtractor
	fallback llm.LineParser
	logger   *slog.Logger
}

func NewOCRAdapter(e ImageExtractor, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

// WithFallback sets a parser used when the text heuristics find no lines.
func (a *OCRAdapter) WithFallback(p llm.LineParser) *OCRAdapter {
	a.fallback = p
	return a
}

func (a *OCRAdapter) ExtractLines(ctx context.Context, contentType string, data []byte) (LinesResult, error) {
	r, err := a.e.ExtractBytes(ctx, contentType, data)
	if err != nil {
		return LinesResult{Warnings: r.Warnings, Duration: r.Duration}, err
	}
	lines := ocr.ParseText(r.Text)
	a.logger.Debug("extract.ocr.parsed", "lines", len(lines), "cached", r.Cached)
	method := r.Method
	if len(lines) == 0 && a.fallback != nil && strings.TrimSpace(r.Text) != "" {
		parsed, err := a.fallback.ParseLines(ctx, llm.ParseRequest{
			OCRText:     r.Text,
			Confidence:  r.Confidence,
			ContentType: contentType,
			Image:       data,
		})
		if err != nil {
			a.logger.Warn("extract.fallback.failed", "error", err)
			r.Warnings = append(r.Warnings, "line fallback failed: "+err.Error())
		} else {
			lines, method = parsed, MethodFallback
		}
	}
	return LinesResult{
		Lines:      lines,
		Text:       r.Text,
		Method:     method,
		Confidence: r.Confidence,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
	}, nil
}

// EngineAdapter decodes line lists an external OCR engine already produced.
type EngineAdapter struct {
	logger *slog.Logger
}

func NewEngineAdapter(logger *slog.Logger) *EngineAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EngineAdapter{logger: logger}
}

func (a *EngineAdapter) ExtractLines(_ context.Context, _ string, data []byte) (LinesResult, error) {
	start := time.Now()
	lines, err := ocr.DecodeEngineLines(data, a.logger)
	if err != nil {
		return LinesResult{Duration: time.Since(start)}, err
	}
	return LinesResult{
		Lines:      lines,
		Method:     "engine-json",
		Confidence: 1,
		Duration:   time.Since(start),
	}, nil
}

// Router sends engine JSON to Engine and everything else to Image.
type Router struct {
	Image  LineExtractor
	Engine LineExtractor
}

func (r Router) ExtractLines(ctx context.Context, contentType string, data []byte) (LinesResult, error) {
	ct, _, _ := strings.Cut(contentType, ";")
	if strings.EqualFold(strings.TrimSpace(ct), ContentTypeEngineJSON) && r.Engine != nil {
		return r.Engine.ExtractLines(ctx, contentType, data)
	}
	return r.Image.ExtractLines(ctx, contentType, data)
}
