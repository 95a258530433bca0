// Package ocr turns receipt images into text and text into raw receipt lines.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/groceries-db/constants"
)

// ErrUnsupportedType is returned for anything other than a JPEG or PNG image.
var ErrUnsupportedType = errors.New("unsupported receipt image type")

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language    string // default "jpn+eng"
	TessdataDir string

	PSM int // 6 = uniform block of text, suits receipts
	OEM int // 1 = LSTM; leave 0 to use default

	Timeout             time.Duration // per image; 0 = no limit
	EnableTSVConfidence bool
}

type ExtractionResult struct {
	Text       string
	Method     string // "image-ocr" | "cache"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Cached     bool
}

type Extractor struct {
	cfg    Config
	runner Runner
	cache  *Cache
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the exec runner, mostly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithCache stores extracted text keyed by image content.
func WithCache(c *Cache) Option {
	return func(e *Extractor) { e.cache = c }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "jpn+eng"
	}
	e := &Extractor{cfg: cfg, runner: tesseractRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract reads an image file and extracts its text.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	ct := constants.ContentTypeForExt(filepath.Ext(path))
	if ct == "" {
		e.logger.Error("unsupported ocr extension", "path", path)
		return ExtractionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("read image: %w", err)
	}
	return e.ExtractBytes(ctx, ct, data)
}

// ExtractBytes extracts text from an in-memory JPEG or PNG. Results are
// served from the cache when one is configured.
func (e *Extractor) ExtractBytes(ctx context.Context, contentType string, data []byte) (ExtractionResult, error) {
	start := time.Now()
	if !constants.IsAllowedContentType(contentType) {
		return ExtractionResult{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	if len(data) == 0 {
		return ExtractionResult{}, errors.New("empty image")
	}

	key := ContentKey(data, e.cfg.Language)
	if e.cache != nil {
		if txt, ok := e.cache.Get(key); ok {
			e.logger.Debug("ocr.cache.hit", "key", key[:12], "chars", len(txt))
			return ExtractionResult{
				Text:       txt,
				Method:     "cache",
				Language:   e.cfg.Language,
				Duration:   time.Since(start),
				Confidence: heuristicConfidence(txt),
				Cached:     true,
			}, nil
		}
	}

	tmp, err := os.CreateTemp("", "groceries-ocr-*."+constants.ExtForContentType(contentType))
	if err != nil {
		return ExtractionResult{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return ExtractionResult{}, fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ExtractionResult{}, err
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	e.logger.Debug("starting ocr extraction", "bytes", len(data), "content_type", contentType, "lang", e.cfg.Language)
	res, err := e.extractImage(ctx, tmp.Name())
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	if e.cache != nil {
		if err := e.cache.Put(key, res.Text); err != nil {
			e.logger.Warn("ocr.cache.put_failed", "error", err)
		}
	}
	e.logger.Info("ocr.extract.ok", "chars", len(res.Text), "confidence", res.Confidence, "duration_ms", res.Duration.Milliseconds())
	return res, nil
}
