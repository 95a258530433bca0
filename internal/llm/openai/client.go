package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/llm"
	"github.com/joseph-ayodele/groceries-db/internal/ocr"
)

var errNoChoices = errors.New("no choices in openai response")

// ParseLines implements llm.LineParser with chat/completions. The image is
// attached only when OCR confidence is low. The reply goes through the same
// sanitize and schema checks as engine JSON.
func (c *Client) ParseLines(ctx context.Context, req llm.ParseRequest) ([]entity.RawReceiptLine, error) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()
	attach := llm.ShouldAttachImage(req)
	c.logger.Info("llm.lines.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(req.OCRText),
		"ocr_confidence", req.Confidence,
		"image", attach,
	)

	var user any = llm.BuildUserPrompt(req)
	if attach {
		user = []map[string]any{
			{"type": "text", "text": llm.BuildUserPrompt(req)},
			{"type": "image_url", "image_url": map[string]any{"url": llm.DataURL(req)}},
		}
	}
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": user},
		},
	}

	raw, err := llm.SendJSON(ctx, c.http, c.endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if err != nil {
		var se *llm.StatusError
		c.logger.Error("llm.lines.http_error",
			"req_id", rid, "retryable", errors.As(err, &se) && se.Retryable(), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, errNoChoices
	}

	lines, err := ocr.DecodeEngineLines([]byte(strings.TrimSpace(cc.Choices[0].Message.Content)), c.logger)
	if err != nil {
		c.logger.Error("llm.lines.invalid", "req_id", rid, "error", err)
		return nil, err
	}
	c.logger.Info("llm.lines.ok",
		"req_id", rid,
		"lines", len(lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return lines, nil
}
