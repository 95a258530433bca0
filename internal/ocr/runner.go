package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrEngineMissing means the tesseract binary could not be found on PATH.
var ErrEngineMissing = errors.New("ocr engine not installed")

// stderrLogLimit caps how much tesseract stderr ends up in a log line.
const stderrLogLimit = 8 << 10

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// tesseractRunner runs the OCR binary and logs one event per invocation.
type tesseractRunner struct {
	logger *slog.Logger
}

func (r tesseractRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	switch {
	case errors.Is(err, exec.ErrNotFound):
		r.logger.Error("ocr.exec.missing", "cmd", name, "error", err)
		return nil, nil, fmt.Errorf("%w: %s (set TESSERACT_BIN)", ErrEngineMissing, name)
	case ctx.Err() != nil:
		r.logger.Warn("ocr.exec.canceled", "cmd", name, "duration_ms", dur.Milliseconds(), "error", ctx.Err())
		return out.Bytes(), errb.Bytes(), ctx.Err()
	case err != nil:
		r.logger.Error("ocr.exec.failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), stderrLogLimit),
		)
	default:
		r.logger.Debug("ocr.exec.ok",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}
