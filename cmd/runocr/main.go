package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/groceries-db/internal/app"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/extract"
	"github.com/joseph-ayodele/groceries-db/internal/ingest"
	"github.com/joseph-ayodele/groceries-db/internal/ocr"
	"github.com/joseph-ayodele/groceries-db/internal/receipts"
	"github.com/joseph-ayodele/groceries-db/internal/utils"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("runocr")
	var (
		owner = fs.StringLong("owner", "", "owner id; with a database configured, resolve lines into proposals")
		watch = fs.StringLong("watch", "", "watch this inbox directory instead of reading one file")
		text  = fs.BoolLong("text", "print the OCR text as well as the lines")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("GROCERIES")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	args := fs.GetArgs()
	if *watch == "" && len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: runocr [flags] <receipt.jpg|receipt.png|lines.json>\n%s\n", ffhelp.Flags(fs))
		os.Exit(2)
	}

	logger := common.NewLogger(os.Stderr, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch != "" {
		if err := runWatch(ctx, cfg, *watch, *owner); err != nil {
			logger.Error("inbox failed", "error", err)
			os.Exit(1)
		}
		return
	}

	path := args[0]
	ct := ingest.ContentTypeFor(path)
	if ct == "" {
		logger.Error("unsupported file", "path", path, "allowed", "jpg, jpeg, png, *.lines.json")
		os.Exit(2)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	if *owner != "" && cfg.Database.DSN != "" {
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer a.Close()
		res, err := a.Extractor.ExtractLines(ctx, ct, data)
		if err != nil {
			logger.Error("extraction failed", "error", err)
			os.Exit(1)
		}
		proposals, err := a.Catalog.NormalizeLines(ctx, *owner, receipts.WithDefaults(res.Lines))
		if err != nil {
			logger.Error("normalization failed", "error", err)
			os.Exit(1)
		}
		printJSON(map[string]any{
			"method":     res.Method,
			"confidence": res.Confidence,
			"warnings":   res.Warnings,
			"proposals":  utils.ToPBProposals(proposals),
		})
		return
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		Language:            cfg.OCR.Language,
		TessdataDir:         cfg.OCR.TessdataDir,
		PSM:                 cfg.OCR.PSM,
		Timeout:             cfg.OCR.Timeout,
		EnableTSVConfidence: true,
	}, logger)
	router := extract.Router{Image: extract.NewOCRAdapter(extractor, logger), Engine: extract.NewEngineAdapter(logger)}

	start := time.Now()
	res, err := router.ExtractLines(ctx, ct, data)
	if err != nil {
		logger.Error("extraction failed", "path", filepath.Base(path), "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}
	out := map[string]any{
		"method":     res.Method,
		"confidence": res.Confidence,
		"warnings":   res.Warnings,
		"lines":      res.Lines,
	}
	if *text {
		out["text"] = res.Text
	}
	printJSON(out)
}

func runWatch(ctx context.Context, cfg *common.Config, dir, owner string) error {
	cfg.Inbox.Dir, cfg.Inbox.OwnerID = dir, owner
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := common.NewLogger(os.Stderr, cfg.LogLevel)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	q, err := a.StartInbox(ctx, dir, owner)
	if err != nil {
		return err
	}
	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	q.Shutdown(sctx)
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}
