// Package app wires configuration into the storage, OCR and service graph
// shared by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/groceries-db/internal/async"
	"github.com/joseph-ayodele/groceries-db/internal/catalog"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/export"
	"github.com/joseph-ayodele/groceries-db/internal/extract"
	"github.com/joseph-ayodele/groceries-db/internal/history"
	"github.com/joseph-ayodele/groceries-db/internal/ingest"
	"github.com/joseph-ayodele/groceries-db/internal/llm/openai"
	"github.com/joseph-ayodele/groceries-db/internal/ocr"
	"github.com/joseph-ayodele/groceries-db/internal/receipts"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
	"github.com/joseph-ayodele/groceries-db/internal/resolver"
	"github.com/joseph-ayodele/groceries-db/internal/server"
	"github.com/joseph-ayodele/groceries-db/internal/similarity"
)

type App struct {
	Config    *common.Config
	DB        *repository.DB
	Repos     repository.Repos
	Cache     *ocr.Cache
	Extractor extract.LineExtractor
	Catalog   *catalog.Service
	Receipts  *receipts.Service
	History   *history.Service
	Export    *export.Service

	logger *slog.Logger
}

// New connects to the database, migrates it and builds every service.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scorer, err := similarity.ByName(cfg.Resolver.Scorer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Repos: db.Repos(), logger: logger}

	var opts []ocr.Option
	if cfg.OCR.CachePath != "" {
		a.Cache, err = ocr.OpenCache(cfg.OCR.CachePath, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, ocr.WithCache(a.Cache))
	}
	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		Language:            cfg.OCR.Language,
		TessdataDir:         cfg.OCR.TessdataDir,
		PSM:                 cfg.OCR.PSM,
		Timeout:             cfg.OCR.Timeout,
		EnableTSVConfidence: true,
	}, logger, opts...)
	image := extract.NewOCRAdapter(extractor, logger)
	if cfg.LLM.APIKey != "" {
		client, err := openai.NewClient(openai.FromSettings(cfg.LLM), logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		image.WithFallback(client)
		logger.Info("llm line fallback enabled", "model", client.Model())
	}
	a.Extractor = extract.Router{Image: image, Engine: extract.NewEngineAdapter(logger)}

	res := resolver.New(resolver.Config{
		Threshold:    cfg.Resolver.Threshold,
		SuggestLimit: cfg.Resolver.SuggestLimit,
		FoldWidth:    cfg.Resolver.FoldWidth,
	}, scorer)
	a.Catalog = catalog.NewService(
		repository.CatalogSource{Items: a.Repos.Items, Stores: a.Repos.Stores},
		res, logger,
		catalog.WithWorkers(cfg.Resolver.Workers),
	)
	a.Receipts = receipts.NewService(a.Extractor, a.Catalog, db, logger)
	a.History = history.NewService(a.Repos.Items, a.Repos.Records, logger)
	a.Export = export.NewService(a.Repos.Records, logger)
	return a, nil
}

// ServerDeps returns what server.New needs.
func (a *App) ServerDeps() server.Deps {
	return server.Deps{
		DB:       a.DB,
		Repos:    a.Repos,
		Catalog:  a.Catalog,
		Receipts: a.Receipts,
		History:  a.History,
		Export:   a.Export,
	}
}

// StartInbox watches dir and writes proposals for ownerID next to every
// receipt dropped there. The returned queue must be shut down by the caller.
func (a *App) StartInbox(ctx context.Context, dir, ownerID string) (*async.ProcessorQueue, error) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    debounce,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, err
	}
	q := async.NewProcessorQueue(
		ingest.NewInbox(a.Extractor, a.Catalog, a.logger),
		a.logger,
		async.WithWorkers(a.Config.Inbox.Workers),
		async.WithQueueSize(a.Config.Inbox.QueueSize),
		async.WithProcessTimeout(a.Config.OCR.Timeout*2),
	)
	go func() {
		for err := range errs {
			a.logger.Warn("inbox watcher error", "error", err)
		}
	}()
	go ingest.Pump(ctx, events, q, ownerID, a.logger)
	a.logger.Info("inbox.watch.started", "dir", dir, "owner_id", ownerID)
	return q, nil
}

// Close releases the OCR cache and the database.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.logger.Error("failed to close ocr cache", "error", err)
		}
	}
	a.DB.Close()
}

const debounce = 250 * time.Millisecond
