package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/groceries-db/constants"
	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/async"
	"github.com/joseph-ayodele/groceries-db/internal/catalog"
	"github.com/joseph-ayodele/groceries-db/internal/extract"
	"github.com/joseph-ayodele/groceries-db/internal/receipts"
	"github.com/joseph-ayodele/groceries-db/internal/utils"
)

// Sidecar is the JSON document written next to each processed inbox file.
type Sidecar struct {
	Source      string              `json:"source"`
	OwnerID     string              `json:"owner_id"`
	Status      constants.JobStatus `json:"status"`
	Method      string              `json:"method,omitempty"`
	Confidence  float32             `json:"confidence"`
	Warnings    []string            `json:"warnings,omitempty"`
	Error       string              `json:"error,omitempty"`
	ProcessedAt time.Time           `json:"processed_at"`
	Proposals   []*pb.Proposal      `json:"proposals"`
}

// Inbox turns dropped receipt files into proposal sidecars. It implements
// async.Processor.
type Inbox struct {
	extractor extract.LineExtractor
	catalog   *catalog.Service
	logger    *slog.Logger
	now       func() time.Time
}

func NewInbox(extractor extract.LineExtractor, cat *catalog.Service, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{extractor: extractor, catalog: cat, logger: logger, now: time.Now}
}

// Process extracts and normalizes one file. A catalog outage leaves no
// sidecar behind so the next scan retries the file.
func (in *Inbox) Process(ctx context.Context, job async.Job) error {
	log := in.logger.With("path", job.Path, "owner_id", job.OwnerID, "trace_id", job.TraceID)
	ct := ContentTypeFor(job.Path)
	if ct == "" {
		return fmt.Errorf("not an inbox file: %s", job.Path)
	}
	if upToDate(job.Path) {
		log.Debug("inbox.skip.up_to_date")
		return nil
	}

	data, err := os.ReadFile(job.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", job.Path, err)
	}

	sc := Sidecar{Source: filepath.Base(job.Path), OwnerID: job.OwnerID, Status: constants.JobStatusQueued}
	res, err := in.extractor.ExtractLines(ctx, ct, data)
	sc.Method, sc.Confidence, sc.Warnings = res.Method, res.Confidence, res.Warnings
	if err != nil {
		sc.Status, sc.Error = constants.JobStatusFailed, err.Error()
		return errors.Join(err, in.write(job.Path, sc))
	}
	sc.Status = constants.JobStatusOCROK
	if len(res.Lines) == 0 {
		sc.Status = constants.JobStatusEmpty
		log.Info("inbox.empty", "chars", len(res.Text))
		return in.write(job.Path, sc)
	}

	proposals, err := in.catalog.NormalizeLines(ctx, job.OwnerID, receipts.WithDefaults(res.Lines))
	if errors.Is(err, catalog.ErrCatalogUnavailable) {
		return err
	}
	if err != nil {
		sc.Status, sc.Error = constants.JobStatusFailed, err.Error()
		return errors.Join(err, in.write(job.Path, sc))
	}
	sc.Status = constants.JobStatusNormalized
	sc.Proposals = utils.ToPBProposals(proposals)
	log.Info("inbox.normalized", "lines", len(proposals), "method", res.Method)
	return in.write(job.Path, sc)
}

// write replaces the sidecar atomically.
func (in *Inbox) write(path string, sc Sidecar) error {
	sc.ProcessedAt = in.now().UTC()
	if sc.Proposals == nil {
		sc.Proposals = []*pb.Proposal{}
	}
	b, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".proposals-*.tmp")
	if err != nil {
		return fmt.Errorf("create sidecar: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return os.Rename(tmp.Name(), SidecarPath(path))
}

// Pump enqueues every path from paths for ownerID until the channel closes
// or ctx ends.
func Pump(ctx context.Context, paths <-chan string, q async.Queue, ownerID string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-paths:
			if !ok {
				return
			}
			job := async.Job{Path: p, OwnerID: ownerID, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Warn("inbox.enqueue.failed", "path", p, "error", err)
				if errors.Is(err, async.ErrQueueClosed) {
					return
				}
			}
		}
	}
}

// upToDate reports whether path already has a sidecar at least as new as itself.
func upToDate(path string) bool {
	src, err := os.Stat(path)
	if err != nil {
		return false
	}
	sc, err := os.Stat(SidecarPath(path))
	if err != nil {
		return false
	}
	return !sc.ModTime().Before(src.ModTime())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
