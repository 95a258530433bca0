package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

// NormalizeLines builds a proposal for every line against one catalog
// snapshot. Lines are independent and run in parallel; the result keeps
// input order.
func (s *Service) NormalizeLines(ctx context.Context, ownerID string, lines []entity.RawReceiptLine) ([]entity.ResolutionProposal, error) {
	start := time.Now()
	snap, err := s.snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]entity.ResolutionProposal, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.propose(line, snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("catalog.normalize.ok",
		"owner_id", ownerID,
		"lines", len(lines),
		"items", len(snap.items),
		"stores", len(snap.stores),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
