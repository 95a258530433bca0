// Package catalog builds resolution proposals for OCR lines and answers
// suggestion queries against an owner's item and store catalogs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/normalize"
	"github.com/joseph-ayodele/groceries-db/internal/resolver"
)

// ErrCatalogUnavailable wraps any failure to read an owner's catalog. It is
// never folded into an empty catalog.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Source reads an owner's catalogs.
type Source interface {
	FetchItems(ctx context.Context, ownerID string) ([]entity.NamedEntity, error)
	FetchStores(ctx context.Context, ownerID string) ([]entity.NamedEntity, error)
}

type Service struct {
	source     Source
	resolver   *resolver.Resolver
	normalizer *normalize.Normalizer
	workers    int
	logger     *slog.Logger
}

type Option func(*Service)

// WithWorkers bounds how many lines NormalizeLines works on at once.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithNormalizer replaces the default field normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

func NewService(source Source, res *resolver.Resolver, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if res == nil {
		res = resolver.New(resolver.DefaultConfig(), nil)
	}
	s := &Service{
		source:     source,
		resolver:   res,
		normalizer: normalize.New(),
		workers:    4,
		logger:     logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NormalizeOCRData normalizes one raw line and resolves its store and item
// against the owner's current catalogs. It writes nothing.
func (s *Service) NormalizeOCRData(ctx context.Context, ownerID string, line entity.RawReceiptLine) (entity.ResolutionProposal, error) {
	snap, err := s.snapshot(ctx, ownerID)
	if err != nil {
		return entity.ResolutionProposal{}, err
	}
	return s.propose(line, snap), nil
}

// SuggestItems ranks the owner's items against query.
func (s *Service) SuggestItems(ctx context.Context, ownerID, query string) ([]entity.NamedEntity, error) {
	items, err := s.source.FetchItems(ctx, ownerID)
	if err != nil {
		return nil, unavailable("items", err)
	}
	return s.resolver.Suggest(query, items), nil
}

// SuggestStores ranks the owner's stores against query.
func (s *Service) SuggestStores(ctx context.Context, ownerID, query string) ([]entity.NamedEntity, error) {
	stores, err := s.source.FetchStores(ctx, ownerID)
	if err != nil {
		return nil, unavailable("stores", err)
	}
	return s.resolver.Suggest(query, stores), nil
}

type snapshot struct {
	items  []entity.NamedEntity
	stores []entity.NamedEntity
}

func (s *Service) snapshot(ctx context.Context, ownerID string) (snapshot, error) {
	stores, err := s.source.FetchStores(ctx, ownerID)
	if err != nil {
		s.logger.Error("catalog.fetch.failed", "owner_id", ownerID, "kind", entity.KindStore, "error", err)
		return snapshot{}, unavailable("stores", err)
	}
	items, err := s.source.FetchItems(ctx, ownerID)
	if err != nil {
		s.logger.Error("catalog.fetch.failed", "owner_id", ownerID, "kind", entity.KindItem, "error", err)
		return snapshot{}, unavailable("items", err)
	}
	return snapshot{items: items, stores: stores}, nil
}

func (s *Service) propose(line entity.RawReceiptLine, snap snapshot) entity.ResolutionProposal {
	p := entity.ResolutionProposal{
		RawReceiptLine: line,
		PurchaseDate:   s.normalizer.Date(line.RawPurchaseDate),
		Price:          s.normalizer.Price(line.RawPrice),
	}

	storeName, itemName := line.RawStoreName, line.RawItemName
	p.IsNewStore, p.SuggestedStoreID, p.SuggestedStoreName = resolver.Fields(s.resolver.Resolve(&storeName, snap.stores))
	p.IsNewItem, p.SuggestedItemID, p.SuggestedItemName = resolver.Fields(s.resolver.Resolve(&itemName, snap.items))
	return p
}

func unavailable(kind string, err error) error {
	return fmt.Errorf("%w: fetch %s: %w", ErrCatalogUnavailable, kind, err)
}

// Today exposes the normalizer clock to callers that need the same notion of today.
func (s *Service) Today() time.Time { return s.normalizer.Today() }
