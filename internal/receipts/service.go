// Package receipts turns uploaded receipt photos into proposals and records
// the purchases a user confirms.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/groceries-db/constants"
	"github.com/joseph-ayodele/groceries-db/internal/catalog"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/extract"
	"github.com/joseph-ayodele/groceries-db/internal/ocr"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
	"github.com/joseph-ayodele/groceries-db/internal/utils"
)

// ErrNoLines means OCR finished but recognized no item lines.
var ErrNoLines = errors.New("no receipt lines recognized")

// TxRunner runs fn inside one database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(repository.Repos) error) error
}

// Service handles receipt business logic.
type Service struct {
	extractor extract.LineExtractor
	catalog   *catalog.Service
	db        TxRunner
	logger    *slog.Logger
}

// NewService creates a new receipt service.
func NewService(extractor extract.LineExtractor, cat *catalog.Service, db TxRunner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor: extractor,
		catalog:   cat,
		db:        db,
		logger:    logger,
	}
}

// Upload OCRs a receipt image and returns one proposal per recognized line.
func (s *Service) Upload(ctx context.Context, ownerID, contentType string, image []byte) ([]entity.ResolutionProposal, error) {
	start := time.Now()
	if !constants.IsAllowedContentType(contentType) {
		s.logger.Warn("upload rejected: unsupported content type", "owner_id", ownerID, "content_type", contentType)
		return nil, fmt.Errorf("%w: content type %q is not allowed (image/jpeg or image/png)", common.ErrInvalidInput, contentType)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", common.ErrInvalidInput)
	}

	res, err := s.extractor.ExtractLines(ctx, contentType, image)
	if err != nil {
		s.logger.Error("receipt ocr failed", "owner_id", ownerID, "error", err)
		if errors.Is(err, ocr.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
		return nil, common.WrapError(err, "ocr")
	}
	if len(res.Lines) == 0 {
		s.logger.Info("receipts.upload.empty", "owner_id", ownerID, "chars", len(res.Text))
		return nil, ErrNoLines
	}

	lines := WithDefaults(res.Lines)
	proposals, err := s.catalog.NormalizeLines(ctx, ownerID, lines)
	if err != nil {
		return nil, err
	}
	s.logger.Info("receipts.upload.ok",
		"owner_id", ownerID,
		"lines", len(proposals),
		"method", res.Method,
		"confidence", res.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return proposals, nil
}

// Normalize builds a proposal for a single line typed in or corrected by the user.
func (s *Service) Normalize(ctx context.Context, ownerID string, line entity.RawReceiptLine) (entity.ResolutionProposal, error) {
	return s.catalog.NormalizeOCRData(ctx, ownerID, line)
}

// WithDefaults fills blank store and item names with placeholders so every
// proposal has something to show.
func WithDefaults(lines []entity.RawReceiptLine) []entity.RawReceiptLine {
	out := make([]entity.RawReceiptLine, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l.RawStoreName) == "" {
			l.RawStoreName = constants.UnknownStoreName
		}
		if strings.TrimSpace(l.RawItemName) == "" {
			l.RawItemName = constants.UnknownItemName
		}
		out[i] = l
	}
	return out
}

// ConfirmRequest is a reviewed proposal. When IsNewItem is set, ItemName
// names the item to create; otherwise ItemID must exist. Stores alike.
type ConfirmRequest struct {
	OwnerID string

	IsNewItem bool
	ItemID    int64
	ItemName  string

	IsNewStore bool
	StoreID    int64
	StoreName  string

	Price        decimal.Decimal
	PurchaseDate string // YYYY-MM-DD
}

func (r ConfirmRequest) validate() error {
	v := common.NewValidator().
		Field("owner_id", r.OwnerID, common.UUID).
		Field("price", r.Price, common.PositiveAmount).
		Field("purchase_date", r.PurchaseDate, common.DateYMD)
	if r.IsNewItem {
		v.Field("item_name", r.ItemName, common.Required, common.Length(1, 100))
	} else {
		v.Field("item_id", r.ItemID, common.PositiveID)
	}
	if r.IsNewStore {
		v.Field("store_name", r.StoreName, common.Required, common.Length(1, 100))
	} else {
		v.Field("store_id", r.StoreID, common.PositiveID)
	}
	return v.Error()
}

// Confirm records a purchase, creating the item and store first when the
// proposal marked them new. Everything happens in one transaction.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*entity.PurchaseRecord, error) {
	if err := req.validate(); err != nil {
		s.logger.Warn("confirm rejected", "owner_id", req.OwnerID, "error", err)
		return nil, err
	}
	date, err := utils.ParseYMD(strings.TrimSpace(req.PurchaseDate))
	if err != nil {
		return nil, fmt.Errorf("%w: purchase_date: %v", common.ErrInvalidInput, err)
	}

	var rec *entity.PurchaseRecord
	err = s.db.InTx(ctx, func(r repository.Repos) error {
		item, err := resolveEntry(ctx, r.Items, req.OwnerID, req.IsNewItem, req.ItemID, req.ItemName)
		if err != nil {
			return err
		}
		store, err := resolveEntry(ctx, r.Stores, req.OwnerID, req.IsNewStore, req.StoreID, req.StoreName)
		if err != nil {
			return err
		}
		rec, err = r.Records.Create(ctx, &entity.PurchaseRecord{
			OwnerID:      req.OwnerID,
			ItemID:       item.ID,
			StoreID:      store.ID,
			Price:        req.Price.Round(2),
			PurchaseDate: date,
		})
		if err != nil {
			return err
		}
		rec.ItemName = item.Name
		rec.StoreName = store.Name
		return nil
	})
	if err != nil {
		s.logger.Error("confirm failed", "owner_id", req.OwnerID, "error", err)
		return nil, err
	}
	s.logger.Info("receipts.confirm.ok",
		"owner_id", req.OwnerID,
		"record_id", rec.ID,
		"new_item", req.IsNewItem,
		"new_store", req.IsNewStore,
	)
	return rec, nil
}

func resolveEntry(ctx context.Context, repo repository.CatalogRepository, ownerID string, isNew bool, id int64, name string) (*entity.NamedEntity, error) {
	if isNew {
		return repo.Create(ctx, ownerID, name)
	}
	return repo.Get(ctx, ownerID, id)
}
