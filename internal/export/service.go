package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/groceries-db/constants"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header is the column layout shared by CSV and XLSX exports.
var Header = []string{"date", "store_name", "item_name", "price"}

// Result is a rendered export ready to hand to a client.
type Result struct {
	ContentType string
	Filename    string
	Data        []byte
	Rows        int
}

// Service is a small façade over the record repository that renders an
// owner's purchase history.
type Service struct {
	records repository.RecordRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(records repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger, now: time.Now}
}

// Export renders the owner's records in format ("csv" or "xlsx").
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all records.
func (s *Service) Export(ctx context.Context, ownerID, format string, from, to *time.Time) (Result, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	switch format {
	case FormatCSV, FormatXLSX:
	default:
		return Result{}, fmt.Errorf("%w: format must be csv or xlsx, got %q", common.ErrInvalidInput, format)
	}

	start := time.Now()
	recs, err := s.load(ctx, ownerID, from, to)
	if err != nil {
		return Result{}, err
	}

	res := Result{Rows: len(recs), Filename: fmt.Sprintf("purchase_history_%s.%s", ownerID, format)}
	if format == FormatXLSX {
		res.ContentType = ContentTypeXLSX
		res.Data, err = RecordsXLSX(recs)
	} else {
		res.ContentType = ContentTypeCSV
		res.Data, err = RecordsCSV(recs)
	}
	if err != nil {
		s.logger.Error("export failed", "owner_id", ownerID, "format", format, "error", err)
		return Result{}, err
	}

	s.logger.Info("export."+format+".ok",
		"owner_id", ownerID,
		"rows", len(recs),
		"bytes", len(res.Data),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (s *Service) load(ctx context.Context, ownerID string, from, to *time.Time) ([]entity.PurchaseRecord, error) {
	var filter repository.RecordFilter
	if from != nil {
		filter.From = dateOnly(*from)
		filter.To = dateOnly(s.now().UTC())
	}
	if to != nil {
		filter.To = dateOnly(*to)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, fmt.Errorf("%w: from_date is after to_date", common.ErrInvalidInput)
	}
	recs, err := s.records.List(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return recs, nil
}

// RecordsCSV renders records as CSV with a header row.
func RecordsCSV(recs []entity.PurchaseRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range recs {
		if err := w.Write([]string{
			r.PurchaseDate.Format(constants.DateLayout),
			r.StoreName,
			r.ItemName,
			r.Price.String(),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	return buf.Bytes(), nil
}

// RecordsXLSX renders records into a single "Purchases" sheet. Prices are
// numeric cells so spreadsheets can sum them.
func RecordsXLSX(recs []entity.PurchaseRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Purchases"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.PurchaseDate.Format(constants.DateLayout))
		write(2, r.StoreName)
		write(3, r.ItemName)
		write(4, r.Price.InexactFloat64())
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "C", 28) // store, item
	_ = f.SetColWidth(sheet, "D", "D", 12) // price

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
