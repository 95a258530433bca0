// Package history answers what an item cost, when and where.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/repository"
)

type Service struct {
	items   repository.CatalogRepository
	records repository.RecordRepository
	logger  *slog.Logger
}

func NewService(items repository.CatalogRepository, records repository.RecordRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{items: items, records: records, logger: logger}
}

// ItemHistory returns every purchase of the item, newest first. An item the
// owner does not have is ErrNotFound; an item never bought yields an empty list.
func (s *Service) ItemHistory(ctx context.Context, ownerID string, itemID int64) ([]entity.PurchaseRecord, error) {
	if err := common.NewValidator().Field("item_id", itemID, common.PositiveID).Error(); err != nil {
		return nil, err
	}
	if _, err := s.items.Get(ctx, ownerID, itemID); err != nil {
		return nil, err
	}
	recs, err := s.records.ListByItem(ctx, ownerID, itemID)
	if err != nil {
		s.logger.Error("failed to load item history", "owner_id", ownerID, "item_id", itemID, "error", err)
		return nil, err
	}
	s.logger.Debug("history.item.ok", "owner_id", ownerID, "item_id", itemID, "records", len(recs))
	return recs, nil
}

// ComparePrices summarizes the item's price per store, cheapest average
// first. Averages are rounded to two places.
func (s *Service) ComparePrices(ctx context.Context, ownerID string, itemID int64) ([]entity.PriceComparison, error) {
	if err := common.NewValidator().Field("item_id", itemID, common.PositiveID).Error(); err != nil {
		return nil, err
	}
	recs, err := s.records.ListByItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no purchase history for item %d", common.ErrNotFound, itemID)
	}
	out := Compare(recs)
	s.logger.Debug("history.compare.ok", "owner_id", ownerID, "item_id", itemID, "stores", len(out))
	return out, nil
}

type storeAgg struct {
	name   string
	latest entity.PurchaseRecord
	sum    decimal.Decimal
	count  int
}

// Compare aggregates records of a single item. The latest price per store
// is the one with the greatest purchase date, ties broken by greater id.
func Compare(recs []entity.PurchaseRecord) []entity.PriceComparison {
	if len(recs) == 0 {
		return []entity.PriceComparison{}
	}
	byStore := make(map[int64]*storeAgg)
	var order []int64
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(r.Price)
		agg, ok := byStore[r.StoreID]
		if !ok {
			agg = &storeAgg{name: r.StoreName, latest: r}
			byStore[r.StoreID] = agg
			order = append(order, r.StoreID)
		}
		agg.sum = agg.sum.Add(r.Price)
		agg.count++
		if newer(r, agg.latest) {
			agg.latest = r
		}
	}
	overall := total.Div(decimal.NewFromInt(int64(len(recs)))).Round(2)

	out := make([]entity.PriceComparison, 0, len(order))
	for _, id := range order {
		agg := byStore[id]
		out = append(out, entity.PriceComparison{
			ItemName:            agg.latest.ItemName,
			StoreName:           agg.name,
			LatestPrice:         agg.latest.Price,
			AveragePrice:        agg.sum.Div(decimal.NewFromInt(int64(agg.count))).Round(2),
			PurchaseCount:       agg.count,
			OverallAveragePrice: overall,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].AveragePrice.Cmp(out[j].AveragePrice); c != 0 {
			return c < 0
		}
		return out[i].StoreName < out[j].StoreName
	})
	return out
}

func newer(a, b entity.PurchaseRecord) bool {
	if !a.PurchaseDate.Equal(b.PurchaseDate) {
		return a.PurchaseDate.After(b.PurchaseDate)
	}
	return a.ID > b.ID
}
