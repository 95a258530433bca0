package utils

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/groceries-db/constants"
	pb "github.com/joseph-ayodele/groceries-db/internal/api/groceriesv1"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
)

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseOptionalYMD returns nil for a blank string.
func ParseOptionalYMD(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := ParseYMD(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ToPBEntity(e *entity.NamedEntity) *pb.NamedEntity {
	return &pb.NamedEntity{ID: e.ID, Name: e.Name}
}

func ToPBEntities(es []entity.NamedEntity) []*pb.NamedEntity {
	out := make([]*pb.NamedEntity, len(es))
	for i := range es {
		out[i] = ToPBEntity(&es[i])
	}
	return out
}

func ToPBRecord(r *entity.PurchaseRecord) *pb.PurchaseRecord {
	out := &pb.PurchaseRecord{
		ID:           r.ID,
		ItemID:       r.ItemID,
		ItemName:     r.ItemName,
		StoreID:      r.StoreID,
		StoreName:    r.StoreName,
		Price:        r.Price.StringFixed(2),
		PurchaseDate: r.PurchaseDate.Format(constants.DateLayout),
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func ToPBRecords(rs []entity.PurchaseRecord) []*pb.PurchaseRecord {
	out := make([]*pb.PurchaseRecord, len(rs))
	for i := range rs {
		out[i] = ToPBRecord(&rs[i])
	}
	return out
}

func ToPBComparisons(cs []entity.PriceComparison) []*pb.PriceComparison {
	out := make([]*pb.PriceComparison, len(cs))
	for i, c := range cs {
		out[i] = &pb.PriceComparison{
			ItemName:            c.ItemName,
			StoreName:           c.StoreName,
			LatestPrice:         c.LatestPrice.StringFixed(2),
			AveragePrice:        c.AveragePrice.StringFixed(2),
			PurchaseCount:       int32(c.PurchaseCount),
			OverallAveragePrice: c.OverallAveragePrice.StringFixed(2),
		}
	}
	return out
}

func ToRawLine(l *pb.RawLine) entity.RawReceiptLine {
	if l == nil {
		return entity.RawReceiptLine{}
	}
	return entity.RawReceiptLine{
		RawStoreName:    l.StoreName,
		RawItemName:     l.ItemName,
		RawPrice:        l.Price,
		RawPurchaseDate: l.PurchaseDate,
	}
}

func ToPBProposal(p *entity.ResolutionProposal) *pb.Proposal {
	return &pb.Proposal{
		RawLine: pb.RawLine{
			StoreName:    p.RawStoreName,
			ItemName:     p.RawItemName,
			Price:        p.RawPrice,
			PurchaseDate: p.RawPurchaseDate,
		},
		Price:              p.Price.String(),
		PurchaseDate:       p.PurchaseDate.Format(constants.DateLayout),
		IsNewItem:          p.IsNewItem,
		SuggestedItemID:    p.SuggestedItemID,
		SuggestedItemName:  p.SuggestedItemName,
		IsNewStore:         p.IsNewStore,
		SuggestedStoreID:   p.SuggestedStoreID,
		SuggestedStoreName: p.SuggestedStoreName,
	}
}

func ToPBProposals(ps []entity.ResolutionProposal) []*pb.Proposal {
	out := make([]*pb.Proposal, len(ps))
	for i := range ps {
		out[i] = ToPBProposal(&ps[i])
	}
	return out
}
