package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRecord is a confirmed purchase of one item at one store.
type PurchaseRecord struct {
	ID           int64           `json:"id"`
	OwnerID      string          `json:"owner_id"`
	ItemID       int64           `json:"item_id"`
	StoreID      int64           `json:"store_id"`
	Price        decimal.Decimal `json:"price"`
	PurchaseDate time.Time       `json:"purchase_date"`
	CreatedAt    time.Time       `json:"created_at"`

	// Filled on reads that join the catalogs.
	ItemName  string `json:"item_name,omitempty"`
	StoreName string `json:"store_name,omitempty"`
}

// PriceComparison summarizes what one item costs at one store.
type PriceComparison struct {
	ItemName            string          `json:"item_name"`
	StoreName           string          `json:"store_name"`
	LatestPrice         decimal.Decimal `json:"latest_price"`
	AveragePrice        decimal.Decimal `json:"average_price"`
	PurchaseCount       int             `json:"purchase_count"`
	OverallAveragePrice decimal.Decimal `json:"overall_average_price"`
}

// PurgeResult counts rows removed when an owner's data is deleted.
type PurgeResult struct {
	Records int64 `json:"records"`
	Items   int64 `json:"items"`
	Stores  int64 `json:"stores"`
}
