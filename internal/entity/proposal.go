package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawReceiptLine is one OCR line before normalization. Every field is untrusted text.
type RawReceiptLine struct {
	RawStoreName    string  `json:"raw_store_name"`
	RawItemName     string  `json:"raw_item_name"`
	RawPrice        string  `json:"raw_price"`
	RawPurchaseDate *string `json:"raw_purchase_date,omitempty"`
}

// ResolutionProposal is what the user reviews before a purchase is recorded.
// IsNewItem is true exactly when SuggestedItemID is nil; the same holds for stores.
type ResolutionProposal struct {
	RawReceiptLine

	Price        decimal.Decimal `json:"price"`
	PurchaseDate time.Time       `json:"purchase_date"`

	IsNewItem         bool    `json:"is_new_item"`
	SuggestedItemID   *int64  `json:"suggested_item_id"`
	SuggestedItemName *string `json:"suggested_item_name"`

	IsNewStore         bool    `json:"is_new_store"`
	SuggestedStoreID   *int64  `json:"suggested_store_id"`
	SuggestedStoreName *string `json:"suggested_store_name"`
}
