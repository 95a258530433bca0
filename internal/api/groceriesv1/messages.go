// Package groceriesv1 holds the groceries.v1 gRPC messages, service
// descriptors and clients. Messages travel as JSON.
package groceriesv1

// NamedEntity is an item or a store.
type NamedEntity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CreateRequest struct {
	Name string `json:"name"`
}

type ListRequest struct{}

type ListResponse struct {
	Entries []*NamedEntity `json:"entries"`
}

type GetRequest struct {
	ID int64 `json:"id"`
}

type UpdateRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type DeleteRequest struct {
	ID int64 `json:"id"`
}

type SuggestRequest struct {
	Query string `json:"query"`
}

type ItemRequest struct {
	ItemID int64 `json:"item_id"`
}

// PurchaseRecord carries money as a decimal string and dates as YYYY-MM-DD.
type PurchaseRecord struct {
	ID           int64  `json:"id"`
	ItemID       int64  `json:"item_id"`
	ItemName     string `json:"item_name"`
	StoreID      int64  `json:"store_id"`
	StoreName    string `json:"store_name"`
	Price        string `json:"price"`
	PurchaseDate string `json:"purchase_date"`
	CreatedAt    string `json:"created_at"`
}

type HistoryResponse struct {
	Records []*PurchaseRecord `json:"records"`
}

type PriceComparison struct {
	ItemName            string `json:"item_name"`
	StoreName           string `json:"store_name"`
	LatestPrice         string `json:"latest_price"`
	AveragePrice        string `json:"average_price"`
	PurchaseCount       int32  `json:"purchase_count"`
	OverallAveragePrice string `json:"overall_average_price"`
}

type CompareResponse struct {
	Comparisons []*PriceComparison `json:"comparisons"`
}

type RawLine struct {
	StoreName    string  `json:"raw_store_name"`
	ItemName     string  `json:"raw_item_name"`
	Price        string  `json:"raw_price"`
	PurchaseDate *string `json:"raw_purchase_date,omitempty"`
}

type Proposal struct {
	RawLine

	Price        string `json:"price"`
	PurchaseDate string `json:"purchase_date"`

	IsNewItem         bool    `json:"is_new_item"`
	SuggestedItemID   *int64  `json:"suggested_item_id"`
	SuggestedItemName *string `json:"suggested_item_name"`

	IsNewStore         bool    `json:"is_new_store"`
	SuggestedStoreID   *int64  `json:"suggested_store_id"`
	SuggestedStoreName *string `json:"suggested_store_name"`
}

type UploadRequest struct {
	ContentType string `json:"content_type"`
	Image       []byte `json:"image"`
}

type UploadResponse struct {
	Proposals []*Proposal `json:"proposals"`
}

type NormalizeRequest struct {
	Line *RawLine `json:"line"`
}

type ConfirmRequest struct {
	IsNewItem bool   `json:"is_new_item"`
	ItemID    int64  `json:"item_id,omitempty"`
	ItemName  string `json:"item_name,omitempty"`

	IsNewStore bool   `json:"is_new_store"`
	StoreID    int64  `json:"store_id,omitempty"`
	StoreName  string `json:"store_name,omitempty"`

	Price        string `json:"price"`
	PurchaseDate string `json:"purchase_date"`
}

type ExportRequest struct {
	Format   string `json:"format"` // "csv" | "xlsx"
	FromDate string `json:"from_date,omitempty"`
	ToDate   string `json:"to_date,omitempty"`
}

type ExportResponse struct {
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Data        []byte `json:"data"`
}

type DeleteAllDataRequest struct{}

type DeleteAllDataResponse struct {
	Records int64 `json:"records"`
	Items   int64 `json:"items"`
	Stores  int64 `json:"stores"`
}
