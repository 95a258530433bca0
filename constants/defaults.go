package constants

// Resolution policy defaults.
const (
	DefaultMatchThreshold = 70.0
	DefaultSuggestLimit   = 10
)

// Names used when OCR recovers no store or item text for a line.
const (
	UnknownStoreName = "不明な店舗"
	UnknownItemName  = "不明な商品"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"
