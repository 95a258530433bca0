package entity

// Kind distinguishes the two catalogs an owner keeps.
type Kind string

const (
	KindItem  Kind = "item"
	KindStore Kind = "store"
)

// NamedEntity is an item or store in an owner's catalog. Names are not
// unique; resolution keeps semantic duplicates out.
type NamedEntity struct {
	ID      int64  `json:"id"`
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}
