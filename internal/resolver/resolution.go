package resolver

// Resolution is either NewEntry or Matched.
type Resolution interface {
	isResolution()
}

// NewEntry means no catalog entry was close enough. Name is the trimmed raw
// name, or the raw value itself (possibly nil) when it was blank.
type NewEntry struct {
	Name *string
}

// Matched points at the catalog entry the raw name refers to.
type Matched struct {
	ID    int64
	Name  string
	Score float64
}

func (NewEntry) isResolution() {}
func (Matched) isResolution() {}

// Fields flattens a Resolution into the is_new / id / name triple used on
// proposals. isNew is true exactly when id is nil.
func Fields(r Resolution) (isNew bool, id *int64, name *string) {
	switch v := r.(type) {
	case Matched:
		mid, mname := v.ID, v.Name
		return false, &mid, &mname
	case NewEntry:
		return true, nil, v.Name
	default:
		return true, nil, nil
	}
}
