package repository

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/joseph-ayodele/groceries-db/constants"
)

// timeLayouts are tried in order for text columns. SQLite stores dates and
// timestamps as text; Postgres hands back time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	constants.DateLayout,
}

// timeValue scans DATE, TIMESTAMPTZ and their text encodings.
type timeValue struct {
	Time time.Time
}

func (v *timeValue) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		v.Time = time.Time{}
		return nil
	case time.Time:
		v.Time = s
		return nil
	case string:
		return v.parse(s)
	case []byte:
		return v.parse(string(s))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (v *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

// dateOnly keeps the calendar day in UTC regardless of how the driver
// reported it.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateArg renders a calendar day for DATE and TEXT columns alike.
func dateArg(t time.Time) driver.Value {
	return t.Format(constants.DateLayout)
}

// timestampArg renders an instant for TIMESTAMPTZ and TEXT columns alike.
func timestampArg(t time.Time) driver.Value {
	return t.UTC().Format(time.RFC3339Nano)
}
