// Package normalize turns raw OCR scalars into canonical values. Every
// function here is total: bad input degrades to a default, never an error.
package normalize

import (
	"time"

	"github.com/shopspring/decimal"
)

// Normalizer holds the clock used when a date cannot be recovered.
type Normalizer struct {
	now func() time.Time
}

type Option func(*Normalizer)

// WithClock overrides the clock used for the "today" fallback.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, o := range opts {
		o(n)
	}
	return n
}

var std = New()

// Date normalizes raw with the process clock.
func Date(raw *string) time.Time { return std.Date(raw) }

// Price normalizes raw.
func Price(raw string) decimal.Decimal { return std.Price(raw) }

// Today returns the clock's current day at midnight UTC.
func (n *Normalizer) Today() time.Time {
	return dateOnly(n.now())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
