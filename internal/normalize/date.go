package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

const ymdLayout = "2006-01-02"

var (
	reYMD          = regexp.MustCompile(`(\d{4})\D+(\d{1,2})\D+(\d{1,2})`)
	dateSeparators = strings.NewReplacer("年", "-", "月", "-", "日", "-", "/", "-", ".", "-")
)

// Date returns the calendar day written in raw, at midnight UTC.
// Accepted shapes include 2024/5/15, 2024年5月15日, 2024-05-15 and 2024.05.15,
// with any trailing text such as a weekday in parentheses. Nil, blank or
// unparseable input yields today.
func (n *Normalizer) Date(raw *string) time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return n.Today()
	}
	unified := dateSeparators.Replace(width.Fold.String(strings.TrimSpace(*raw)))

	if m := reYMD.FindStringSubmatch(unified); m != nil {
		if d, ok := civilDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	if t, err := time.ParseInLocation(ymdLayout, unified, time.UTC); err == nil {
		return t
	}
	return n.Today()
}

// civilDate rejects triples that time.Date would silently roll over, like Feb 30.
func civilDate(ys, ms, ds string) (time.Time, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || y < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
