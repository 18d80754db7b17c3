package models

import (
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// dateLayouts are tried in order when reading last_review.
var dateLayouts = []string{
	DateLayout,
	DateTimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"January 2, 2006",
}

// NullDate is a date that may be missing.
type NullDate struct {
	Time  time.Time
	Valid bool
}

// ParseDate reads a raw date string. Empty or unrecognised input yields an
// invalid NullDate rather than an error. An explicit UTC offset is kept, so the
// value is written back with its original wall clock.
func ParseDate(raw string) NullDate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NullDate{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return NullDate{Time: t, Valid: true}
		}
	}
	return NullDate{}
}

// Midnight reports whether the date carries no time-of-day component.
func (d NullDate) Midnight() bool {
	h, m, s := d.Time.Clock()
	return h == 0 && m == 0 && s == 0 && d.Time.Nanosecond() == 0
}

// Format renders d with layout; a missing date renders as the empty string.
func (d NullDate) Format(layout string) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(layout)
}
