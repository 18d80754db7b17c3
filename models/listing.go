package models

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Columns the cleaning step reads. Every other column is passed through untouched.
const (
	ColumnPrice      = "price"
	ColumnLastReview = "last_review"
	ColumnLongitude  = "longitude"
	ColumnLatitude   = "latitude"
)

// RequiredColumns must all be present in the input header.
var RequiredColumns = []string{ColumnPrice, ColumnLastReview, ColumnLongitude, ColumnLatitude}

// Listing is one row of the dataset. Cells holds the raw text of every column in
// header order; the typed fields are parsed from the columns the step acts on.
// A Listing is never modified after construction.
type Listing struct {
	Cells      []string
	Price      sql.NullFloat64
	Longitude  sql.NullFloat64
	Latitude   sql.NullFloat64
	LastReview NullDate
}

// NewListing builds a Listing from one raw record. The record must have exactly one
// cell per schema column.
func NewListing(s *Schema, cells []string) (*Listing, error) {
	if len(cells) != len(s.Columns) {
		return nil, fmt.Errorf("expected %d fields, got %d", len(s.Columns), len(cells))
	}
	return &Listing{
		Cells:     cells,
		Price:     parseNumber(cells[s.price]),
		Longitude: parseNumber(cells[s.longitude]),
		Latitude:  parseNumber(cells[s.latitude]),
	}, nil
}

// WithLastReview returns a copy of l carrying the given review date.
func (l *Listing) WithLastReview(d NullDate) *Listing {
	cp := *l
	cp.LastReview = d
	return &cp
}

// parseNumber treats empty, non-numeric and NaN cells as missing.
func parseNumber(raw string) sql.NullFloat64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullFloat64{}
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// CleaningSummary describes one run of the cleaning step.
type CleaningSummary struct {
	RowsLoaded     int
	RowsAfterPrice int
	RowsAfterGeo   int
	NullReviews    int
	AveragePrice   float64
	MinPrice       float64
	MaxPrice       float64
}

// Values flattens the summary into the key/value form recorded on a tracking run.
func (s *CleaningSummary) Values() map[string]float64 {
	return map[string]float64{
		"rows_loaded":      float64(s.RowsLoaded),
		"rows_after_price": float64(s.RowsAfterPrice),
		"rows_after_geo":   float64(s.RowsAfterGeo),
		"null_reviews":     float64(s.NullReviews),
		"price_mean":       s.AveragePrice,
		"price_min":        s.MinPrice,
		"price_max":        s.MaxPrice,
	}
}
