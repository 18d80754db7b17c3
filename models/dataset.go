package models

// Dataset is an ordered set of listings sharing one schema. Datasets are treated as
// immutable: filtering and normalization return new values.
type Dataset struct {
	Schema   *Schema
	Listings []*Listing

	// ReviewsTyped is set once last_review has been normalized.
	ReviewsTyped bool
}

// NewDataset wraps listings that were built against schema.
func NewDataset(schema *Schema, listings []*Listing) *Dataset {
	return &Dataset{Schema: schema, Listings: listings}
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Listings) }

// Filter returns a new Dataset holding the listings for which keep is true, in order.
func (d *Dataset) Filter(keep func(*Listing) bool) *Dataset {
	out := make([]*Listing, 0, len(d.Listings))
	for _, l := range d.Listings {
		if keep(l) {
			out = append(out, l)
		}
	}
	return &Dataset{Schema: d.Schema, Listings: out, ReviewsTyped: d.ReviewsTyped}
}

// MapReviews returns a new Dataset in which every listing's review date is fn of the
// raw last_review cell. Row count is unchanged.
func (d *Dataset) MapReviews(fn func(raw string) NullDate) *Dataset {
	idx := d.Schema.LastReviewIndex()
	out := make([]*Listing, len(d.Listings))
	for i, l := range d.Listings {
		out[i] = l.WithLastReview(fn(l.Cells[idx]))
	}
	return &Dataset{Schema: d.Schema, Listings: out, ReviewsTyped: true}
}

// Records renders the dataset as text rows in header order. Once reviews are typed,
// last_review is written as a date, or as a date-time when any value in the column
// carries a time of day; missing dates become empty cells.
func (d *Dataset) Records() [][]string {
	idx := d.Schema.LastReviewIndex()
	layout := d.reviewLayout()

	rows := make([][]string, len(d.Listings))
	for i, l := range d.Listings {
		if !d.ReviewsTyped {
			rows[i] = l.Cells
			continue
		}
		row := append([]string(nil), l.Cells...)
		row[idx] = l.LastReview.Format(layout)
		rows[i] = row
	}
	return rows
}

func (d *Dataset) reviewLayout() string {
	for _, l := range d.Listings {
		if l.LastReview.Valid && !l.LastReview.Midnight() {
			return DateTimeLayout
		}
	}
	return DateLayout
}
