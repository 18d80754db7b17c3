package models

import (
	"fmt"
	"strings"
)

// Schema is the column layout of a dataset, validated once when the file is loaded.
type Schema struct {
	Columns []string

	index      map[string]int
	price      int
	lastReview int
	longitude  int
	latitude   int
}

// NewSchema indexes header and checks that every required column is present.
func NewSchema(header []string) (*Schema, error) {
	s := &Schema{
		Columns: append([]string(nil), header...),
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		key := strings.TrimSpace(name)
		if _, dup := s.index[key]; dup {
			return nil, fmt.Errorf("duplicate column %q", key)
		}
		s.index[key] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if s.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	s.price = s.index[ColumnPrice]
	s.lastReview = s.index[ColumnLastReview]
	s.longitude = s.index[ColumnLongitude]
	s.latitude = s.index[ColumnLatitude]
	return s, nil
}

// Index returns the position of column name, or -1.
func (s *Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// LastReviewIndex is the position of the last_review column.
func (s *Schema) LastReviewIndex() int { return s.lastReview }
