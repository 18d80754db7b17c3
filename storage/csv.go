package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"basic-cleaning/errs"
	"basic-cleaning/models"
)

// CSV reads and writes comma-separated datasets with a header row.
type CSV struct {
	Comma rune
}

// NewCSV returns a CSV codec using the comma delimiter.
func NewCSV() *CSV {
	return &CSV{Comma: ','}
}

// Read parses the file at path. Any structural problem, including a missing
// required column or a row with the wrong number of fields, is a malformed input error.
func (c *CSV) Read(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.MalformedInput("csv.Read", "open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = c.Comma
	// A quote inside an unquoted cell is kept as a literal character.
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.MalformedInput("csv.Read", "%q is empty", path)
	}
	if err != nil {
		return nil, errs.MalformedInput("csv.Read", "header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	schema, err := models.NewSchema(header)
	if err != nil {
		return nil, errs.MalformedInput("csv.Read", "%q: %w", path, err)
	}

	var listings []*models.Listing
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.MalformedInput("csv.Read", "%w", err)
		}
		l, err := models.NewListing(schema, record)
		if err != nil {
			return nil, errs.MalformedInput("csv.Read", "line %d: %w", line, err)
		}
		listings = append(listings, l)
	}

	return models.NewDataset(schema, listings), nil
}

// Write creates (or truncates) the file at path and writes the header followed by
// every row. Intermediate directories are created automatically. No index column
// is written.
func (c *CSV) Write(path string, ds *models.Dataset) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("csv: create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = c.Comma

	if err := w.Write(ds.Schema.Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := w.WriteAll(ds.Records()); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write rows: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("csv: close %q: %w", path, err)
	}
	return nil
}
