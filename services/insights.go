package services

import (
	"fmt"
	"io"
	"strings"

	"basic-cleaning/models"
)

// Summarize computes price statistics and the missing-date count of a cleaned
// dataset. Row counts of earlier stages are filled in by the caller.
func Summarize(ds *models.Dataset) *models.CleaningSummary {
	s := &models.CleaningSummary{RowsAfterGeo: ds.Len()}

	var total float64
	priced := 0
	for _, l := range ds.Listings {
		if !l.LastReview.Valid {
			s.NullReviews++
		}
		if !l.Price.Valid {
			continue
		}
		p := l.Price.Float64
		if priced == 0 || p < s.MinPrice {
			s.MinPrice = p
		}
		if priced == 0 || p > s.MaxPrice {
			s.MaxPrice = p
		}
		total += p
		priced++
	}

	if priced > 0 {
		s.AveragePrice = round2(total / float64(priced))
		s.MinPrice = round2(s.MinPrice)
		s.MaxPrice = round2(s.MaxPrice)
	}
	return s
}

// PrintSummary writes a short human-readable report of a cleaning run.
func PrintSummary(w io.Writer, s *models.CleaningSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  BASIC CLEANING SUMMARY\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  Rows\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Loaded                 : %d\n", s.RowsLoaded)
	fmt.Fprintf(w, "  After price filter     : %d\n", s.RowsAfterPrice)
	fmt.Fprintf(w, "  After geographic filter: %d\n", s.RowsAfterGeo)
	fmt.Fprintf(w, "  Without last_review    : %d\n\n", s.NullReviews)

	fmt.Fprintf(w, "  Price Statistics (per night)\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if s.RowsAfterGeo > 0 {
		fmt.Fprintf(w, "  Average price : $%.2f\n", s.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : $%.2f\n", s.MinPrice)
		fmt.Fprintf(w, "  Maximum price : $%.2f\n", s.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No rows left after cleaning\n")
	}
	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int64(f*100+0.5)) / 100
}
