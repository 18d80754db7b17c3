package services

import (
	"context"
	"math"
	"time"

	"basic-cleaning/errs"
	"basic-cleaning/metrics"
	"basic-cleaning/models"
	"basic-cleaning/storage"
	"basic-cleaning/utils"
)

// PriceRange is the caller-supplied inclusive price window.
type PriceRange struct {
	Min float64
	Max float64
}

// Validate rejects inverted or NaN bounds.
func (r PriceRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return errs.InvalidRange("cleaner.PriceRange", "bounds must be numbers, got [%v, %v]", r.Min, r.Max)
	}
	if r.Min > r.Max {
		return errs.InvalidRange("cleaner.PriceRange", "min_price %v is greater than max_price %v", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v lies in [Min, Max].
func (r PriceRange) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// BoundingBox is an inclusive longitude/latitude rectangle.
type BoundingBox struct {
	MinLongitude float64
	MaxLongitude float64
	MinLatitude  float64
	MaxLatitude  float64
}

// NYCBoundingBox is the region listings must fall inside. It is fixed, not a
// caller parameter.
var NYCBoundingBox = BoundingBox{
	MinLongitude: -74.25,
	MaxLongitude: -73.50,
	MinLatitude:  40.5,
	MaxLatitude:  41.2,
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return b.MinLongitude <= lon && lon <= b.MaxLongitude &&
		b.MinLatitude <= lat && lat <= b.MaxLatitude
}

// Cleaner runs the cleaning stages over a raw listings file:
// load, price filter, date normalization, geographic filter, serialize.
type Cleaner struct {
	logger *utils.Logger
	stages *metrics.Stages
	reader storage.DatasetReader
	writer storage.DatasetWriter
}

// NewCleaner creates a Cleaner reading and writing CSV.
func NewCleaner(logger *utils.Logger, stages *metrics.Stages) *Cleaner {
	codec := storage.NewCSV()
	return &Cleaner{logger: logger, stages: stages, reader: codec, writer: codec}
}

// Apply cleans the file at inPath and writes the result to outPath. The price range is
// checked before anything is read, so an invalid range leaves no output behind.
func (c *Cleaner) Apply(ctx context.Context, inPath, outPath string, prices PriceRange) (*models.CleaningSummary, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	loaded, err := c.Load(inPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priced, err := c.FilterPrice(loaded, prices)
	if err != nil {
		return nil, err
	}

	dated := c.NormalizeDates(priced)
	c.logger.Event("basic_cleaning_done", "rows=%d", dated.Len())

	located := c.FilterGeo(dated, NYCBoundingBox)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := c.Serialize(located, outPath); err != nil {
		return nil, err
	}

	summary := Summarize(located)
	summary.RowsLoaded = loaded.Len()
	summary.RowsAfterPrice = priced.Len()
	return summary, nil
}

// Load parses the input file and validates its schema.
func (c *Cleaner) Load(path string) (*models.Dataset, error) {
	started := time.Now()
	ds, err := c.reader.Read(path)
	if err != nil {
		return nil, err
	}
	c.observe(metrics.StageLoaded, ds.Len(), started)
	c.logger.Info("[cleaner] Loaded %d rows, %d columns from %s", ds.Len(), len(ds.Schema.Columns), path)
	return ds, nil
}

// FilterPrice keeps rows whose price lies in the inclusive range. Rows without a
// usable price are dropped.
func (c *Cleaner) FilterPrice(ds *models.Dataset, prices PriceRange) (*models.Dataset, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	out := ds.Filter(func(l *models.Listing) bool {
		return l.Price.Valid && prices.Contains(l.Price.Float64)
	})
	c.observe(metrics.StagePriceFiltered, out.Len(), started)
	c.logger.Info("[cleaner] Price filter [%v, %v]: %d → %d rows (dropped %d)",
		prices.Min, prices.Max, ds.Len(), out.Len(), ds.Len()-out.Len())
	return out, nil
}

// NormalizeDates converts last_review to a typed date. Values that cannot be read
// become missing dates; no row is removed.
func (c *Cleaner) NormalizeDates(ds *models.Dataset) *models.Dataset {
	started := time.Now()
	out := ds.MapReviews(models.ParseDate)

	missing := 0
	for _, l := range out.Listings {
		if !l.LastReview.Valid {
			missing++
		}
	}
	c.observe(metrics.StageDateNormalized, out.Len(), started)
	c.logger.Debug("[cleaner] last_review normalized: %d rows, %d without a date", out.Len(), missing)
	return out
}

// FilterGeo keeps rows whose coordinates fall inside box. Rows missing either
// coordinate are dropped.
func (c *Cleaner) FilterGeo(ds *models.Dataset, box BoundingBox) *models.Dataset {
	started := time.Now()
	out := ds.Filter(func(l *models.Listing) bool {
		return l.Longitude.Valid && l.Latitude.Valid &&
			box.Contains(l.Longitude.Float64, l.Latitude.Float64)
	})
	c.observe(metrics.StageGeoFiltered, out.Len(), started)
	c.logger.Info("[cleaner] Geographic filter: %d → %d rows (dropped %d)",
		ds.Len(), out.Len(), ds.Len()-out.Len())
	return out
}

// Serialize writes ds to path in the input's format, header included.
func (c *Cleaner) Serialize(ds *models.Dataset, path string) error {
	started := time.Now()
	if err := c.writer.Write(path, ds); err != nil {
		return err
	}
	c.observe(metrics.StageSerialized, ds.Len(), started)
	c.logger.Event("dataframe_saved", "path=%s rows=%d", path, ds.Len())
	return nil
}

func (c *Cleaner) observe(stage string, rows int, started time.Time) {
	if c.stages != nil {
		c.stages.Observe(stage, rows, started)
	}
}
