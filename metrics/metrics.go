package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage names, in pipeline order.
const (
	StageLoaded         = "loaded"
	StagePriceFiltered  = "price_filtered"
	StageDateNormalized = "date_normalized"
	StageGeoFiltered    = "geo_filtered"
	StageSerialized     = "serialized"
)

// Stages collects per-stage row counts and timings for one run of the cleaning step
// on a private registry.
type Stages struct {
	Registry *prometheus.Registry

	rows          *prometheus.GaugeVec
	duration      *prometheus.GaugeVec
	artifactBytes *prometheus.CounterVec
}

// NewStages creates and registers the step's metrics.
func NewStages() *Stages {
	s := &Stages{Registry: prometheus.NewRegistry()}

	s.rows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "basic_cleaning",
		Name:      "stage_rows",
		Help:      "Rows remaining after each cleaning stage",
	}, []string{"stage"})
	s.duration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "basic_cleaning",
		Name:      "stage_duration_seconds",
		Help:      "Wall time spent in each cleaning stage",
	}, []string{"stage"})
	s.artifactBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "basic_cleaning",
		Name:      "artifact_bytes_total",
		Help:      "Bytes moved through the artifact gateway",
	}, []string{"direction"})

	s.Registry.MustRegister(s.rows, s.duration, s.artifactBytes)
	return s
}

// Observe records the row count and elapsed time of a finished stage.
func (s *Stages) Observe(stage string, rows int, started time.Time) {
	s.rows.WithLabelValues(stage).Set(float64(rows))
	s.duration.WithLabelValues(stage).Set(time.Since(started).Seconds())
}

// AddArtifactBytes counts bytes downloaded ("in") or uploaded ("out").
func (s *Stages) AddArtifactBytes(direction string, n int64) {
	s.artifactBytes.WithLabelValues(direction).Add(float64(n))
}

// Rows returns the last observed row count per stage.
func (s *Stages) Rows() (map[string]float64, error) {
	families, err := s.Registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("metrics: gather: %w", err)
	}

	out := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "basic_cleaning_stage_rows" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "stage" {
					out[lp.GetValue()] = m.GetGauge().GetValue()
				}
			}
		}
	}
	return out, nil
}

// WriteTextfile exports the registry in the node-exporter textfile format.
func (s *Stages) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.Registry); err != nil {
		return fmt.Errorf("metrics: write textfile %q: %w", path, err)
	}
	return nil
}
