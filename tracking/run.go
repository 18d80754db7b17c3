// Package tracking records what a run of the cleaning step did: its configuration,
// which artifact versions it read and wrote, summary values, and how it ended.
package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the state of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// Direction says whether a run consumed or produced an artifact.
type Direction string

const (
	DirectionUsed   Direction = "used"
	DirectionLogged Direction = "logged"
)

// RunInfo is recorded when a run starts.
type RunInfo struct {
	ID        string         `json:"run_id"`
	JobType   string         `json:"job_type"`
	Config    map[string]any `json:"config,omitempty"`
	StartedAt time.Time      `json:"started_at"`
}

// ArtifactRecord links one artifact version to a run.
type ArtifactRecord struct {
	Direction Direction `json:"direction"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Digest    string    `json:"digest"`
	Size      int64     `json:"size"`
}

// Sink persists run events.
type Sink interface {
	StartRun(ctx context.Context, info RunInfo) error
	RecordArtifact(ctx context.Context, runID string, rec ArtifactRecord) error
	RecordSummary(ctx context.Context, runID string, values map[string]float64) error
	FinishRun(ctx context.Context, runID string, status Status, message string, at time.Time) error
	Close() error
}

// Run is the execution context of one invocation. It is created at start, passed
// explicitly to everything that records provenance, and finished exactly once.
type Run struct {
	info     RunInfo
	sink     Sink
	finished bool
}

// Start registers a new run with sink.
func Start(ctx context.Context, sink Sink, jobType string, config map[string]any) (*Run, error) {
	info := RunInfo{
		ID:        uuid.New().String(),
		JobType:   jobType,
		Config:    config,
		StartedAt: time.Now().UTC(),
	}
	if err := sink.StartRun(ctx, info); err != nil {
		return nil, fmt.Errorf("tracking: start run: %w", err)
	}
	return &Run{info: info, sink: sink}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.info.ID }

// JobType returns the job type the run was started with.
func (r *Run) JobType() string { return r.info.JobType }

// UseArtifact records that the run consumed rec.
func (r *Run) UseArtifact(ctx context.Context, rec ArtifactRecord) error {
	rec.Direction = DirectionUsed
	return r.record(ctx, rec)
}

// LogArtifact records that the run produced rec.
func (r *Run) LogArtifact(ctx context.Context, rec ArtifactRecord) error {
	rec.Direction = DirectionLogged
	return r.record(ctx, rec)
}

func (r *Run) record(ctx context.Context, rec ArtifactRecord) error {
	if r.finished {
		return fmt.Errorf("tracking: run %s already finished", r.info.ID)
	}
	if err := r.sink.RecordArtifact(ctx, r.info.ID, rec); err != nil {
		return fmt.Errorf("tracking: record %s artifact %s:%s: %w", rec.Direction, rec.Name, rec.Version, err)
	}
	return nil
}

// LogSummary attaches summary values to the run.
func (r *Run) LogSummary(ctx context.Context, values map[string]float64) error {
	if r.finished {
		return fmt.Errorf("tracking: run %s already finished", r.info.ID)
	}
	if err := r.sink.RecordSummary(ctx, r.info.ID, values); err != nil {
		return fmt.Errorf("tracking: record summary: %w", err)
	}
	return nil
}

// Finish closes the run, as failed when cause is non-nil. Later calls are no-ops.
func (r *Run) Finish(ctx context.Context, cause error) error {
	if r.finished {
		return nil
	}
	r.finished = true

	status, message := StatusFinished, ""
	if cause != nil {
		status, message = StatusFailed, cause.Error()
	}
	if err := r.sink.FinishRun(ctx, r.info.ID, status, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("tracking: finish run: %w", err)
	}
	return nil
}
