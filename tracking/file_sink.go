package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Event is one line of the file log.
type Event struct {
	Event    string             `json:"event"`
	RunID    string             `json:"run_id"`
	Time     time.Time          `json:"time"`
	Run      *RunInfo           `json:"run,omitempty"`
	Artifact *ArtifactRecord    `json:"artifact,omitempty"`
	Summary  map[string]float64 `json:"summary,omitempty"`
	Status   Status             `json:"status,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// FileSink appends run events as JSON lines to a local file.
type FileSink struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileSink opens (or creates) the log at path for appending.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("tracking: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("tracking: open log %q: %w", path, err)
	}
	return &FileSink{file: f, enc: json.NewEncoder(f)}, nil
}

func (s *FileSink) write(ev Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	return s.enc.Encode(ev)
}

func (s *FileSink) StartRun(_ context.Context, info RunInfo) error {
	return s.write(Event{Event: "run_started", RunID: info.ID, Time: info.StartedAt, Run: &info})
}

func (s *FileSink) RecordArtifact(_ context.Context, runID string, rec ArtifactRecord) error {
	return s.write(Event{Event: "artifact_" + string(rec.Direction), RunID: runID, Artifact: &rec})
}

func (s *FileSink) RecordSummary(_ context.Context, runID string, values map[string]float64) error {
	return s.write(Event{Event: "summary", RunID: runID, Summary: values})
}

func (s *FileSink) FinishRun(_ context.Context, runID string, status Status, message string, at time.Time) error {
	return s.write(Event{Event: "run_" + string(status), RunID: runID, Time: at, Status: status, Message: message})
}

func (s *FileSink) Close() error {
	return s.file.Close()
}
