package artifacts

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basic-cleaning/errs"
	"basic-cleaning/metrics"
	"basic-cleaning/tracking"
	"basic-cleaning/utils"
)

type brokenStore struct {
	resolveErr  error
	downloadErr error
	createErr   error
	aliasErr    error
}

func (b brokenStore) Resolve(context.Context, Reference) (*Version, error) {
	if b.resolveErr != nil {
		return nil, b.resolveErr
	}
	return &Version{Name: "sample.csv", File: "sample.csv"}, nil
}

func (b brokenStore) Download(context.Context, *Version, string) (string, error) {
	return "", b.downloadErr
}

func (b brokenStore) Create(context.Context, Metadata, string, string) (*Version, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &Version{Name: "clean_sample.csv", File: "clean_sample.csv"}, nil
}

func (b brokenStore) SetAlias(string, string, int) error {
	return b.aliasErr
}

func newRun(t *testing.T) (*tracking.Run, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "runs.jsonl")
	sink, err := tracking.NewFileSink(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	run, err := tracking.Start(context.Background(), sink, "basic_cleaning", nil)
	require.NoError(t, err)
	return run, logPath
}

func quietLogger() *utils.Logger {
	return utils.NewLoggerTo(io.Discard, io.Discard, utils.LevelError)
}

func TestGatewayFetchAndPublish(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	_, err := store.Create(ctx, Metadata{Name: "sample.csv", Type: "raw_data", Description: "raw"}, writeTemp(t, "sample.csv", "price\n10\n"), "")
	require.NoError(t, err)
	require.NoError(t, store.SetAlias("sample.csv", AliasLatest, 0))

	stages := metrics.NewStages()
	g := NewGateway(store, t.TempDir(), quietLogger(), stages)
	run, _ := newRun(t)

	path, err := g.Fetch(ctx, run, "sample.csv:latest")
	require.NoError(t, err)
	assert.FileExists(t, path)

	id, err := g.Publish(ctx, run, writeTemp(t, "clean_sample.csv", "price\n10\n"),
		Metadata{Name: "clean_sample.csv", Type: "clean_sample", Description: "Data with outliers and null values removed"})
	require.NoError(t, err)
	assert.Equal(t, "clean_sample.csv:v0", id)

	published, err := store.Resolve(ctx, Reference{Name: "clean_sample.csv", Alias: AliasLatest})
	require.NoError(t, err)
	assert.Equal(t, run.ID(), published.CreatedBy)
	assert.Equal(t, "clean_sample", published.Type)
}

func TestGatewayFetchNotFound(t *testing.T) {
	g := NewGateway(NewFileStore(t.TempDir()), t.TempDir(), quietLogger(), nil)
	run, _ := newRun(t)

	_, err := g.Fetch(context.Background(), run, "does-not-exist.csv:latest")

	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound), "got %v", err)
}

func TestGatewayFetchErrors(t *testing.T) {
	run, _ := newRun(t)

	tests := []struct {
		name  string
		store Store
		ref   string
		want  error
	}{
		{"empty reference", brokenStore{}, "", errs.ErrUsage},
		{"store unreachable", brokenStore{resolveErr: io.ErrUnexpectedEOF}, "sample.csv", errs.ErrTransfer},
		{"download fails", brokenStore{downloadErr: io.ErrShortWrite}, "sample.csv", errs.ErrTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(tt.store, t.TempDir(), quietLogger(), nil)
			_, err := g.Fetch(context.Background(), run, tt.ref)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGatewayPublishErrors(t *testing.T) {
	run, _ := newRun(t)
	meta := Metadata{Name: "clean_sample.csv", Type: "clean_sample", Description: "cleaned"}

	g := NewGateway(brokenStore{createErr: errors.New("disk full")}, t.TempDir(), quietLogger(), nil)
	_, err := g.Publish(context.Background(), run, writeTemp(t, "clean_sample.csv", "x\n"), meta)
	assert.True(t, errors.Is(err, errs.ErrPublish), "got %v", err)
	assert.ErrorContains(t, err, "disk full")

	_, err = g.Publish(context.Background(), run, filepath.Join(t.TempDir(), "missing.csv"), meta)
	assert.True(t, errors.Is(err, errs.ErrPublish), "got %v", err)

	_, err = g.Publish(context.Background(), run, writeTemp(t, "clean_sample.csv", "x\n"), Metadata{Name: "clean_sample.csv"})
	assert.True(t, errors.Is(err, errs.ErrUsage), "got %v", err)

	g = NewGateway(brokenStore{aliasErr: errors.New("read-only")}, t.TempDir(), quietLogger(), nil)
	_, err = g.Publish(context.Background(), run, writeTemp(t, "clean_sample.csv", "x\n"), meta)
	assert.True(t, errors.Is(err, errs.ErrPublish), "got %v", err)
	assert.ErrorContains(t, err, "read-only")
}

func TestGatewayPublishKeepsLatestWhenProvenanceFails(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())
	g := NewGateway(store, t.TempDir(), quietLogger(), nil)
	run, _ := newRun(t)
	require.NoError(t, run.Finish(ctx, nil))

	_, err := g.Publish(ctx, run, writeTemp(t, "clean_sample.csv", "price\n10\n"),
		Metadata{Name: "clean_sample.csv", Type: "clean_sample", Description: "cleaned"})
	assert.True(t, errors.Is(err, errs.ErrPublish), "got %v", err)

	_, err = store.Resolve(ctx, Reference{Name: "clean_sample.csv", Alias: AliasLatest})
	assert.True(t, errors.Is(err, ErrNotFound), "latest must not point at an unrecorded version: %v", err)
}
