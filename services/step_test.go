package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basic-cleaning/artifacts"
	"basic-cleaning/config"
	"basic-cleaning/errs"
	"basic-cleaning/metrics"
	"basic-cleaning/tracking"
)

type stepFixture struct {
	store   *artifacts.FileStore
	step    *Step
	run     *tracking.Run
	logPath string
	outFile string
}

func newStepFixture(t *testing.T, raw string) *stepFixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	store := artifacts.NewFileStore(filepath.Join(dir, "store"))
	if raw != "" {
		src := filepath.Join(dir, "sample.csv")
		require.NoError(t, os.WriteFile(src, []byte(raw), 0644))
		v, err := store.Create(ctx, artifacts.Metadata{Name: "sample.csv", Type: "raw_data", Description: "raw"}, src, "")
		require.NoError(t, err)
		require.NoError(t, store.SetAlias(v.Name, artifacts.AliasLatest, v.Version))
	}

	logPath := filepath.Join(dir, "runs.jsonl")
	sink, err := tracking.NewFileSink(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	run, err := tracking.Start(ctx, sink, "basic_cleaning", nil)
	require.NoError(t, err)

	stages := metrics.NewStages()
	logger := newTestLogger()
	gateway := artifacts.NewGateway(store, filepath.Join(dir, "cache"), logger, stages)
	outFile := filepath.Join(dir, "work", "clean_sample.csv")

	return &stepFixture{
		store:   store,
		step:    NewStep(gateway, NewCleaner(logger, stages), logger, outFile),
		run:     run,
		logPath: logPath,
		outFile: outFile,
	}
}

func (f *stepFixture) events(t *testing.T) []string {
	t.Helper()
	fh, err := os.Open(f.logPath)
	require.NoError(t, err)
	defer fh.Close()

	var out []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		var ev tracking.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		out = append(out, ev.Event)
	}
	return out
}

func stepArgs(minPrice, maxPrice float64) *config.Args {
	return &config.Args{
		InputArtifact:     "sample.csv:latest",
		OutputArtifact:    "clean_sample.csv",
		OutputType:        "clean_sample",
		OutputDescription: "Data with outliers and null values removed",
		MinPrice:          minPrice,
		MaxPrice:          maxPrice,
	}
}

func TestStepRunPublishesCleanedData(t *testing.T) {
	f := newStepFixture(t, testHeader+
		"1,a,50,2019-01-01,-73.9,40.7\n"+
		"2,b,5,,-73.9,40.7\n"+
		"3,c,50,,-75.0,40.7\n")

	res, err := f.step.Run(context.Background(), f.run, stepArgs(10, 100))
	require.NoError(t, err)

	assert.Equal(t, "clean_sample.csv:v0", res.VersionID)
	assert.Equal(t, 3, res.Summary.RowsLoaded)
	assert.Equal(t, 1, res.Summary.RowsAfterGeo)

	v, err := f.store.Resolve(context.Background(), artifacts.Reference{Name: "clean_sample.csv", Alias: "v0"})
	require.NoError(t, err)
	path, err := f.store.Download(context.Background(), v, t.TempDir())
	require.NoError(t, err)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testHeader+"1,a,50,2019-01-01,-73.9,40.7\n", string(body))

	assert.Equal(t, []string{"run_started", "artifact_used", "summary", "artifact_logged"}, f.events(t))
}

func TestStepRunInvalidRange(t *testing.T) {
	f := newStepFixture(t, testHeader+"1,a,50,,-73.9,40.7\n")

	_, err := f.step.Run(context.Background(), f.run, stepArgs(100, 10))

	assert.True(t, errors.Is(err, errs.ErrInvalidRange), "got %v", err)
	assert.NoFileExists(t, f.outFile)
	_, err = f.store.Resolve(context.Background(), artifacts.Reference{Name: "clean_sample.csv", Alias: "latest"})
	assert.True(t, errors.Is(err, artifacts.ErrNotFound))
	assert.Equal(t, []string{"run_started"}, f.events(t), "nothing fetched or published")
}

func TestStepRunMissingInputArtifact(t *testing.T) {
	f := newStepFixture(t, "")

	_, err := f.step.Run(context.Background(), f.run, stepArgs(10, 100))

	assert.True(t, errors.Is(err, errs.ErrArtifactNotFound), "got %v", err)
	assert.NoFileExists(t, f.outFile)
}

func TestStepRunMalformedInputPublishesNothing(t *testing.T) {
	f := newStepFixture(t, "id,price\n1,50\n")

	_, err := f.step.Run(context.Background(), f.run, stepArgs(10, 100))

	assert.True(t, errors.Is(err, errs.ErrMalformedInput), "got %v", err)
	_, err = f.store.Resolve(context.Background(), artifacts.Reference{Name: "clean_sample.csv", Alias: "latest"})
	assert.True(t, errors.Is(err, artifacts.ErrNotFound))
}
