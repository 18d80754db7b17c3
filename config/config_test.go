package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basic-cleaning/errs"
)

func fullArgs() []string {
	return []string{
		"--input_artifact", "sample.csv:latest",
		"--output_artifact", "clean_sample.csv",
		"--output_type", "clean_sample",
		"--output_description", "Data with outliers and null values removed",
		"--min_price", "10",
		"--max_price", "350.5",
	}
}

func TestParseArgs(t *testing.T) {
	a, err := ParseArgs(fullArgs(), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "sample.csv:latest", a.InputArtifact)
	assert.Equal(t, "clean_sample", a.OutputType)
	assert.Equal(t, 10.0, a.MinPrice)
	assert.Equal(t, 350.5, a.MaxPrice)
	assert.Equal(t, 350.5, a.Values()["max_price"])
}

func TestParseArgsMissing(t *testing.T) {
	for i := 0; i < len(fullArgs()); i += 2 {
		args := fullArgs()
		args = append(args[:i:i], args[i+2:]...)

		_, err := ParseArgs(args, io.Discard)
		assert.True(t, errors.Is(err, errs.ErrUsage), "dropping %s: %v", fullArgs()[i], err)
	}
}

func TestParseArgsBadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"non numeric price", append(fullArgs()[:10:10], "--max_price", "lots")},
		{"nan price", append(fullArgs()[:10:10], "--max_price", "NaN")},
		{"infinite max price", append(fullArgs()[:10:10], "--max_price", "inf")},
		{"infinite min price", append(fullArgs()[:8:8], "--min_price", "-Inf", "--max_price", "100")},
		{"empty string", append(fullArgs()[2:], "--input_artifact", " ")},
		{"unknown flag", append(fullArgs(), "--verbose")},
		{"positional", append(fullArgs(), "extra")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(tt.args, io.Discard)
			assert.True(t, errors.Is(err, errs.ErrUsage), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	for _, k := range []string{"ARTIFACT_ROOT", "ARTIFACT_CACHE_DIR", "TRACKING_LOG", "OUTPUT_FILE", "TRACKING_CONNECT_RETRIES", "JOB_TYPE"} {
		t.Setenv(k, "")
	}
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ARTIFACT_ROOT=/srv/artifacts\nTRACKING_CONNECT_RETRIES=2\n"), 0644))

	cfg, err := loadFile(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/srv/artifacts", cfg.ArtifactRoot)
	assert.Equal(t, filepath.Join("/srv/artifacts", ".cache"), cfg.ArtifactCacheDir)
	assert.Equal(t, filepath.Join("/srv/artifacts", "runs.jsonl"), cfg.TrackingLog)
	assert.Equal(t, 2, cfg.TrackingConnectRetries)
	assert.Equal(t, "clean_sample.csv", cfg.OutputFile)
	assert.Equal(t, "basic_cleaning", cfg.JobType)
}

func TestDefaultsStayOutOfSourceTree(t *testing.T) {
	for _, k := range []string{"ARTIFACT_ROOT", "ARTIFACT_CACHE_DIR", "TRACKING_LOG"} {
		t.Setenv(k, "")
	}
	cfg := fromEnv()

	assert.Equal(t, "./artifact_store", cfg.ArtifactRoot)
	assert.Equal(t, filepath.Join("artifact_store", "runs.jsonl"), cfg.TrackingLog)
}
