package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the environment-level settings of the step. Per-invocation
// parameters come from the command line, see Args.
type Config struct {
	ArtifactRoot     string
	ArtifactCacheDir string

	TrackingDSN            string
	TrackingLog            string
	TrackingConnectRetries int

	JobType         string
	OutputFile      string
	MetricsTextfile string
	LogLevel        string
}

// Load reads the .env file, if any, and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return fromEnv()
}

// loadFile reads settings from the given env files instead of ./.env. Values in
// the files take precedence over the process environment.
func loadFile(paths ...string) (*Config, error) {
	if err := godotenv.Overload(paths...); err != nil {
		return nil, err
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	root := getEnv("ARTIFACT_ROOT", "./artifact_store")
	return &Config{
		ArtifactRoot:     root,
		ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", filepath.Join(root, ".cache")),

		TrackingDSN:            getEnv("TRACKING_DSN", ""),
		TrackingLog:            getEnv("TRACKING_LOG", filepath.Join(root, "runs.jsonl")),
		TrackingConnectRetries: getEnvInt("TRACKING_CONNECT_RETRIES", 5),

		JobType:         getEnv("JOB_TYPE", "basic_cleaning"),
		OutputFile:      getEnv("OUTPUT_FILE", "clean_sample.csv"),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
