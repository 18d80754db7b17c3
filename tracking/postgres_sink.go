package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"basic-cleaning/utils"
)

// PostgresSink persists run provenance to PostgreSQL.
type PostgresSink struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, retrying the initial ping, and runs schema migrations.
func OpenPostgres(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresSink{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresSink) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT        PRIMARY KEY,
			job_type    TEXT        NOT NULL,
			config      JSONB       NOT NULL DEFAULT '{}',
			status      VARCHAR(16) NOT NULL,
			message     TEXT        NOT NULL DEFAULT '',
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS run_artifacts (
			id          SERIAL      PRIMARY KEY,
			run_id      TEXT        NOT NULL REFERENCES runs(id),
			direction   VARCHAR(8)  NOT NULL,
			name        TEXT        NOT NULL,
			version     TEXT        NOT NULL,
			type        TEXT        NOT NULL DEFAULT '',
			digest      TEXT        NOT NULL DEFAULT '',
			size        BIGINT      NOT NULL DEFAULT 0,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS run_summary (
			run_id TEXT             NOT NULL REFERENCES runs(id),
			key    TEXT             NOT NULL,
			value  DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, key)
		);

		CREATE INDEX IF NOT EXISTS idx_run_artifacts_run  ON run_artifacts(run_id);
		CREATE INDEX IF NOT EXISTS idx_run_artifacts_name ON run_artifacts(name, version);
	`)
	return err
}

func (ps *PostgresSink) StartRun(ctx context.Context, info RunInfo) error {
	cfg, err := json.Marshal(info.Config)
	if err != nil {
		return fmt.Errorf("postgres: encode config: %w", err)
	}
	_, err = ps.db.ExecContext(ctx, `
		INSERT INTO runs (id, job_type, config, status, started_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)
	`, info.ID, info.JobType, string(cfg), StatusRunning, info.StartedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}
	return nil
}

func (ps *PostgresSink) RecordArtifact(ctx context.Context, runID string, rec ArtifactRecord) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO run_artifacts (run_id, direction, name, version, type, digest, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, runID, rec.Direction, rec.Name, rec.Version, rec.Type, rec.Digest, rec.Size)
	if err != nil {
		return fmt.Errorf("postgres: insert run artifact: %w", err)
	}
	return nil
}

func (ps *PostgresSink) RecordSummary(ctx context.Context, runID string, values map[string]float64) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	for k, v := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_summary (run_id, key, value)
			VALUES ($1, $2, $3)
			ON CONFLICT (run_id, key) DO UPDATE SET value = EXCLUDED.value
		`, runID, k, v); err != nil {
			return fmt.Errorf("postgres: upsert summary %q: %w", k, err)
		}
	}
	return tx.Commit()
}

func (ps *PostgresSink) FinishRun(ctx context.Context, runID string, status Status, message string, at time.Time) error {
	res, err := ps.db.ExecContext(ctx, `
		UPDATE runs SET status = $2, message = $3, finished_at = $4 WHERE id = $1
	`, runID, status, message, at)
	if err != nil {
		return fmt.Errorf("postgres: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

// runArtifacts returns the provenance records of a run in insertion order.
func (ps *PostgresSink) runArtifacts(ctx context.Context, runID string) ([]ArtifactRecord, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT direction, name, version, type, digest, size
		FROM run_artifacts
		WHERE run_id = $1
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch run artifacts: %w", err)
	}
	defer rows.Close()

	var out []ArtifactRecord
	for rows.Next() {
		var rec ArtifactRecord
		if err := rows.Scan(&rec.Direction, &rec.Name, &rec.Version, &rec.Type, &rec.Digest, &rec.Size); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (ps *PostgresSink) Close() error {
	return ps.db.Close()
}
