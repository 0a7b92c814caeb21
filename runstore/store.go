// Package runstore keeps a local SQLite history of prepared datasets,
// submitted training jobs, deployed endpoints and benchmark runs.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/viant/esmtune/benchmark"
	"github.com/viant/esmtune/dataset"
	"github.com/viant/esmtune/platform"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS datasets (
	name             TEXT PRIMARY KEY,
	base_url         TEXT NOT NULL,
	train_count      INTEGER NOT NULL,
	validation_count INTEGER NOT NULL,
	skipped          INTEGER NOT NULL,
	train_digest     TEXT NOT NULL,
	created_at       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS jobs (
	name           TEXT PRIMARY KEY,
	base_model     TEXT NOT NULL,
	status         TEXT NOT NULL,
	model_data_url TEXT,
	updated_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS endpoints (
	name           TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	instance_type  TEXT,
	model_data_url TEXT,
	updated_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS benchmarks (
	id          TEXT PRIMARY KEY,
	endpoint    TEXT NOT NULL,
	requests    INTEGER NOT NULL,
	concurrency INTEGER NOT NULL,
	errors      INTEGER NOT NULL,
	throughput  REAL NOT NULL,
	mean_ms     REAL NOT NULL,
	p50_ms      REAL NOT NULL,
	p90_ms      REAL NOT NULL,
	p95_ms      REAL NOT NULL,
	p99_ms      REAL NOT NULL,
	server_p50  REAL,
	server_p90  REAL,
	server_p99  REAL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS benchmarks_endpoint ON benchmarks(endpoint, created_at);
`

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (and bootstraps) a store at the DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("runstore dsn is required")
	}
	db, err := sql.Open("sqlite", ensurePragmas(dsn, true, 5000))
	if err != nil {
		return nil, fmt.Errorf("open runstore: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap runstore schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordDataset upserts a dataset manifest summary.
func (s *Store) RecordDataset(ctx context.Context, m *dataset.Manifest) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO datasets(name, base_url, train_count, validation_count, skipped, train_digest, created_at)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(name) DO UPDATE SET
	base_url=excluded.base_url, train_count=excluded.train_count,
	validation_count=excluded.validation_count, skipped=excluded.skipped,
	train_digest=excluded.train_digest, created_at=excluded.created_at`,
		m.Name, m.BaseURL, m.TrainCount, m.ValidationCount, m.Skipped, m.TrainDigest,
		m.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// RecordJob upserts a training job snapshot.
func (s *Store) RecordJob(ctx context.Context, job *platform.TrainingJob) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO jobs(name, base_model, status, model_data_url, updated_at)
VALUES(?,?,?,?,?)
ON CONFLICT(name) DO UPDATE SET
	base_model=excluded.base_model, status=excluded.status,
	model_data_url=excluded.model_data_url, updated_at=excluded.updated_at`,
		job.Name, job.BaseModel, string(job.Status), job.ModelDataURL,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// RecordEndpoint upserts an endpoint snapshot.
func (s *Store) RecordEndpoint(ctx context.Context, ep *platform.Endpoint) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO endpoints(name, status, instance_type, model_data_url, updated_at)
VALUES(?,?,?,?,?)
ON CONFLICT(name) DO UPDATE SET
	status=excluded.status, instance_type=excluded.instance_type,
	model_data_url=excluded.model_data_url, updated_at=excluded.updated_at`,
		ep.Name, string(ep.Status), ep.InstanceType, ep.ModelDataURL,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// BenchmarkRecord is one persisted benchmark run.
type BenchmarkRecord struct {
	ID          string
	Endpoint    string
	Concurrency int
	Summary     benchmark.Summary
	ServerSide  *benchmark.ServerSide
	CreatedAt   time.Time
}

// RecordBenchmark inserts a benchmark run and returns its generated ID.
func (s *Store) RecordBenchmark(ctx context.Context, rec BenchmarkRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var serverP50, serverP90, serverP99 any
	if rec.ServerSide != nil {
		serverP50, serverP90, serverP99 = rec.ServerSide.P50, rec.ServerSide.P90, rec.ServerSide.P99
	}
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	_, err := s.db.ExecContext(ctx, `
INSERT INTO benchmarks(id, endpoint, requests, concurrency, errors, throughput,
	mean_ms, p50_ms, p90_ms, p95_ms, p99_ms, server_p50, server_p90, server_p99, created_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Endpoint, rec.Summary.Count, rec.Concurrency, rec.Summary.Errors,
		rec.Summary.Throughput, ms(rec.Summary.Mean), ms(rec.Summary.P50), ms(rec.Summary.P90),
		ms(rec.Summary.P95), ms(rec.Summary.P99), serverP50, serverP90, serverP99,
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// BenchmarkRow is a summary row returned by ListBenchmarks.
type BenchmarkRow struct {
	ID         string
	Endpoint   string
	Requests   int
	Errors     int
	Throughput float64
	P50Ms      float64
	P99Ms      float64
	CreatedAt  string
}

// ListBenchmarks returns recent runs, newest first, optionally filtered by
// endpoint.
func (s *Store) ListBenchmarks(ctx context.Context, endpoint string, limit int) ([]BenchmarkRow, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, endpoint, requests, errors, throughput, p50_ms, p99_ms, created_at
FROM benchmarks`
	args := []any{}
	if endpoint != "" {
		query += ` WHERE endpoint = ?`
		args = append(args, endpoint)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BenchmarkRow
	for rows.Next() {
		var row BenchmarkRow
		if err := rows.Scan(&row.ID, &row.Endpoint, &row.Requests, &row.Errors,
			&row.Throughput, &row.P50Ms, &row.P99Ms, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// JobStatus returns the last recorded status of a job.
func (s *Store) JobStatus(ctx context.Context, name string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM jobs WHERE name = ?`, name).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}
