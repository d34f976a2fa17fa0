// Package postgres implements cleave.RunStore using PostgreSQL.
//
// The Store accepts an externally-owned *pgxpool.Pool via constructor
// injection; the caller creates and closes the pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	cleave "github.com/avesind/cleave"
)

// Store implements cleave.RunStore backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ cleave.RunStore = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool. The caller owns the
// pool and is responsible for closing it.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates all required tables.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			instruction TEXT NOT NULL,
			chunk_count INT NOT NULL,
			output_length INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_chunks (
			run_id TEXT NOT NULL REFERENCES runs(id),
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (run_id, chunk_index)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}
	return nil
}

// SaveRun stores one run and its chunks in a single transaction.
func (s *Store) SaveRun(ctx context.Context, rec cleave.RunRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, instruction, chunk_count, output_length, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Instruction, rec.ChunkCount, rec.OutputLength, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}
	for i, chunk := range rec.Chunks {
		_, err = tx.Exec(ctx,
			`INSERT INTO run_chunks (run_id, chunk_index, content) VALUES ($1, $2, $3)`,
			rec.ID, i, chunk)
		if err != nil {
			return fmt.Errorf("postgres: insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, without chunks.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]cleave.RunRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, instruction, chunk_count, output_length, created_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	var recs []cleave.RunRecord
	for rows.Next() {
		var rec cleave.RunRecord
		if err := rows.Scan(&rec.ID, &rec.Instruction, &rec.ChunkCount, &rec.OutputLength, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close is a no-op; the pool is owned by the caller.
func (s *Store) Close() error { return nil }
