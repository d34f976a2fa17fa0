// Package sqlite implements cleave.RunStore using pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	cleave "github.com/avesind/cleave"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. If not set, no logs
// are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store implements cleave.RunStore backed by a local SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ cleave.RunStore = (*Store)(nil)

// New creates a Store using a local SQLite file at dbPath. A single shared
// connection serializes writers, avoiding SQLITE_BUSY from concurrent
// connections.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init creates all required tables.
func (s *Store) Init(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			instruction TEXT NOT NULL,
			chunk_count INTEGER NOT NULL,
			output_length INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_chunks (
			run_id TEXT NOT NULL REFERENCES runs(id),
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (run_id, chunk_index)
		)`,
	}
	for _, stmt := range tables {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: init: %w", err)
		}
	}
	s.logger.Debug("sqlite: schema ready")
	return nil
}

// SaveRun stores one run and its chunks in a single transaction.
func (s *Store) SaveRun(ctx context.Context, rec cleave.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, instruction, chunk_count, output_length, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Instruction, rec.ChunkCount, rec.OutputLength, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("sqlite: insert run: %w", err)
	}
	for i, chunk := range rec.Chunks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_chunks (run_id, chunk_index, content) VALUES (?, ?, ?)`,
			rec.ID, i, chunk)
		if err != nil {
			return fmt.Errorf("sqlite: insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	s.logger.Debug("sqlite: run saved", "id", rec.ID, "chunks", len(rec.Chunks))
	return nil
}

// ListRuns returns the most recent runs, newest first, without chunks.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]cleave.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, instruction, chunk_count, output_length, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list runs: %w", err)
	}
	defer rows.Close()

	var recs []cleave.RunRecord
	for rows.Next() {
		var rec cleave.RunRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Instruction, &rec.ChunkCount, &rec.OutputLength, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan run: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// nopLogger discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
