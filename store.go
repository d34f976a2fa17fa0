package cleave

import "context"

// RunStore persists run history.
type RunStore interface {
	// Init creates the required schema.
	Init(ctx context.Context) error
	// SaveRun stores one completed run with its chunks.
	SaveRun(ctx context.Context, rec RunRecord) error
	// ListRuns returns the most recent runs, newest first, without chunks.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}
