// Package store persists snapshots, results and the run audit trail.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pganalyze/querystats-collector/state"
)

// Store - Append-only persistence of raw snapshots and computed results
type Store interface {
	// AppendSnapshot writes every record, even if some fail. Partial failures are
	// returned as *WriteError together with the number of records written.
	AppendSnapshot(ctx context.Context, records []state.StatRecord) (int, error)
	// FindByRun returns the raw records stored for a run
	FindByRun(ctx context.Context, runID string) ([]state.StatRecord, error)
	AppendResults(ctx context.Context, results []state.ResultRecord) (int, error)

	AppendRun(ctx context.Context, run state.Run) error
	// LatestRun returns the most recently appended run, found is false if there is none
	LatestRun(ctx context.Context) (run state.Run, found bool, err error)
	ListRuns(ctx context.Context, limit int) ([]state.Run, error)

	// TopResults returns the result records of a run with the highest execution time first
	TopResults(ctx context.Context, runID string, limit int) ([]state.ReportRow, error)

	Close(ctx context.Context) error
}

// WriteError - Some records of a batch could not be written
type WriteError struct {
	Attempted int
	Keys      []string // Shape hashes of the records that failed
	Err       error
}

func (e *WriteError) Failed() int {
	return len(e.Keys)
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%d of %d records failed to write (%s): %s", e.Failed(), e.Attempted, strings.Join(e.Keys, ", "), e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
