package store

import (
	"context"
	"sort"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/pganalyze/querystats-collector/state"
)

// ErrWriteRejected - Returned for records listed in Memory.FailKeys
var ErrWriteRejected = errors.New("write rejected")

// Memory - Store kept in process memory, used for dry runs and tests
type Memory struct {
	// FailKeys - Writes of records with these shape hashes fail
	FailKeys map[string]bool
	// Unavailable - When set, every call fails with this error
	Unavailable error

	mu      sync.Mutex
	raw     []state.StatRecord
	results []state.ResultRecord
	runs    []state.Run
}

func NewMemory() *Memory {
	return &Memory{FailKeys: make(map[string]bool)}
}

func (m *Memory) AppendSnapshot(ctx context.Context, records []state.StatRecord) (int, error) {
	if m.Unavailable != nil {
		return 0, m.Unavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var failed []string
	var result *multierror.Error
	for _, record := range records {
		if m.FailKeys[record.ShapeHash] {
			failed = append(failed, record.ShapeHash)
			result = multierror.Append(result, errors.Wrapf(ErrWriteRejected, "query shape %s", record.ShapeHash))
			continue
		}
		m.raw = append(m.raw, record)
	}

	written := len(records) - len(failed)
	if len(failed) > 0 {
		return written, &WriteError{Attempted: len(records), Keys: failed, Err: result.ErrorOrNil()}
	}
	return written, nil
}

func (m *Memory) FindByRun(ctx context.Context, runID string) ([]state.StatRecord, error) {
	if m.Unavailable != nil {
		return nil, m.Unavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []state.StatRecord
	for _, record := range m.raw {
		if record.RunID == runID && record.Kind == state.RecordKindRaw {
			records = append(records, record)
		}
	}
	return records, nil
}

func (m *Memory) AppendResults(ctx context.Context, results []state.ResultRecord) (int, error) {
	if m.Unavailable != nil {
		return 0, m.Unavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var failed []string
	for _, result := range results {
		if m.FailKeys[result.ShapeHash] {
			failed = append(failed, result.ShapeHash)
			continue
		}
		m.results = append(m.results, result)
	}

	written := len(results) - len(failed)
	if len(failed) > 0 {
		return written, &WriteError{Attempted: len(results), Keys: failed, Err: ErrWriteRejected}
	}
	return written, nil
}

// Results - All result records written so far, in write order
func (m *Memory) Results() []state.ResultRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]state.ResultRecord(nil), m.results...)
}

func (m *Memory) AppendRun(ctx context.Context, run state.Run) error {
	if m.Unavailable != nil {
		return m.Unavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) LatestRun(ctx context.Context) (state.Run, bool, error) {
	runs, err := m.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return state.Run{}, false, err
	}
	return runs[0], true, nil
}

func (m *Memory) ListRuns(ctx context.Context, limit int) ([]state.Run, error) {
	if m.Unavailable != nil {
		return nil, m.Unavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// Newest first, later appends win ties
	runs := make([]state.Run, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		runs = append(runs, m.runs[i])
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *Memory) TopResults(ctx context.Context, runID string, limit int) ([]state.ReportRow, error) {
	if m.Unavailable != nil {
		return nil, m.Unavailable
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []state.ReportRow
	for _, result := range m.results {
		if result.RunID == runID && result.Kind == state.RecordKindResult {
			rows = append(rows, result.ReportRow())
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ExecSeconds > rows[j].ExecSeconds
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
