package store

import (
	"context"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/guregu/null"
	"github.com/pkg/errors"

	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/util"
)

// RunTracker - Remembers the most recently completed run, so the next cycle knows
// which snapshot to diff against. Only a single run is retained.
//
// The marker file is the fast path on cycle start, the store's run audit trail is
// the fallback when the file is missing.
type RunTracker struct {
	stateFilename string
	store         Store
	logger        *util.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRunTracker(stateFilename string, store Store, logger *util.Logger) *RunTracker {
	return &RunTracker{
		stateFilename: stateFilename,
		store:         store,
		logger:        logger,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewRunID - See state.NewRunID. Never returns previous, runs in the same minute
// must not share a snapshot.
func (t *RunTracker) NewRunID(now time.Time, previous string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	runID := state.NewRunID(now, t.rnd)
	for runID == previous {
		runID = state.NewRunID(now, t.rnd)
	}
	return runID
}

// LastRunID - Identifier of the last completed run. The result is not valid if no
// run was ever completed, which callers must treat as the first run, not as an
// empty snapshot.
func (t *RunTracker) LastRunID(ctx context.Context) (null.String, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stateFilename != "" {
		run, found, err := state.ReadStateFile(t.stateFilename)
		if err != nil {
			t.logger.PrintWarning("Could not read last run from %s, falling back to run history: %s", t.stateFilename, err)
		} else if found {
			return null.NewString(run.ID, true), nil
		}
	}

	run, found, err := t.store.LatestRun(ctx)
	if err != nil {
		return null.NewString("", false), errors.Wrap(err, "could not look up last run")
	}
	if !found {
		return null.NewString("", false), nil
	}
	return null.NewString(run.ID, true), nil
}

// RecordRun - Makes the given run the baseline of the next cycle
func (t *RunTracker) RecordRun(ctx context.Context, run state.Run) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.AppendRun(ctx, run); err != nil {
		return err
	}

	if t.stateFilename == "" {
		return nil
	}
	if err := state.WriteStateFile(t.stateFilename, run); err != nil {
		t.logger.PrintWarning("Could not write last run to %s: %s", t.stateFilename, err)
		// A stale marker would point the next cycle at the wrong baseline
		if removeErr := os.Remove(t.stateFilename); removeErr != nil && !os.IsNotExist(removeErr) {
			return errors.Wrap(removeErr, "could not remove outdated state file")
		}
	}
	return nil
}
