package runner

import (
	"context"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/pganalyze/querystats-collector/input"
	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/store"
	"github.com/pganalyze/querystats-collector/util"
)

// Collector - Everything a collection cycle reads from and writes to
type Collector struct {
	Source  input.Source
	Store   store.Store
	Tracker *store.RunTracker
	Opts    CompareOpts

	Metrics  *CollectorMetrics
	Reporter *ErrorReporter

	// Now is the clock runs are timestamped with, time.Now when nil
	Now func() time.Time
}

// CycleResult - What a completed cycle did
type CycleResult struct {
	RunID         string
	PreviousRunID string // Empty on the first run and in seed mode
	Stored        int
	Comparison    *Comparison // nil if nothing was compared
}

func (c Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// CollectAndDiff - Takes a snapshot, stores it, diffs it against the snapshot of the
// last completed run and stores the results. The run only becomes the baseline of
// the next cycle once everything else succeeded; failures that abort the cycle
// leave the previous baseline in place.
//
// In seed mode the snapshot is stored without computing a diff.
func (c Collector) CollectAndDiff(ctx context.Context, seed bool, logger *util.Logger) (CycleResult, error) {
	var result CycleResult

	lastRunID, err := c.Tracker.LastRunID(ctx)
	if err != nil {
		return result, err
	}

	records, err := c.Source.CollectQueryStats(ctx)
	if err != nil {
		return result, errors.Wrap(err, "could not collect query statistics")
	}

	now := c.now()
	result.RunID = c.Tracker.NewRunID(now, lastRunID.String)
	for idx := range records {
		records[idx] = records[idx].Stamp(result.RunID, now)
	}

	result.Stored, err = c.Store.AppendSnapshot(ctx, records)
	if err != nil {
		var writeErr *store.WriteError
		if !errors.As(err, &writeErr) || (result.Stored == 0 && len(records) > 0) {
			return result, errors.Wrap(err, "could not store snapshot")
		}
		logger.PrintError("Error: %s", writeErr)
		c.Metrics.stored(result.Stored, writeErr.Failed())
	} else {
		c.Metrics.stored(result.Stored, 0)
	}
	logger.PrintInfo("Saved %d query shape records, run_id: %s", result.Stored, result.RunID)

	outcome := cycleCompared
	switch {
	case seed:
		logger.PrintVerbose("Seed mode, skipping comparison")
		outcome = cycleSeed
	case !lastRunID.Valid:
		logger.PrintInfo("No previous run recorded, skipping comparison until the next cycle")
		outcome = cycleBaseline
	default:
		result.PreviousRunID = lastRunID.String
		comparison, err := c.compareWithRun(ctx, records, result.RunID, lastRunID.String, logger)
		if err != nil {
			return result, err
		}
		result.Comparison = &comparison
	}

	if err = c.Tracker.RecordRun(ctx, state.Run{ID: result.RunID, Timestamp: now}); err != nil {
		return result, errors.Wrap(err, "could not record run")
	}

	c.Metrics.cycle(outcome)
	c.Metrics.completed(now)
	return result, nil
}

func (c Collector) compareWithRun(ctx context.Context, current []state.StatRecord, runID string, previousRunID string, logger *util.Logger) (Comparison, error) {
	previous, err := c.Store.FindByRun(ctx, previousRunID)
	if err != nil {
		return Comparison{}, errors.Wrapf(err, "could not load snapshot of run %s", previousRunID)
	}
	logger.PrintVerbose("Found %d records of previous run %s", len(previous), previousRunID)

	comparison := Compare(current, previous, c.Opts, logger)

	metricErrors := 0
	if merr, ok := comparison.Errors.(*multierror.Error); ok {
		for _, err := range merr.Errors {
			logger.PrintError("Error: Could not diff %s", err)
		}
		metricErrors = len(merr.Errors)
	}
	c.Metrics.compared(comparison, metricErrors)

	if len(comparison.Results) > 0 {
		written, err := c.Store.AppendResults(ctx, comparison.Results)
		if err != nil {
			var writeErr *store.WriteError
			if !errors.As(err, &writeErr) {
				return comparison, errors.Wrap(err, "could not store results")
			}
			logger.PrintError("Error: %s", writeErr)
			c.Metrics.resultsFailed(writeErr.Failed())
		}
		logger.PrintVerbose("Saved %d result records", written)
	}

	logger.PrintInfo("Compared run %s to %s: %d results, %d new query shapes, %d filtered",
		previousRunID, runID, len(comparison.Results), len(comparison.Unmatched), comparison.Filtered)

	return comparison, nil
}
