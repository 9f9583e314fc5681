package runner

import (
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/util"
)

// CompareOpts - Which records of a snapshot are eligible for diffing
type CompareOpts struct {
	MatchDatabase string // Exact database name
	MatchDriver   string // Substring of the client driver name
}

func (opts CompareOpts) matches(record state.StatRecord) bool {
	if record.Namespace.Database != opts.MatchDatabase {
		return false
	}
	return strings.Contains(record.Client.DriverName, opts.MatchDriver)
}

// Comparison - Outcome of diffing a snapshot against the previous one
type Comparison struct {
	Results []state.ResultRecord

	// Shapes that are new since the previous run, and have no baseline to diff against
	Unmatched []string

	// Records skipped because of the database or driver filter
	Filtered int

	// Records that could not be diffed, as *state.MetricError per failed metric
	Errors error
}

// findShape returns the record of the given query shape, comparing hashes exactly
func findShape(shapeHash string, candidates []state.StatRecord) (state.StatRecord, bool) {
	for _, candidate := range candidates {
		if candidate.ShapeHash == shapeHash {
			return candidate, true
		}
	}
	return state.StatRecord{}, false
}

// Compare - Diffs every eligible record of the current snapshot against the same
// query shape in the previous snapshot. Results keep the order of current.
func Compare(current []state.StatRecord, previous []state.StatRecord, opts CompareOpts, logger *util.Logger) Comparison {
	var comparison Comparison
	var errs *multierror.Error

	for _, record := range current {
		if !opts.matches(record) {
			logger.PrintVerbose("Skipping %s: database %s, driver %q", record.ShapeHash, record.Namespace.Database, record.Client.DriverName)
			comparison.Filtered++
			continue
		}

		prevRecord, found := findShape(record.ShapeHash, previous)
		if !found {
			logger.PrintVerbose("Matching %s - not found, new shape without baseline", record.ShapeHash)
			comparison.Unmatched = append(comparison.Unmatched, record.ShapeHash)
			continue
		}
		logger.PrintVerbose("Matching %s - found", record.ShapeHash)

		diff, err := record.DiffSince(prevRecord)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		comparison.Results = append(comparison.Results, state.ResultRecord{
			ShapeHash:      record.ShapeHash,
			Namespace:      record.Namespace.String(),
			Client:         record.Client.String(),
			CommandType:    record.CommandType,
			Query:          displayQuery(record, logger),
			StartTimestamp: prevRecord.CapturedAt,
			EndTimestamp:   record.CapturedAt,
			RunID:          record.RunID,
			Metrics:        diff,
			Kind:           state.RecordKindResult,
		})
	}

	comparison.Errors = errs.ErrorOrNil()
	return comparison
}

func displayQuery(record state.StatRecord, logger *util.Logger) string {
	query, err := RenderQuery(record.QueryBody)
	if err != nil {
		logger.PrintVerbose("Could not render query of %s: %s", record.ShapeHash, err)
		return fmt.Sprintf("%v", record.QueryBody)
	}
	return query
}
