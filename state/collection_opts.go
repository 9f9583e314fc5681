package state

import "io"

// Actions the collector can be started with
const (
	ActionStats     = "stats"
	ActionStatsFeed = "stats_feed"
	ActionReport    = "report"
	ActionRuns      = "runs"
)

type CollectionOpts struct {
	Action string

	// Store the snapshot without diffing it, to establish a baseline
	Seed bool

	// Use an in-memory store and don't touch the state file
	DryRun bool

	CollectorApplicationName string

	ReportRunID string
	ReportLimit int // Overrides the configured report limit when positive
	Output      io.Writer
}
