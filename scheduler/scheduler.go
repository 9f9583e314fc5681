package scheduler

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/pkg/errors"

	"github.com/pganalyze/querystats-collector/util"
)

type Group struct {
	interval *cronexpr.Expression
}

// NewGroup - Group that runs on the given cron expression (with seconds field)
func NewGroup(expression string) (Group, error) {
	interval, err := cronexpr.Parse(expression)
	if err != nil {
		return Group{}, errors.Wrapf(err, "invalid schedule %q", expression)
	}
	return Group{interval: interval}, nil
}

// NextRun - First scheduled time strictly after the given time
func (group Group) NextRun(after time.Time) time.Time {
	return group.interval.Next(after)
}

// WaitForNext blocks until the next scheduled time, returning false if the context
// got cancelled first
func (group Group) WaitForNext(ctx context.Context, logger *util.Logger, logName string) bool {
	now := time.Now()
	delay := group.NextRun(now).Sub(now)

	logger.PrintVerbose("Scheduled next run for %s in %+v", logName, delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
