package runner

import (
	"context"
	"time"

	"github.com/pganalyze/querystats-collector/scheduler"
	"github.com/pganalyze/querystats-collector/util"
)

// FeedWarmup - Pause between the initial cycle of a feed and the first scheduled one,
// so the first diff is available right away
var FeedWarmup = 2 * time.Second

// RunFeed - Runs one cycle immediately and then the given number of further cycles,
// the first after FeedWarmup, each following one on the group's schedule. A failed
// cycle is logged and reported, the next cycle retries against the same baseline.
func (c Collector) RunFeed(ctx context.Context, group scheduler.Group, iterations int, logger *util.Logger) error {
	c.runFeedCycle(ctx, 0, logger)

	timer := time.NewTimer(FeedWarmup)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}

	for k := 1; k <= iterations; k++ {
		c.runFeedCycle(ctx, k, logger)
		if k == iterations {
			break
		}
		if !group.WaitForNext(ctx, logger, "stats feed") {
			return ctx.Err()
		}
	}

	logger.PrintInfo("Stats feed completed %d iterations", iterations)
	return nil
}

func (c Collector) runFeedCycle(ctx context.Context, iteration int, logger *util.Logger) {
	result, err := c.CollectAndDiff(ctx, false, logger)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.Metrics.cycle(cycleFailed)
		logger.PrintError("Error: Cycle %d failed: %s", iteration, err)
		c.Reporter.Report(err, map[string]string{"action": "stats_feed"})
		return
	}
	logger.PrintVerbose("Cycle %d completed as run %s", iteration, result.RunID)
}
