package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pganalyze/querystats-collector/scheduler"
	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/store"
)

// failingCallSource fails the given calls (counting from zero) and otherwise
// behaves like the wrapped source
type failingCallSource struct {
	source  *fakeSource
	failing map[int]bool
	calls   int
}

func (s *failingCallSource) CollectQueryStats(ctx context.Context) ([]state.StatRecord, error) {
	call := s.calls
	s.calls++
	if s.failing[call] {
		return nil, errors.New("connection reset")
	}
	return s.source.CollectQueryStats(ctx)
}

func everySecond(t *testing.T) scheduler.Group {
	group, err := scheduler.NewGroup("* * * * * * *")
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	return group
}

func shortWarmup() func() {
	previous := FeedWarmup
	FeedWarmup = 10 * time.Millisecond
	return func() { FeedWarmup = previous }
}

func TestRunFeed(t *testing.T) {
	defer shortWarmup()()

	s := store.NewMemory()
	source := &fakeSource{snapshots: [][]state.StatRecord{
		snapshot(map[string]int64{"h1": 1}, "h1"),
		snapshot(map[string]int64{"h1": 3}, "h1"),
		snapshot(map[string]int64{"h1": 6}, "h1"),
	}}
	collector := newTestCollector(source, s)

	if err := collector.RunFeed(context.Background(), everySecond(t), 2, testLogger); err != nil {
		t.Fatalf("Error: %s", err)
	}

	runs, _ := s.ListRuns(context.Background(), 0)
	if len(runs) != 3 {
		t.Errorf("Expected the initial cycle and 2 scheduled cycles, got %d runs", len(runs))
	}
	if len(s.Results()) != 2 {
		t.Errorf("Expected 2 results, got %d", len(s.Results()))
	}
	if len(source.snapshots) != 0 {
		t.Errorf("Expected every snapshot to be collected, %d left", len(source.snapshots))
	}
}

func TestRunFeedContinuesAfterFailedCycle(t *testing.T) {
	defer shortWarmup()()

	s := store.NewMemory()
	source := &failingCallSource{
		source: &fakeSource{snapshots: [][]state.StatRecord{
			snapshot(map[string]int64{"h1": 1}, "h1"),
			snapshot(map[string]int64{"h1": 4}, "h1"),
		}},
		failing: map[int]bool{1: true},
	}
	collector := newTestCollector(nil, s)
	collector.Source = source

	if err := collector.RunFeed(context.Background(), everySecond(t), 2, testLogger); err != nil {
		t.Fatalf("Error: %s", err)
	}

	if source.calls != 3 {
		t.Errorf("Expected 3 collection attempts, got %d", source.calls)
	}
	runs, _ := s.ListRuns(context.Background(), 0)
	if len(runs) != 2 {
		t.Errorf("Expected 2 completed runs, got %d", len(runs))
	}
	results := s.Results()
	if len(results) != 1 || results[0].Metrics["execCount"] != int64(3) {
		t.Errorf("Expected the cycle after the failure to diff against the last completed run, got %v", results)
	}
	if count := testutil.ToFloat64(collector.Metrics.cycles.WithLabelValues(cycleFailed)); count != 1 {
		t.Errorf("Expected one failed cycle, got %v", count)
	}
}

func TestRunFeedCancelled(t *testing.T) {
	defer shortWarmup()()
	FeedWarmup = time.Hour

	s := store.NewMemory()
	source := &fakeSource{snapshots: [][]state.StatRecord{
		snapshot(map[string]int64{"h1": 1}, "h1"),
	}}
	collector := newTestCollector(source, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := collector.RunFeed(ctx, everySecond(t), 100, testLogger)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	runs, _ := s.ListRuns(context.Background(), 0)
	if len(runs) != 1 {
		t.Errorf("Expected only the initial cycle to run, got %d runs", len(runs))
	}
}
