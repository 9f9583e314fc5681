package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/store"
)

func reportStore() *store.Memory {
	ctx := context.Background()
	s := store.NewMemory()
	s.AppendRun(ctx, state.Run{ID: "20240301-1000AB", Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)})
	s.AppendRun(ctx, state.Run{ID: "20240301-1005QX", Timestamp: time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)})
	s.AppendResults(ctx, []state.ResultRecord{
		{ShapeHash: "old", RunID: "20240301-1000AB", Kind: state.RecordKindResult, Namespace: "db.old",
			Metrics: state.Metrics{"totalExecMicros": state.Accumulator{Sum: int64(5000000)}, "execCount": int64(1)}},
		{ShapeHash: "fast", RunID: "20240301-1005QX", Kind: state.RecordKindResult, Namespace: "db.fast",
			Metrics: state.Metrics{"totalExecMicros": state.Accumulator{Sum: int64(1500000)}, "execCount": int64(30)}},
		{ShapeHash: "slow", RunID: "20240301-1005QX", Kind: state.RecordKindResult, Namespace: "db.slow",
			Metrics: state.Metrics{"totalExecMicros": state.Accumulator{Sum: int64(4000000)}, "execCount": int64(2)}},
	})
	return s
}

func TestGenerateReportLatestRun(t *testing.T) {
	var out bytes.Buffer
	if err := GenerateReport(context.Background(), reportStore(), "", 10, &out); err != nil {
		t.Fatalf("Error: %s", err)
	}
	report := out.String()

	if !strings.Contains(report, "run_id: 20240301-1005QX") {
		t.Errorf("Expected report of the latest run, got\n%s", report)
	}
	if strings.Contains(report, "db.old") {
		t.Errorf("Expected results of other runs to be left out, got\n%s", report)
	}
	slow := strings.Index(report, "db.slow")
	fast := strings.Index(report, "db.fast")
	if slow < 0 || fast < 0 || slow > fast {
		t.Errorf("Expected db.slow before db.fast, got\n%s", report)
	}
	if !strings.Contains(report, "4.000000") {
		t.Errorf("Expected execution time in seconds, got\n%s", report)
	}
}

func TestGenerateReportForRun(t *testing.T) {
	var out bytes.Buffer
	if err := GenerateReport(context.Background(), reportStore(), "20240301-1000AB", 1, &out); err != nil {
		t.Fatalf("Error: %s", err)
	}
	if !strings.Contains(out.String(), "db.old") || strings.Contains(out.String(), "db.slow") {
		t.Errorf("Expected report of the given run only, got\n%s", out.String())
	}
}

func TestGenerateReportWithoutRuns(t *testing.T) {
	var out bytes.Buffer
	if err := GenerateReport(context.Background(), store.NewMemory(), "", 10, &out); err == nil {
		t.Errorf("Expected error without any runs, got nil")
	}
}

func TestListRuns(t *testing.T) {
	var out bytes.Buffer
	if err := ListRuns(context.Background(), reportStore(), 0, &out); err != nil {
		t.Fatalf("Error: %s", err)
	}
	runs := out.String()
	newer := strings.Index(runs, "20240301-1005QX")
	older := strings.Index(runs, "20240301-1000AB")
	if newer < 0 || older < 0 || newer > older {
		t.Errorf("Expected newest run first, got\n%s", runs)
	}
}
