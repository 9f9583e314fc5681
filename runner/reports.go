package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/pganalyze/querystats-collector/store"
)

// GenerateReport - Prints the query shapes of a run that accrued the most execution
// time. Without a run ID the latest run is used.
func GenerateReport(ctx context.Context, s store.Store, runID string, limit int, w io.Writer) error {
	if runID == "" {
		run, found, err := s.LatestRun(ctx)
		if err != nil {
			return err
		}
		if !found {
			return errors.New("no runs recorded yet")
		}
		runID = run.ID
	}

	rows, err := s.TopResults(ctx, runID, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Top %d query shapes by execution time, run_id: %s\n\n", len(rows), runID)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Exec Time (s)", "Count", "Namespace", "Client", "Query"})
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, row := range rows {
		count := ""
		if row.ExecCount != nil {
			count = fmt.Sprintf("%v", row.ExecCount)
		}
		table.Append([]string{
			fmt.Sprintf("%.6f", row.ExecSeconds),
			count,
			row.Namespace,
			row.Client,
			row.Query,
		})
	}
	table.Render()

	return nil
}

// ListRuns - Prints the most recent runs, newest first
func ListRuns(ctx context.Context, s store.Store, limit int, w io.Writer) error {
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run ID", "Timestamp"})
	for _, run := range runs {
		table.Append([]string{run.ID, run.Timestamp.UTC().Format(time.RFC3339)})
	}
	table.Render()

	return nil
}
