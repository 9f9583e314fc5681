package runner

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pganalyze/querystats-collector/config"
	"github.com/pganalyze/querystats-collector/input"
	"github.com/pganalyze/querystats-collector/scheduler"
	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/store"
	"github.com/pganalyze/querystats-collector/util"
)

// Run - Executes the requested action against the configured deployments, returning
// once it completed or the context got cancelled
func Run(ctx context.Context, conf config.Config, opts state.CollectionOpts, logger *util.Logger) error {
	reporter, err := NewErrorReporter(conf.SentryDsn)
	if err != nil {
		logger.PrintWarning("Error reporting disabled: %s", err)
	}
	defer reporter.Close()

	resultStore, err := openStore(ctx, conf, opts, logger)
	if err != nil {
		return err
	}
	defer closeStore(resultStore, logger)

	switch opts.Action {
	case state.ActionReport:
		limit := conf.ReportLimit
		if opts.ReportLimit > 0 {
			limit = opts.ReportLimit
		}
		return GenerateReport(ctx, resultStore, opts.ReportRunID, limit, opts.Output)
	case state.ActionRuns:
		return ListRuns(ctx, resultStore, opts.ReportLimit, opts.Output)
	case state.ActionStats, state.ActionStatsFeed:
	default:
		return fmt.Errorf("unknown action %q", opts.Action)
	}

	sourceURI, err := conf.Source.GetURI()
	if err != nil {
		return errors.Wrap(err, "source")
	}
	sourceClient, err := util.ConnectMongo(ctx, sourceURI, opts.CollectorApplicationName)
	if err != nil {
		return errors.Wrap(err, "could not connect to source deployment")
	}
	source := input.NewQueryStatsSource(sourceClient, conf.Source.Database, logger)
	defer source.Close(context.Background())

	stateFilename := conf.StateFilename
	if opts.DryRun {
		stateFilename = ""
	}

	collector := Collector{
		Source:   source,
		Store:    resultStore,
		Tracker:  store.NewRunTracker(stateFilename, resultStore, logger),
		Opts:     CompareOpts{MatchDatabase: conf.MatchDatabase, MatchDriver: conf.MatchDriver},
		Reporter: reporter,
	}

	if conf.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		collector.Metrics = NewCollectorMetrics(registry)
		ServeMetrics(ctx, logger, conf.MetricsAddr, registry)
	}

	if opts.Action == state.ActionStatsFeed {
		group, err := scheduler.NewGroup(conf.FeedInterval)
		if err != nil {
			return err
		}
		return collector.RunFeed(ctx, group, conf.FeedIterations, logger)
	}

	_, err = collector.CollectAndDiff(ctx, opts.Seed, logger)
	if err != nil {
		collector.Metrics.cycle(cycleFailed)
		reporter.Report(err, map[string]string{"action": opts.Action})
	}
	return err
}

func openStore(ctx context.Context, conf config.Config, opts state.CollectionOpts, logger *util.Logger) (store.Store, error) {
	if opts.DryRun {
		logger.PrintInfo("Dry run, nothing will be persisted")
		return store.NewMemory(), nil
	}

	uri, err := conf.Logger.GetURI()
	if err != nil {
		return nil, errors.Wrap(err, "logger")
	}
	client, err := util.ConnectMongo(ctx, uri, opts.CollectorApplicationName)
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to logger deployment")
	}
	return store.NewMongo(client, conf.Logger.Database, conf.Logger.Collection, logger), nil
}

func closeStore(s store.Store, logger *util.Logger) {
	if err := s.Close(context.Background()); err != nil {
		logger.PrintWarning("Could not close store: %s", err)
	}
}
