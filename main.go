package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/ogier/pflag"

	"github.com/pganalyze/querystats-collector/config"
	"github.com/pganalyze/querystats-collector/runner"
	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/util"
)

// Startup delays up to this many seconds are ignored
const minimumWaitSeconds = 10

func main() {
	var action string
	var seed bool
	var waitSeconds int
	var runID string
	var limit int
	var configFilename string
	var verbose bool
	var quiet bool
	var logToSyslog bool
	var reload bool
	var dryRun bool

	flag.StringVarP(&action, "action", "a", state.ActionStats, "Action to run: stats, stats_feed, report or runs")
	flag.BoolVar(&seed, "seed", false, "Store a snapshot without diffing it, to establish a baseline")
	flag.IntVar(&waitSeconds, "wait", 0, "Seconds to wait before starting (ignored unless more than 10)")
	flag.StringVar(&runID, "run-id", "", "Run to report on (defaults to the latest run)")
	flag.IntVar(&limit, "limit", 0, "Number of rows to print for report and runs")
	flag.StringVar(&configFilename, "config", config.DefaultConfigFile, "Specify alternative path for config file")
	flag.BoolVarP(&verbose, "verbose", "v", false, "Outputs additional debugging information")
	flag.BoolVarP(&quiet, "quiet", "q", false, "Only outputs error messages to the logs and hides informational messages")
	flag.BoolVar(&logToSyslog, "syslog", false, "Write all log output to the system log")
	flag.BoolVar(&reload, "reload", false, "Reloads the configuration of the running collector and exits")
	flag.BoolVar(&dryRun, "dry-run", false, "Collect and diff without persisting anything")
	flag.Parse()

	logger := util.NewStderrLogger(verbose, quiet)
	if logToSyslog {
		syslogLogger, err := util.NewSyslogLogger(util.ExecutableName, verbose, quiet)
		if err != nil {
			logger.PrintError("Could not set up syslog: %s", err)
			os.Exit(1)
		}
		logger = syslogLogger
	}

	if reload {
		pid, err := util.Reload()
		if err != nil {
			logger.PrintError("Error: %s", err)
			os.Exit(1)
		}
		logger.PrintInfo("Successfully reloaded collector (PID %d)", pid)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	if waitSeconds > minimumWaitSeconds {
		logger.PrintInfo("Waiting %d seconds before starting", waitSeconds)
		select {
		case <-time.After(time.Duration(waitSeconds) * time.Second):
		case <-sigs:
			return
		}
	}

	opts := state.CollectionOpts{
		Action:                   action,
		Seed:                     seed,
		DryRun:                   dryRun,
		CollectorApplicationName: util.CollectorNameAndVersion,
		ReportRunID:              runID,
		ReportLimit:              limit,
		Output:                   os.Stdout,
	}

	for {
		conf, err := config.Read(logger, configFilename)
		if err != nil {
			logger.PrintError("Config Error: %s", err)
			os.Exit(1)
		}

		runCtx, runCancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- runner.Run(runCtx, conf, opts, logger)
		}()

		select {
		case err = <-done:
			runCancel()
			if err != nil {
				logger.PrintError("Error: %s", err)
				os.Exit(1)
			}
			return
		case sig := <-sigs:
			runCancel()
			<-done
			if sig == syscall.SIGHUP {
				logger.PrintInfo("Reloading configuration...")
				continue
			}
			fmt.Fprintln(os.Stderr)
			logger.PrintInfo("Exiting...")
			return
		}
	}
}
