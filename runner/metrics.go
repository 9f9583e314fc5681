package runner

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pganalyze/querystats-collector/util"
)

const metricsPrefix = "querystats_collector_"

// Cycle outcomes, used as the "outcome" label of the cycles counter
const (
	cycleCompared = "compared"
	cycleBaseline = "baseline"
	cycleSeed     = "seed"
	cycleFailed   = "failed"
)

// CollectorMetrics - Self-monitoring of the collector. A nil *CollectorMetrics
// records nothing.
type CollectorMetrics struct {
	cycles         *prometheus.CounterVec
	recordsStored  prometheus.Counter
	writeFailures  *prometheus.CounterVec
	results        prometheus.Counter
	unmatched      prometheus.Counter
	metricErrors   prometheus.Counter
	lastCompletion prometheus.Gauge
}

func NewCollectorMetrics(reg prometheus.Registerer) *CollectorMetrics {
	factory := promauto.With(reg)
	return &CollectorMetrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "cycles_total",
			Help: "Number of collection cycles, by outcome",
		}, []string{"outcome"}),
		recordsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "records_stored_total",
			Help: "Number of raw query shape records written",
		}),
		writeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricsPrefix + "write_failures_total",
			Help: "Number of records that could not be written",
		}, []string{"kind"}),
		results: factory.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "results_total",
			Help: "Number of result records computed",
		}),
		unmatched: factory.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "unmatched_shapes_total",
			Help: "Number of query shapes without a baseline in the previous run",
		}),
		metricErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: metricsPrefix + "metric_errors_total",
			Help: "Number of metrics that could not be diffed",
		}),
		lastCompletion: factory.NewGauge(prometheus.GaugeOpts{
			Name: metricsPrefix + "last_completed_run_timestamp_seconds",
			Help: "Time of the last completed collection cycle",
		}),
	}
}

func (m *CollectorMetrics) cycle(outcome string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
}

func (m *CollectorMetrics) stored(written int, failed int) {
	if m == nil {
		return
	}
	m.recordsStored.Add(float64(written))
	m.writeFailures.WithLabelValues("raw").Add(float64(failed))
}

func (m *CollectorMetrics) compared(comparison Comparison, metricErrors int) {
	if m == nil {
		return
	}
	m.results.Add(float64(len(comparison.Results)))
	m.unmatched.Add(float64(len(comparison.Unmatched)))
	m.metricErrors.Add(float64(metricErrors))
}

func (m *CollectorMetrics) resultsFailed(failed int) {
	if m == nil {
		return
	}
	m.writeFailures.WithLabelValues("result").Add(float64(failed))
}

func (m *CollectorMetrics) completed(at time.Time) {
	if m == nil {
		return
	}
	m.lastCompletion.Set(float64(at.Unix()))
}

// ServeMetrics exposes the registry on /metrics, and a liveness check on /health,
// until the context is done
func ServeMetrics(ctx context.Context, logger *util.Logger, addr string, gatherer prometheus.Gatherer) {
	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	serveMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	util.GoServeHTTP(ctx, logger, addr, serveMux)
}
