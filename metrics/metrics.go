package metrics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum-optimism/infra/op-verifier/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	MetricsNamespace = "verifier"
	DefaultJobName   = "op-verifier"
)

var validResults = []types.TestStatus{
	types.TestStatusPass,
	types.TestStatusMissing,
	types.TestStatusError,
	types.TestStatusFail,
}

// Recorder holds the collectors of a single suite run. Each run gets its own
// registry so the pushed metrics only describe that run.
type Recorder struct {
	registry *prometheus.Registry

	casesTotal      *prometheus.CounterVec
	execErrorsTotal *prometheus.CounterVec
	discovered      prometheus.Gauge
	succeeded       prometheus.Gauge
	runDuration     prometheus.Gauge
	runSuccess      prometheus.Gauge
}

// NewRecorder creates a recorder backed by a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		casesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "cases_total",
			Help:      "Count of test cases by verdict",
		}, []string{
			"status",
		}),
		execErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "exec_errors_total",
			Help:      "Count of subject program execution errors by kind",
		}, []string{
			"kind",
		}),
		discovered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "cases_discovered",
			Help:      "Number of test cases discovered in the last run",
		}),
		succeeded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "cases_succeeded",
			Help:      "Number of test cases that passed in the last run",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last suite run",
		}),
		runSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "run_success",
			Help:      "1 if every discovered test case passed in the last run, 0 otherwise",
		}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordCase counts one classified test case
func (r *Recorder) RecordCase(result *types.TestResult) {
	if !isValidResult(result.Status) {
		log.Error("RecordCase - invalid result", "result", result.Status)
		return
	}
	r.casesTotal.WithLabelValues(string(result.Status)).Inc()
	if result.Status == types.TestStatusError && result.Exec != nil {
		r.execErrorsTotal.WithLabelValues(execErrorKind(result.Exec)).Inc()
	}
}

// RecordRun stores the totals of a finished run
func (r *Recorder) RecordRun(summary *types.RunSummary) {
	r.discovered.Set(float64(summary.Discovered))
	r.succeeded.Set(float64(summary.Succeeded()))
	r.runDuration.Set(summary.Duration.Seconds())
	if summary.AllPassed() {
		r.runSuccess.Set(1)
	} else {
		r.runSuccess.Set(0)
	}
}

// Push sends the collected metrics to a Prometheus Pushgateway, grouped by run ID
func (r *Recorder) Push(url, job, runID string) error {
	if job == "" {
		job = DefaultJobName
	}
	pusher := push.New(url, job).Gatherer(r.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

func execErrorKind(exec *types.ExecutionResult) string {
	var fixtureErr *types.FixtureError
	switch {
	case exec.TimedOut:
		return "timeout"
	case errors.As(exec.Err, &fixtureErr):
		return "io"
	case exec.Err != nil:
		return "launch"
	default:
		return "exit_status"
	}
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
