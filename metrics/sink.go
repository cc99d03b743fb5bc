package metrics

import (
	"github.com/ethereum-optimism/infra/op-verifier/types"
	"github.com/ethereum/go-ethereum/log"
)

// Sink records test results as Prometheus metrics and, when a Pushgateway URL
// is configured, pushes them once the run is complete.
type Sink struct {
	recorder *Recorder
	pushURL  string
	job      string
	log      log.Logger
}

// NewSink creates a metrics sink. An empty pushURL keeps the metrics local.
func NewSink(recorder *Recorder, pushURL, job string, logger log.Logger) *Sink {
	if recorder == nil {
		recorder = NewRecorder()
	}
	if logger == nil {
		logger = log.New()
	}
	return &Sink{
		recorder: recorder,
		pushURL:  pushURL,
		job:      job,
		log:      logger,
	}
}

func (s *Sink) Begin(runID string, total int) error {
	return nil
}

func (s *Sink) Consume(result *types.TestResult, runID string) error {
	s.recorder.RecordCase(result)
	return nil
}

// Complete records the run totals and pushes them. A failed push is logged
// and never fails the run.
func (s *Sink) Complete(summary *types.RunSummary) error {
	s.recorder.RecordRun(summary)
	if s.pushURL == "" {
		return nil
	}
	if err := s.recorder.Push(s.pushURL, s.job, summary.RunID); err != nil {
		s.log.Warn("Failed to push metrics", "url", s.pushURL, "err", err)
		return nil
	}
	s.log.Debug("Pushed metrics", "url", s.pushURL, "run_id", summary.RunID)
	return nil
}
