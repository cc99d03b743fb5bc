package reporting

import (
	"errors"

	"github.com/ethereum-optimism/infra/op-verifier/types"
)

// ResultSink is an interface for different ways of consuming test results
type ResultSink interface {
	// Begin is called once before the first test case runs
	Begin(runID string, total int) error
	// Consume processes a single classified test case
	Consume(result *types.TestResult, runID string) error
	// Complete is called when all results have been consumed
	Complete(summary *types.RunSummary) error
}

// MultiSink fans results out to several sinks, in order
type MultiSink struct {
	sinks []ResultSink
}

var _ ResultSink = (*MultiSink)(nil)

// NewMultiSink creates a sink that forwards to every non-nil sink given
func NewMultiSink(sinks ...ResultSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) Begin(runID string, total int) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Begin(runID, total))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Consume(result *types.TestResult, runID string) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Consume(result, runID))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Complete(summary *types.RunSummary) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Complete(summary))
	}
	return errors.Join(errs...)
}
