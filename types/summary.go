package types

import (
	"fmt"
	"time"
)

// RunSummary holds the counters of one suite run.
// Discovered always equals Missing + Mismatches + ExecErrors + Succeeded() once
// every discovered case has been recorded.
type RunSummary struct {
	RunID      string
	Discovered int
	Missing    int // failures: expected output (gabarito) absent
	Mismatches int
	ExecErrors int
	Duration   time.Duration
	StartTime  time.Time
	EndTime    time.Time
}

// NewRunSummary creates an empty summary for the given run
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		StartTime: time.Now(),
	}
}

// Discover marks a new test case as discovered. It must be called once per
// case before the case is recorded.
func (s *RunSummary) Discover() {
	s.Discovered++
}

// Record updates the failure counters for a classified test case
func (s *RunSummary) Record(status TestStatus) {
	switch status {
	case TestStatusMissing:
		s.Missing++
	case TestStatusFail:
		s.Mismatches++
	case TestStatusError:
		s.ExecErrors++
	}
}

// Succeeded is the derived number of passing test cases
func (s *RunSummary) Succeeded() int {
	return s.Discovered - s.Missing - s.Mismatches - s.ExecErrors
}

// HasErrors reports whether any execution error or output mismatch occurred
func (s *RunSummary) HasErrors() bool {
	return s.Mismatches != 0 || s.ExecErrors != 0
}

// HasMissing reports whether any expected-output file was missing
func (s *RunSummary) HasMissing() bool {
	return s.Missing != 0
}

// AllPassed is true iff every discovered test case succeeded. An empty run
// passes vacuously.
func (s *RunSummary) AllPassed() bool {
	return s.Discovered == s.Succeeded()
}

// Finish stamps the end of the run
func (s *RunSummary) Finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// String returns a one-line representation of the counters
func (s *RunSummary) String() string {
	return fmt.Sprintf("Discovered: %d, Failures: %d, Mismatches: %d, Execution errors: %d, Successes: %d",
		s.Discovered, s.Missing, s.Mismatches, s.ExecErrors, s.Succeeded())
}
