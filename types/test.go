package types

import (
	"fmt"
	"strconv"
	"time"
)

// TestStatus represents the terminal classification of a test case
type TestStatus string

const (
	TestStatusPass    TestStatus = "pass"
	TestStatusMissing TestStatus = "missing" // expected output (gabarito) not found
	TestStatusError   TestStatus = "error"   // subject program failed to run or exited non-zero
	TestStatusFail    TestStatus = "fail"    // output mismatch
)

// TestCase is one (input file, expected-output file) pair
type TestCase struct {
	Index        int    // 1-based position in the sorted run order
	Name         string // input file name without its extension
	InputFile    string // input file name, as found in the input directory
	InputPath    string
	ExpectedPath string
	Label        string // display label, e.g. "test 01: add"
}

// ExecutionResult captures a single invocation of the subject program
type ExecutionResult struct {
	ExitCode        int
	Stdout          string
	Stderr          string
	StderrTruncated bool  // only the tail of stderr was kept
	StderrBytes     int64 // total bytes written to stderr, kept or not
	Duration        time.Duration
	TimedOut        bool
	Err             error // launch or I/O failure; nil when the process ran to completion
}

// FixtureError reports an input or expected-output file that exists but
// could not be read.
type FixtureError struct {
	Kind string // "input file" or "expected output"
	Path string
	Err  error
}

func (e *FixtureError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Kind, e.Err)
}

func (e *FixtureError) Unwrap() error {
	return e.Err
}

// Failed reports whether the execution must be classified as an execution error.
func (r *ExecutionResult) Failed() bool {
	return r.Err != nil || r.TimedOut || r.ExitCode != 0
}

// Reason returns a short human readable description of why the execution failed.
func (r *ExecutionResult) Reason() string {
	switch {
	case r.TimedOut:
		return fmt.Sprintf("timed out after %s", r.Duration.Round(time.Millisecond))
	case r.Err != nil:
		return r.Err.Error()
	case r.ExitCode != 0:
		return fmt.Sprintf("exit status %d", r.ExitCode)
	default:
		return ""
	}
}

// TestResult captures the verdict for one test case
type TestResult struct {
	Case     TestCase
	Status   TestStatus
	Exec     *ExecutionResult // nil when the subject program was never spawned
	Expected string           // trimmed expected output, set for mismatches
	Actual   string           // trimmed actual output, set for mismatches
}

// PaddingWidth returns the zero-padding width used for test indices, one digit
// wider than the number of digits in total.
func PaddingWidth(total int) int {
	return len(strconv.Itoa(total)) + 1
}

// FormatLabel builds the display label of a test case
func FormatLabel(index, width int, name string) string {
	return fmt.Sprintf("test %0*d: %s", width, index, name)
}
