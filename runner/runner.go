package runner

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-verifier/discovery"
	"github.com/ethereum-optimism/infra/op-verifier/reporting"
	"github.com/ethereum-optimism/infra/op-verifier/types"
)

// SuiteRunner defines the interface for running the input/expected-output suite
type SuiteRunner interface {
	// RunSuite discovers every test case, classifies each one in order and
	// reports it to the configured sink.
	RunSuite(ctx context.Context) (*types.RunSummary, error)
	// RunCase classifies a single test case without reporting it.
	RunCase(ctx context.Context, tc types.TestCase) *types.TestResult
}

// Config holds configuration for creating a new runner
type Config struct {
	Log            log.Logger
	Subject        string        // path to the program under test
	InputDir       string        // directory holding the input files
	ExpectedDir    string        // directory holding the expected-output files
	InputExt       string        // input file extension, defaults to ".txt"
	ExpectedSuffix string        // expected-output name suffix, defaults to "_OUT"
	Timeout        time.Duration // per test case, 0 = unbounded
	Sink           reporting.ResultSink
	Executor       SubjectExecutor // built from Subject and Timeout when nil
	CmdBuilder     CommandBuilder  // used only when Executor is nil
}

// suiteRunner implements SuiteRunner
type suiteRunner struct {
	log       log.Logger
	discovery discovery.Config
	executor  SubjectExecutor
	sink      reporting.ResultSink
	tracer    trace.Tracer
}

var _ SuiteRunner = (*suiteRunner)(nil)

// NewSuiteRunner creates a new suite runner instance
func NewSuiteRunner(cfg Config) (SuiteRunner, error) {
	if cfg.InputDir == "" {
		return nil, fmt.Errorf("input directory is required")
	}
	if cfg.ExpectedDir == "" {
		return nil, fmt.Errorf("expected directory is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("result sink is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	executor := cfg.Executor
	if executor == nil {
		var err error
		executor, err = NewSubjectExecutor(cfg.Subject, cfg.Timeout, cfg.CmdBuilder, cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to create subject executor: %w", err)
		}
	}

	cfg.Log.Debug("NewSuiteRunner()", "subject", cfg.Subject, "inputDir", cfg.InputDir,
		"expectedDir", cfg.ExpectedDir, "inputExt", cfg.InputExt, "timeout", cfg.Timeout)

	return &suiteRunner{
		log: cfg.Log,
		discovery: discovery.Config{
			Log:            cfg.Log,
			InputDir:       cfg.InputDir,
			ExpectedDir:    cfg.ExpectedDir,
			InputExt:       cfg.InputExt,
			ExpectedSuffix: cfg.ExpectedSuffix,
		},
		executor: executor,
		sink:     cfg.Sink,
		tracer:   otel.Tracer("suite runner"),
	}, nil
}

// RunSuite runs the program at subject against every input in inputDir using
// the default layout conventions, reporting to sink.
func RunSuite(ctx context.Context, subject, inputDir, expectedDir string, sink reporting.ResultSink) (*types.RunSummary, error) {
	r, err := NewSuiteRunner(Config{
		Subject:     subject,
		InputDir:    inputDir,
		ExpectedDir: expectedDir,
		Sink:        sink,
		Log:         log.Root(),
	})
	if err != nil {
		return nil, err
	}
	return r.RunSuite(ctx)
}

// RunSuite implements the SuiteRunner interface
func (r *suiteRunner) RunSuite(ctx context.Context) (*types.RunSummary, error) {
	runID := uuid.New().String()
	ctx, span := r.tracer.Start(ctx, "run suite", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	summary := types.NewRunSummary(runID)
	r.log.Info("Running test suite", "run_id", runID, "input_dir", r.discovery.InputDir)

	cases, err := discovery.Discover(r.discovery)
	if err != nil {
		// An unreadable input directory is reported as an empty suite
		r.log.Warn("Failed to discover test cases", "err", err)
		cases = nil
	}

	if err := r.sink.Begin(runID, len(cases)); err != nil {
		return nil, fmt.Errorf("failed to begin report: %w", err)
	}

	var interrupted error
	for _, tc := range cases {
		summary.Discover()
		result := r.RunCase(ctx, tc)
		summary.Record(result.Status)

		if err := r.sink.Consume(result, runID); err != nil {
			return nil, fmt.Errorf("failed to report %s: %w", tc.Label, err)
		}

		if ctx.Err() != nil {
			interrupted = fmt.Errorf("suite run interrupted after %s: %w", tc.Label, context.Cause(ctx))
			break
		}
	}

	summary.Finish()
	span.SetAttributes(
		attribute.Int("discovered", summary.Discovered),
		attribute.Int("missing", summary.Missing),
		attribute.Int("mismatches", summary.Mismatches),
		attribute.Int("exec_errors", summary.ExecErrors),
	)
	if !summary.AllPassed() {
		span.SetStatus(codes.Error, summary.String())
	}

	if err := r.sink.Complete(summary); err != nil {
		return nil, fmt.Errorf("failed to complete report: %w", err)
	}

	r.log.Info("Test suite completed", "run_id", runID, "discovered", summary.Discovered,
		"succeeded", summary.Succeeded(), "duration", summary.Duration)
	return summary, interrupted
}

// RunCase implements the SuiteRunner interface. The checks run in a fixed
// priority order: missing expected output, execution error, output mismatch.
func (r *suiteRunner) RunCase(ctx context.Context, tc types.TestCase) *types.TestResult {
	ctx, span := r.tracer.Start(ctx, "run case", trace.WithAttributes(attribute.String("case", tc.Name)))
	defer span.End()

	result := r.classify(ctx, tc)
	span.SetAttributes(attribute.String("status", string(result.Status)))
	if result.Status != types.TestStatusPass {
		span.SetStatus(codes.Error, string(result.Status))
	}
	return result
}

func (r *suiteRunner) classify(ctx context.Context, tc types.TestCase) *types.TestResult {
	result := &types.TestResult{Case: tc}

	// Any stat failure, not only ENOENT, means there is no expected output to compare against
	if _, err := os.Stat(tc.ExpectedPath); err != nil {
		r.log.Debug("Expected output not found", "case", tc.Label, "path", tc.ExpectedPath, "err", err)
		result.Status = types.TestStatusMissing
		return result
	}

	input, err := os.ReadFile(tc.InputPath)
	if err != nil {
		result.Status = types.TestStatusError
		result.Exec = &types.ExecutionResult{
			ExitCode: -1,
			Err:      &types.FixtureError{Kind: "input file", Path: tc.InputPath, Err: err},
		}
		return result
	}

	r.log.Debug("Running test case", "case", tc.Label, "input", tc.InputPath)
	exec := r.executor.Execute(ctx, input)
	result.Exec = exec
	if exec.Failed() {
		result.Status = types.TestStatusError
		return result
	}

	expected, err := os.ReadFile(tc.ExpectedPath)
	if err != nil {
		exec.Err = &types.FixtureError{Kind: "expected output", Path: tc.ExpectedPath, Err: err}
		result.Status = types.TestStatusError
		return result
	}

	actualTrimmed := strings.TrimSpace(exec.Stdout)
	expectedTrimmed := strings.TrimSpace(string(expected))
	if actualTrimmed == expectedTrimmed {
		result.Status = types.TestStatusPass
		return result
	}

	result.Status = types.TestStatusFail
	result.Expected = expectedTrimmed
	result.Actual = actualTrimmed
	return result
}
