package verifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-verifier/metrics"
	"github.com/ethereum-optimism/infra/op-verifier/reporting"
	"github.com/ethereum-optimism/infra/op-verifier/runner"
	"github.com/ethereum-optimism/infra/op-verifier/types"
)

// verifier implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &verifier{}

// verifier runs the input/expected-output suite once against the subject
// program and then asks the application to shut down.
type verifier struct {
	config  *Config
	version string
	runner  runner.SuiteRunner
	result  *types.RunSummary

	running atomic.Bool
	started atomic.Bool

	shutdownCallback func(error)
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*verifier, error) {
	return newVerifier(config, version, os.Stdout, reporting.ColorEnabled(os.Stdout, config != nil && config.NoColor), shutdownCallback)
}

func newVerifier(config *Config, version string, out io.Writer, color bool, shutdownCallback func(error)) (*verifier, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		config.Log = log.New()
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating verifier with config",
		"subject", config.Subject,
		"root", config.Root,
		"inputDir", config.InputDir,
		"expectedDir", config.ExpectedDir,
		"timeout", config.Timeout)

	sink := reporting.NewMultiSink(
		reporting.NewConsoleSink(out, color),
		metrics.NewSink(metrics.NewRecorder(), config.MetricsPushURL, config.MetricsJob, config.Log),
	)

	suiteRunner, err := runner.NewSuiteRunner(runner.Config{
		Log:            config.Log,
		Subject:        config.Subject,
		InputDir:       config.InputDir,
		ExpectedDir:    config.ExpectedDir,
		InputExt:       config.InputExt,
		ExpectedSuffix: config.ExpectedSuffix,
		Timeout:        config.Timeout,
		Sink:           sink,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create suite runner: %w", err)
	}

	return &verifier{
		config:           config,
		version:          version,
		runner:           suiteRunner,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the suite once.
// Start implements the cliapp.Lifecycle interface.
func (v *verifier) Start(ctx context.Context) error {
	if !v.started.CompareAndSwap(false, true) {
		return errors.New("verifier already started")
	}
	v.running.Store(true)

	v.config.Log.Info("Starting op-verifier", "version", v.version, "subject", v.config.Subject)

	summary, err := v.runner.RunSuite(ctx)
	v.result = summary
	if err != nil {
		v.config.Log.Error("Runtime error running suite", "error", err)
		return NewRuntimeError(err)
	}

	if !summary.AllPassed() {
		v.config.Log.Warn("Suite completed with failures, returning exit code 1", "summary", summary.String())
		return NewTestFailureError(summary.String())
	}

	v.config.Log.Info("Suite completed, exiting")
	go func() {
		v.shutdownCallback(nil)
	}()
	return nil
}

// Stop implements the cliapp.Lifecycle interface.
func (v *verifier) Stop(ctx context.Context) error {
	if !v.running.Load() {
		v.config.Log.Debug("Verifier already stopped, nothing to do")
		return nil
	}
	v.running.Store(false)
	v.config.Log.Info("op-verifier stopped")
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (v *verifier) Stopped() bool {
	return !v.running.Load()
}

// Result returns the summary of the last run, nil before Start returns.
func (v *verifier) Result() *types.RunSummary {
	return v.result
}
