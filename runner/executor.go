package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ethereum-optimism/infra/op-verifier/types"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum/go-ethereum/log"
)

// waitDelay bounds how long Wait blocks on output pipes held open by
// descendants of a subject program that has already exited or been killed.
const waitDelay = time.Second

var _ SubjectExecutor = (*subjectExecutor)(nil)

// SubjectExecutor runs the program under test once per test case.
type SubjectExecutor interface {
	// Execute runs the subject program with input bound to its standard input
	// and captures stdout, stderr and the exit status. Failures to launch or
	// to finish are reported in the result, never as a returned error.
	Execute(ctx context.Context, input []byte) *types.ExecutionResult
}

// CommandBuilder creates the command for the subject program. The returned
// func is called once the command has finished.
type CommandBuilder func(ctx context.Context, name string, arg ...string) (*exec.Cmd, func())

type subjectExecutor struct {
	subject    string
	timeout    time.Duration
	cmdBuilder CommandBuilder
	log        log.Logger
}

// NewSubjectExecutor creates an executor for the given program. A zero
// timeout lets the subject program run for as long as it wants.
func NewSubjectExecutor(subject string, timeout time.Duration, cmdBuilder CommandBuilder, logger log.Logger) (SubjectExecutor, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject program cannot be empty")
	}
	if timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative: %s", timeout)
	}
	if cmdBuilder == nil {
		cmdBuilder = DefaultCommandBuilder
	}
	if logger == nil {
		logger = log.New()
	}

	return &subjectExecutor{
		subject:    subject,
		timeout:    timeout,
		cmdBuilder: cmdBuilder,
		log:        logger,
	}, nil
}

// DefaultCommandBuilder builds a plain command that inherits the environment,
// with the trace context of ctx injected into it.
func DefaultCommandBuilder(ctx context.Context, name string, arg ...string) (*exec.Cmd, func()) {
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Env = telemetry.InstrumentEnvironment(ctx, os.Environ())
	return cmd, func() {}
}

func (e *subjectExecutor) Execute(ctx context.Context, input []byte) *types.ExecutionResult {
	execCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, e.timeout)
	}
	defer cancel()

	cmd, cleanup := e.cmdBuilder(execCtx, e.subject)
	defer cleanup()

	var stdout bytes.Buffer
	stderr := newTailBuffer(defaultStderrTailBytes)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()

	result := &types.ExecutionResult{
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		StderrTruncated: stderr.Truncated(),
		StderrBytes:     stderr.TotalBytes(),
		Duration:        time.Since(start),
	}
	e.classify(ctx, execCtx, cmd, runErr, result)

	e.log.Debug("Subject exited", "subject", e.subject, "exit_code", result.ExitCode,
		"timed_out", result.TimedOut, "duration", result.Duration, "err", result.Err)
	return result
}

func (e *subjectExecutor) classify(ctx, execCtx context.Context, cmd *exec.Cmd, runErr error, result *types.ExecutionResult) {
	if runErr == nil {
		return
	}

	// The deadline only belongs to us if the parent context is still alive
	if e.timeout > 0 && ctx.Err() == nil && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		result.TimedOut = true
		return
	}

	if ctx.Err() != nil {
		result.ExitCode = -1
		result.Err = fmt.Errorf("subject program interrupted: %w", ctx.Err())
		return
	}

	// The process exited on its own but a descendant kept the output pipes open
	if errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		return
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return
	}

	result.ExitCode = -1
	result.Err = fmt.Errorf("failed to run subject program: %w", runErr)
}
