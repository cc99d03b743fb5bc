package verifier

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-verifier/exitcodes"
	"github.com/ethereum-optimism/infra/op-verifier/types"
)

// mockSuiteRunner is a mock implementation of the runner.SuiteRunner interface
type mockSuiteRunner struct {
	mock.Mock
}

func (m *mockSuiteRunner) RunSuite(ctx context.Context) (*types.RunSummary, error) {
	args := m.Called(ctx)
	summary, _ := args.Get(0).(*types.RunSummary)
	return summary, args.Error(1)
}

func (m *mockSuiteRunner) RunCase(ctx context.Context, tc types.TestCase) *types.TestResult {
	args := m.Called(ctx, tc)
	return args.Get(0).(*types.TestResult)
}

const doubler = `#!/bin/sh
read n
echo $((n * 2))
`

// setupSuiteRoot lays out a suite root with the given inputs and expected
// outputs, keyed by case name, and returns a config over it.
func setupSuiteRoot(t *testing.T, inputs, expected map[string]string) *Config {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("subject programs are shell scripts")
	}

	root := t.TempDir()
	inputDir := filepath.Join(root, "data_in")
	expectedDir := filepath.Join(root, "data_expected")
	require.NoError(t, os.MkdirAll(inputDir, 0755))
	require.NoError(t, os.MkdirAll(expectedDir, 0755))
	for name, content := range inputs {
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, name+".txt"), []byte(content), 0644))
	}
	for name, content := range expected {
		require.NoError(t, os.WriteFile(filepath.Join(expectedDir, name+"_OUT.txt"), []byte(content), 0644))
	}

	subject := filepath.Join(t.TempDir(), "double.sh")
	require.NoError(t, os.WriteFile(subject, []byte(doubler), 0755))

	return &Config{
		Subject:        subject,
		Root:           root,
		InputDir:       inputDir,
		ExpectedDir:    expectedDir,
		InputExt:       ".txt",
		ExpectedSuffix: "_OUT",
		Timeout:        10 * time.Second,
		MetricsJob:     "op-verifier",
		Log:            log.NewLogger(log.DiscardHandler()),
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	v, err := New(context.Background(), nil, "test", nil)
	require.Error(t, err)
	assert.Nil(t, v)
}

func TestStart_AllPassed(t *testing.T) {
	cfg := setupSuiteRoot(t,
		map[string]string{"one": "1\n", "two": "21\n"},
		map[string]string{"one": "2\n", "two": "42\n"},
	)

	shutdown := make(chan error, 1)
	var out bytes.Buffer
	v, err := newVerifier(cfg, "test", &out, false, func(err error) { shutdown <- err })
	require.NoError(t, err)

	require.NoError(t, v.Start(context.Background()))
	assert.False(t, v.Stopped())

	select {
	case err := <-shutdown:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("shutdown callback was not invoked")
	}

	require.NotNil(t, v.Result())
	assert.Equal(t, 2, v.Result().Discovered)
	assert.Equal(t, 2, v.Result().Succeeded())

	console := out.String()
	assert.Contains(t, console, "[test 01: one]: OK")
	assert.Contains(t, console, "[test 02: two]: OK")
	assert.Contains(t, console, ">>> TEST RUN COMPLETED SUCCESSFULLY! <<<")
	assert.Equal(t, console, stripansi.Strip(console), "no color was requested")

	require.NoError(t, v.Stop(context.Background()))
	assert.True(t, v.Stopped())
	require.NoError(t, v.Stop(context.Background()), "stopping twice is a no-op")
}

func TestStart_FailuresReturnTestFailureError(t *testing.T) {
	cfg := setupSuiteRoot(t,
		map[string]string{"good": "1\n", "bad": "5\n", "nogab": "3\n"},
		map[string]string{"good": "2\n", "bad": "11\n"},
	)

	var out bytes.Buffer
	v, err := newVerifier(cfg, "test", &out, false, func(error) {
		t.Error("shutdown callback must not run for a failing suite")
	})
	require.NoError(t, err)

	err = v.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.Equal(t, exitcodes.TestFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "Discovered: 3")

	console := out.String()
	assert.Contains(t, console, "[test 01: bad]: Error.")
	assert.Contains(t, console, "[test 02: good]: OK")
	assert.Contains(t, console, "[test 03: nogab]: expected output (gabarito) not found for 'nogab.txt'. Skipping...")
	assert.Contains(t, console, "ATTENTION: errors were found")
	assert.Contains(t, console, "ATTENTION: some tests failed for lack of expected output")
	assert.NotContains(t, console, "COMPLETED SUCCESSFULLY")
}

func TestStart_EmptySuiteSucceeds(t *testing.T) {
	cfg := setupSuiteRoot(t, nil, nil)

	var out bytes.Buffer
	v, err := newVerifier(cfg, "test", &out, false, nil)
	require.NoError(t, err)

	require.NoError(t, v.Start(context.Background()))
	assert.Equal(t, 0, v.Result().Discovered)
	assert.Contains(t, out.String(), ">>> TEST RUN COMPLETED SUCCESSFULLY! <<<")
}

func TestStart_RunnerErrorIsRuntimeError(t *testing.T) {
	runner := new(mockSuiteRunner)
	runner.On("RunSuite", mock.Anything).Return(nil, errors.New("sink broke"))

	v := &verifier{
		config:           &Config{Log: log.NewLogger(log.DiscardHandler())},
		runner:           runner,
		shutdownCallback: func(error) {},
	}

	err := v.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.Equal(t, exitcodes.RuntimeErr, ExitCode(err))
	runner.AssertExpectations(t)
}

func TestStart_OnlyOnce(t *testing.T) {
	runner := new(mockSuiteRunner)
	summary := types.NewRunSummary("run-1")
	summary.Finish()
	runner.On("RunSuite", mock.Anything).Return(summary, nil).Once()

	v := &verifier{
		config:           &Config{Log: log.NewLogger(log.DiscardHandler())},
		runner:           runner,
		shutdownCallback: func(error) {},
	}

	require.NoError(t, v.Start(context.Background()))
	require.Error(t, v.Start(context.Background()))
	runner.AssertNumberOfCalls(t, "RunSuite", 1)
}

func TestStopped_BeforeStart(t *testing.T) {
	v := &verifier{config: &Config{Log: log.NewLogger(log.DiscardHandler())}}
	assert.True(t, v.Stopped())
	assert.NoError(t, v.Stop(context.Background()))
}
