package runner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/ethereum-optimism/infra/op-verifier/types"
)

// subjectScript answers a handful of known inputs so a single subject program
// can drive every classification.
const subjectScript = `#!/bin/sh
input=$(cat)
case "$input" in
  "2 3") echo 5 ;;
  "10") echo 10 ;;
  "crash") echo partial; echo boom >&2; exit 1 ;;
  "sleep") exec sleep 5 ;;
  *) printf '%s\n' "$input" ;;
esac
`

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("subject programs are shell scripts")
	}
}

// writeScript writes an executable shell script and returns its path
func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

// extractFixture materializes a txtar archive below root
func extractFixture(t *testing.T, root, archive string) {
	t.Helper()
	ar := txtar.Parse([]byte(archive))
	for _, f := range ar.Files {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, f.Data, 0644))
	}
}

// recordingSink keeps every result it is handed, in order
type recordingSink struct {
	runID    string
	total    int
	results  []*types.TestResult
	summary  *types.RunSummary
	begins   int
	finishes int
}

func (s *recordingSink) Begin(runID string, total int) error {
	s.runID = runID
	s.total = total
	s.begins++
	return nil
}

func (s *recordingSink) Consume(result *types.TestResult, runID string) error {
	s.results = append(s.results, result)
	return nil
}

func (s *recordingSink) Complete(summary *types.RunSummary) error {
	s.summary = summary
	s.finishes++
	return nil
}

func (s *recordingSink) statuses() map[string]types.TestStatus {
	out := make(map[string]types.TestStatus, len(s.results))
	for _, r := range s.results {
		out[r.Case.Name] = r.Status
	}
	return out
}

// setupSuite extracts archive into a fresh root and returns a runner over it
// using the standard data_in / data_expected layout.
func setupSuite(t *testing.T, archive string, mutate func(cfg *Config)) (SuiteRunner, *recordingSink) {
	t.Helper()
	requireUnix(t)

	root := t.TempDir()
	extractFixture(t, root, archive)
	subject := writeScript(t, t.TempDir(), "subject.sh", subjectScript)

	sink := &recordingSink{}
	cfg := Config{
		Subject:     subject,
		InputDir:    filepath.Join(root, "data_in"),
		ExpectedDir: filepath.Join(root, "data_expected"),
		Sink:        sink,
		Log:         log.NewLogger(log.DiscardHandler()),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	r, err := NewSuiteRunner(cfg)
	require.NoError(t, err)
	return r, sink
}
