package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum-optimism/infra/op-verifier/types"
	"github.com/ethereum/go-ethereum/log"
)

const (
	DefaultInputExt       = ".txt"
	DefaultExpectedSuffix = "_OUT"
)

// Config contains discovery configuration
type Config struct {
	Log            log.Logger
	InputDir       string
	ExpectedDir    string
	InputExt       string // e.g. ".txt"
	ExpectedSuffix string // appended to the input name, e.g. "_OUT"
}

// Discover lists the test cases found in the input directory.
// Cases are ordered by input file name and indexed from 1. A missing input
// directory yields no cases and no error.
func Discover(cfg Config) ([]types.TestCase, error) {
	if cfg.InputDir == "" {
		return nil, errors.New("input directory is required")
	}
	if cfg.ExpectedDir == "" {
		return nil, errors.New("expected directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.InputExt == "" {
		cfg.InputExt = DefaultInputExt
	}
	if cfg.ExpectedSuffix == "" {
		cfg.ExpectedSuffix = DefaultExpectedSuffix
	}

	// os.ReadDir returns entries sorted by file name
	entries, err := os.ReadDir(cfg.InputDir)
	if errors.Is(err, fs.ErrNotExist) {
		cfg.Log.Warn("Input directory does not exist", "dir", cfg.InputDir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", cfg.InputDir, err)
	}

	var inputs []string
	for _, entry := range entries {
		if isInputFile(entry, cfg.InputExt) {
			inputs = append(inputs, entry.Name())
		}
	}

	width := types.PaddingWidth(len(inputs))
	cases := make([]types.TestCase, 0, len(inputs))
	for i, file := range inputs {
		name := strings.TrimSuffix(file, cfg.InputExt)
		cases = append(cases, types.TestCase{
			Index:        i + 1,
			Name:         name,
			InputFile:    file,
			InputPath:    filepath.Join(cfg.InputDir, file),
			ExpectedPath: ExpectedPath(cfg.ExpectedDir, name, cfg.ExpectedSuffix, cfg.InputExt),
			Label:        types.FormatLabel(i+1, width, name),
		})
	}

	cfg.Log.Debug("Discovered test cases", "dir", cfg.InputDir, "count", len(cases))
	return cases, nil
}

// ExpectedPath derives the expected-output path for the input named name:
// <expectedDir>/<name><suffix><ext>
func ExpectedPath(expectedDir, name, suffix, ext string) string {
	return filepath.Join(expectedDir, name+suffix+ext)
}

// isInputFile matches the shell glob "*<ext>": hidden entries and directories
// are not test inputs.
func isInputFile(entry fs.DirEntry, ext string) bool {
	name := entry.Name()
	if entry.IsDir() || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ext)
}
