package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0644))
	}
}

func TestDiscover_SortedAndLabeled(t *testing.T) {
	inputDir := t.TempDir()
	expectedDir := t.TempDir()
	writeFiles(t, inputDir, "wrong.txt", "add.txt", "crash.txt", "notes.md", ".hidden.txt")
	require.NoError(t, os.Mkdir(filepath.Join(inputDir, "nested.txt"), 0755))

	cases, err := Discover(Config{InputDir: inputDir, ExpectedDir: expectedDir})
	require.NoError(t, err)
	require.Len(t, cases, 3)

	names := make([]string, 0, len(cases))
	for _, tc := range cases {
		names = append(names, tc.Name)
	}
	assert.Equal(t, []string{"add", "crash", "wrong"}, names)

	first := cases[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "add.txt", first.InputFile)
	assert.Equal(t, filepath.Join(inputDir, "add.txt"), first.InputPath)
	assert.Equal(t, filepath.Join(expectedDir, "add_OUT.txt"), first.ExpectedPath)
	assert.Equal(t, "test 01: add", first.Label)
	assert.Equal(t, "test 03: wrong", cases[2].Label)
}

func TestDiscover_PaddingGrowsWithCount(t *testing.T) {
	inputDir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFiles(t, inputDir, string(rune('a'+i))+".txt")
	}

	cases, err := Discover(Config{InputDir: inputDir, ExpectedDir: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, cases, 10)
	assert.Equal(t, "test 001: a", cases[0].Label)
	assert.Equal(t, "test 010: j", cases[9].Label)
}

func TestDiscover_CustomExtensionAndSuffix(t *testing.T) {
	inputDir := t.TempDir()
	expectedDir := t.TempDir()
	writeFiles(t, inputDir, "sum.in", "sum.txt", "multi.part.in")

	cases, err := Discover(Config{
		InputDir:       inputDir,
		ExpectedDir:    expectedDir,
		InputExt:       ".in",
		ExpectedSuffix: ".expected",
	})
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, "multi.part", cases[0].Name)
	assert.Equal(t, filepath.Join(expectedDir, "multi.part.expected.in"), cases[0].ExpectedPath)
	assert.Equal(t, "sum", cases[1].Name)
}

func TestDiscover_MissingInputDir(t *testing.T) {
	cases, err := Discover(Config{
		InputDir:    filepath.Join(t.TempDir(), "does-not-exist"),
		ExpectedDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestDiscover_EmptyInputDir(t *testing.T) {
	cases, err := Discover(Config{InputDir: t.TempDir(), ExpectedDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestDiscover_RequiresDirectories(t *testing.T) {
	_, err := Discover(Config{ExpectedDir: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input directory is required")

	_, err = Discover(Config{InputDir: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected directory is required")
}

func TestExpectedPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data_expected", "add_OUT.txt"), ExpectedPath("/data_expected", "add", "_OUT", ".txt"))
}
