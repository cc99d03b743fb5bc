package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/ethereum-optimism/infra/op-verifier/types"
)

const (
	blockBegin = "=------[ begin ]------="
	blockEnd   = "=------[ end ]--------="
)

var (
	colorHeader  = text.Colors{text.Bold, text.FgCyan}
	colorPass    = text.Colors{text.FgGreen}
	colorMissing = text.Colors{text.Bold, text.FgYellow}
	colorFailure = text.Colors{text.Bold, text.FgRed}
	colorSummary = text.Colors{text.Bold, text.FgGreen}

	colorErrorsBanner  = text.Colors{text.BlinkSlow, text.FgRed, text.BgWhite}
	colorMissingBanner = text.Colors{text.BlinkSlow, text.FgBlue, text.BgWhite}
)

// ConsoleSink renders verdicts, the summary table and the closing banners
// as human readable text.
type ConsoleSink struct {
	out   io.Writer
	color bool
}

var _ ResultSink = (*ConsoleSink)(nil)

// NewConsoleSink creates a console sink writing to out. When color is false
// no ANSI escape sequences are emitted.
func NewConsoleSink(out io.Writer, color bool) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{
		out:   out,
		color: color,
	}
}

// ColorEnabled reports whether colored output should be written to f
func ColorEnabled(f *os.File, noColor bool) bool {
	if noColor || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (s *ConsoleSink) paint(colors text.Colors, str string) string {
	if !s.color {
		return str
	}
	return colors.Sprint(str)
}

func (s *ConsoleSink) write(str string) error {
	_, err := io.WriteString(s.out, str)
	return err
}

// Begin prints the run header
func (s *ConsoleSink) Begin(runID string, total int) error {
	return s.write("\n" + s.paint(colorHeader, ">>> RUNNING INPUT/EXPECTED OUTPUT COMPARISON TESTS <<<") + "\n\n")
}

// Consume prints the verdict line, or block, of a single test case
func (s *ConsoleSink) Consume(result *types.TestResult, runID string) error {
	var b strings.Builder
	label := result.Case.Label

	switch result.Status {
	case types.TestStatusPass:
		b.WriteString(s.paint(colorPass, fmt.Sprintf("[%s]: OK", label)))
		b.WriteString("\n")

	case types.TestStatusMissing:
		b.WriteString(s.paint(colorMissing, fmt.Sprintf("[%s]: expected output (gabarito) not found for '%s'. Skipping...",
			label, result.Case.InputFile)))
		b.WriteString("\n")

	case types.TestStatusError:
		reason := ""
		var stdout, stderr string
		if result.Exec != nil {
			reason = result.Exec.Reason()
			stdout = result.Exec.Stdout
			stderr = result.Exec.Stderr
			if result.Exec.StderrTruncated {
				dropped := result.Exec.StderrBytes - int64(len(result.Exec.Stderr))
				stderr = fmt.Sprintf("[...%d bytes truncated...]\n", dropped) + stderr
			}
		}
		b.WriteString(s.paint(colorFailure, fmt.Sprintf("[%s]: subject program execution failed (%s).", label, reason)))
		b.WriteString("\n")
		b.WriteString(s.block("> Output (stdout):", stdout))
		b.WriteString(s.block("> Error (stderr):", stderr))

	case types.TestStatusFail:
		b.WriteString(s.paint(colorFailure, fmt.Sprintf("[%s]: Error.", label)))
		b.WriteString("\n")
		b.WriteString(s.block("> Expected:", result.Expected))
		b.WriteString(s.block("> Returned:", result.Actual))

	default:
		return fmt.Errorf("unknown test status %q for %s", result.Status, label)
	}

	return s.write(b.String())
}

// block frames content verbatim between begin/end rulers
func (s *ConsoleSink) block(title, content string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(blockBegin)
	b.WriteString("\n")
	b.WriteString(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(blockEnd)
	return s.paint(colorFailure, b.String()) + "\n\n"
}

// Complete prints the counters table and the closing banners
func (s *ConsoleSink) Complete(summary *types.RunSummary) error {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(s.summaryTable(summary))
	b.WriteString("\n")

	if summary.HasErrors() {
		b.WriteString(s.paint(colorErrorsBanner, "   >>> ATTENTION: errors were found during the test run! Check the log above. <<<   "))
		b.WriteString("\n\n")
	}
	if summary.HasMissing() {
		b.WriteString(s.paint(colorMissingBanner, "   >>> ATTENTION: some tests failed for lack of expected output (gabarito). Check the log above. <<<   "))
		b.WriteString("\n\n")
	}
	if summary.AllPassed() {
		b.WriteString("\n")
		b.WriteString(s.paint(colorSummary, ">>> TEST RUN COMPLETED SUCCESSFULLY! <<<"))
		b.WriteString("\n")
	}

	return s.write(b.String())
}

func (s *ConsoleSink) summaryTable(summary *types.RunSummary) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Test summary (%s)", formatDuration(summary.Duration)))
	t.AppendHeader(table.Row{"Outcome", "Count"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Count", Align: text.AlignRight},
	})

	t.AppendRow(table.Row{"Failures (no gabarito)", summary.Missing})
	t.AppendRow(table.Row{"Output errors", summary.Mismatches})
	t.AppendRow(table.Row{"Execution errors", summary.ExecErrors})
	t.AppendRow(table.Row{"Successes", summary.Succeeded()})
	t.AppendFooter(table.Row{"Discovered", summary.Discovered})

	switch {
	case !s.color:
		t.SetStyle(table.StyleLight)
	case summary.AllPassed():
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	out := t.Render()
	if summary.RunID != "" {
		out += "\nrun id: " + summary.RunID
	}
	return out + "\n"
}

// formatDuration formats the duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
