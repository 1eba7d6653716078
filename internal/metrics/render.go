package metrics

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anhed0nic/cilens/internal/ui"
)

// maxFailedRows caps the failed test table.
const maxFailedRows = 10

// WriteReport renders the aggregated test results as a terminal summary.
func WriteReport(w io.Writer, report *Report, colors *ui.Colors) error {
	if colors == nil {
		colors = ui.NewColors(false)
	}

	var b strings.Builder
	fmt.Fprintln(&b, colors.Bold("🧪 Test Report"))
	fmt.Fprintf(&b, "  %s %s\n", colors.Gray("Reports parsed:"), colors.Yellow(strconv.Itoa(report.Files)))
	fmt.Fprintf(&b, "  %s %s\n", colors.Gray("Tests:"), colors.Yellow(strconv.Itoa(report.Tests)))
	fmt.Fprintf(&b, "  %s %s\n", colors.Gray("Failed:"), failCount(colors, report.Failures+report.Errors))
	fmt.Fprintf(&b, "  %s %s\n", colors.Gray("Skipped:"), colors.Yellow(strconv.Itoa(report.Skipped)))
	fmt.Fprintf(&b, "  %s %s\n", colors.Gray("Total duration:"), colors.Cyan(ui.FormatDuration(report.Duration)))
	fmt.Fprintln(&b)

	writeSlowestSuites(&b, report, colors)
	writeFailedTests(&b, report, colors)

	_, err := io.WriteString(w, b.String())
	return err
}

func failCount(colors *ui.Colors, n int) string {
	if n > 0 {
		return colors.Red(strconv.Itoa(n))
	}
	return colors.Green(strconv.Itoa(n))
}

func writeSlowestSuites(b *strings.Builder, report *Report, colors *ui.Colors) {
	fmt.Fprintln(b, colors.Bold("🐌 Slowest Suites"))

	t := ui.NewTable(colors, "#", "Suite", "Tests", "Failed", "Skipped", "Duration")
	for i, suite := range report.SlowestSuites(10) {
		t.Row(
			strconv.Itoa(i+1),
			suite.Name,
			strconv.Itoa(suite.Tests),
			failCount(colors, suite.Failures+suite.Errors),
			strconv.Itoa(suite.Skipped),
			fmt.Sprintf("%.1fs", suite.Duration),
		)
	}
	fmt.Fprintln(b, t.String())
	fmt.Fprintln(b)
}

func writeFailedTests(b *strings.Builder, report *Report, colors *ui.Colors) {
	if len(report.Failed) == 0 {
		fmt.Fprintln(b, colors.Green("✓ No failed tests"))
		return
	}

	fmt.Fprintln(b, colors.Bold("❌ Failed Tests"))

	t := ui.NewTable(colors, "Suite", "Test", "Duration", "Message")
	shown := len(report.Failed)
	if shown > maxFailedRows {
		shown = maxFailedRows
	}
	for _, failed := range report.Failed[:shown] {
		t.Row(failed.Suite, failed.Name, fmt.Sprintf("%.1fs", failed.Duration), trimMessage(failed.Message))
	}
	if rest := len(report.Failed) - shown; rest > 0 {
		t.Row(colors.Gray(fmt.Sprintf("... and %d more", rest)), "", "", "")
	}
	fmt.Fprintln(b, t.String())
}

// trimMessage keeps the first line of a failure message; stack traces belong
// in the original report.
func trimMessage(message string) string {
	message = strings.TrimSpace(message)
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		message = strings.TrimSpace(message[:i])
	}
	runes := []rune(message)
	if len(runes) > 80 {
		return string(runes[:80]) + "..."
	}
	return message
}
