// Package report renders collected insights for humans and machines: a
// color-coded terminal summary, JSON for scripting, CSV for spreadsheets,
// and a self-contained HTML page.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/ui"
)

// Format selects how insights are rendered.
type Format string

const (
	FormatSummary Format = "summary"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
)

// ParseFormat converts a user-supplied format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSummary, FormatJSON, FormatCSV, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected summary, json, csv, or html)", s)
	}
}

// Options carries renderer settings that only some formats use.
type Options struct {
	// Colors styles the terminal summary. Nil renders without color.
	Colors *ui.Colors
	// Pretty indents JSON output.
	Pretty bool
	// Version appears in the HTML report footer.
	Version string
}

// Render writes insights to w in the requested format.
func Render(w io.Writer, format Format, insights model.CIInsights, opts Options) error {
	switch format {
	case FormatSummary:
		return writeSummary(w, insights, opts.Colors)
	case FormatJSON:
		return writeJSON(w, insights, opts.Pretty)
	case FormatCSV:
		return writeCSV(w, insights)
	case FormatHTML:
		return writeHTML(w, insights, opts.Version)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04") + " UTC"
}
