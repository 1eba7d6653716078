// Command cilens turns raw CI/CD pipeline history into insights: it clusters
// pipelines by their job composition, computes latency and reliability
// percentiles for every job, and finds the dependency chains that slow
// feedback down.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/ui"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cilens",
	Short: "CI/CD pipeline analytics",
	Long: `cilens analyzes CI/CD pipeline history: it groups pipelines into types by
their job composition, computes latency and reliability percentiles for every
job, and reconstructs the dependency chains that decide how fast a pipeline
can give feedback.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(flagVerbose)
	},
}

var (
	flagConfig  string
	flagFormat  string
	flagOutput  string
	flagPretty  bool
	flagVerbose bool
	flagNoColor bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Path to config file (default: cilens.toml)")
	flags.StringVar(&flagFormat, "format", "", "Report format: summary, json, csv, html")
	flags.StringVar(&flagOutput, "output", "", "Write the report to a file instead of stdout")
	flags.BoolVar(&flagPretty, "pretty", false, "Indent JSON output")
	flags.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	flags.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// terminalColors builds the color gate for terminal rendering, honoring
// --no-color and the NO_COLOR convention.
func terminalColors() *ui.Colors {
	return ui.NewColors(!flagNoColor && ui.IsColorEnabled())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
