package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/config"
	"github.com/anhed0nic/cilens/internal/git"
	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/report"
	"github.com/anhed0nic/cilens/internal/ui"
)

// loadConfig reads and validates the config file, then fills the gaps with
// defaults. Warnings go to the log; errors abort the command.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if cfg != nil {
		result := config.ValidateConfig(cfg)
		for _, warning := range result.Warnings {
			slog.Warn("Config warning", "field", warning.Field, "message", warning.Message)
		}
		if !result.Valid {
			messages := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				messages = append(messages, fmt.Sprintf("%s: %s", e.Field, e.Message))
			}
			return config.Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
		}
	}
	return config.MergeWithDefaults(cfg), nil
}

// providerFlags carries the command-line values for one provider section.
// Only flags the user actually set override the config file.
type providerFlags struct {
	token             string
	baseURL           string
	limit             int
	ref               string
	since             string
	until             string
	minTypePercentage float64
	noCache           bool
}

func applyProviderFlags(cmd *cobra.Command, section *config.ProviderConfig, f providerFlags) {
	flags := cmd.Flags()
	if flags.Changed("token") {
		section.Token = f.token
	}
	if flags.Changed("base-url") {
		section.BaseURL = f.baseURL
	}
	if flags.Changed("limit") {
		section.Limit = f.limit
	}
	if flags.Changed("ref") {
		section.Ref = f.ref
	}
	if flags.Changed("since") {
		section.Since = f.since
	}
	if flags.Changed("until") {
		section.Until = f.until
	}
	if flags.Changed("min-type-percentage") {
		section.MinTypePercentage = f.minTypePercentage
	}
	if flags.Changed("no-cache") {
		section.NoCache = f.noCache
	}
}

func applyOutputFlags(cmd *cobra.Command, out *config.OutputConfig) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		out.Format = flagFormat
	}
	if flags.Changed("output") {
		out.File = flagOutput
	}
	if flags.Changed("pretty") {
		out.Pretty = flagPretty
	}
}

// parseDateRange turns --since/--until strings into bounds for pipeline
// collection. The until date is extended to the end of its day so a range
// like --until 2026-01-31 includes pipelines from that day.
func parseDateRange(since, until string) (*time.Time, *time.Time, error) {
	var sincePtr, untilPtr *time.Time
	if since != "" {
		t, err := parseDate("since", since)
		if err != nil {
			return nil, nil, err
		}
		sincePtr = &t
	}
	if until != "" {
		t, err := parseDate("until", until)
		if err != nil {
			return nil, nil, err
		}
		t = t.Add(24*time.Hour - time.Second)
		untilPtr = &t
	}
	return sincePtr, untilPtr, nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q: expected YYYY-MM-DD", flag, value)
	}
	return t, nil
}

func checkPercentage(value float64) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("min-type-percentage must be between 0 and 100, got %g", value)
	}
	return nil
}

// resolveProject picks the project to analyze: the positional argument wins,
// then the config file, then the origin remote of the current repository.
func resolveProject(args []string, fromConfig string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if fromConfig != "" {
		return fromConfig, nil
	}
	if root, ok := git.DetectRepoRoot("."); ok {
		remote, err := git.InferProject(root)
		if err == nil {
			slog.Debug("Inferred project from origin remote", "host", remote.Host, "project", remote.Project)
			return remote.Project, nil
		}
		slog.Debug("Could not infer project from repository", "root", root, "error", err)
	}
	return "", errors.New("no project specified: pass a project path, set it in cilens.toml, or run inside a repository with an origin remote")
}

func writeInsights(insights model.CIInsights, out config.OutputConfig, colors *ui.Colors) error {
	format, err := report.ParseFormat(out.Format)
	if err != nil {
		return err
	}
	opts := report.Options{Colors: colors, Pretty: out.Pretty, Version: version}
	if out.File != "" {
		f, err := os.Create(out.File)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		// ANSI codes have no place in a file.
		opts.Colors = ui.NewColors(false)
		if err := report.Render(f, format, insights, opts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing report file: %w", err)
		}
		fmt.Fprintln(os.Stderr, colors.Green(fmt.Sprintf("📄 Report written to %s", out.File)))
		return nil
	}
	return report.Render(os.Stdout, format, insights, opts)
}
