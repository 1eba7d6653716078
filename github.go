package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/cache"
	"github.com/anhed0nic/cilens/internal/config"
	"github.com/anhed0nic/cilens/internal/github"
	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/ui"
)

var githubCmd = &cobra.Command{
	Use:   "github [owner/repo]",
	Short: "Analyze GitHub Actions workflow runs",
	Long: `Collect workflow run history from a GitHub repository and report pipeline
types, job percentiles, and time-to-feedback analysis.

The repository is resolved from the positional argument, the config file, or
the origin remote of the current repository, in that order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGitHub,
}

var (
	githubToken             string
	githubBaseURL           string
	githubLimit             int
	githubRef               string
	githubSince             string
	githubUntil             string
	githubMinTypePercentage float64
)

func init() {
	flags := githubCmd.Flags()
	flags.StringVar(&githubToken, "token", "", "GitHub API token (default: GITHUB_TOKEN env)")
	flags.StringVar(&githubBaseURL, "base-url", "https://api.github.com", "GitHub API URL")
	flags.IntVar(&githubLimit, "limit", 500, "Maximum number of workflow runs to collect")
	flags.StringVar(&githubRef, "ref", "", "Only analyze runs for this branch (supports glob patterns)")
	flags.StringVar(&githubSince, "since", "", "Only analyze runs created on or after this date (YYYY-MM-DD)")
	flags.StringVar(&githubUntil, "until", "", "Only analyze runs created on or before this date (YYYY-MM-DD)")
	flags.Float64Var(&githubMinTypePercentage, "min-type-percentage", 1, "Drop pipeline types below this percentage of the total")
	rootCmd.AddCommand(githubCmd)
}

func runGitHub(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	section := *cfg.Provider("github")
	applyProviderFlags(cmd, &section, providerFlags{
		token:             githubToken,
		baseURL:           githubBaseURL,
		limit:             githubLimit,
		ref:               githubRef,
		since:             githubSince,
		until:             githubUntil,
		minTypePercentage: githubMinTypePercentage,
	})
	if section.Token == "" {
		section.Token = os.Getenv("GITHUB_TOKEN")
	}

	project, err := resolveProject(args, section.ProjectPath)
	if err != nil {
		return err
	}

	insights, err := collectGitHub(cmd, section, project)
	if err != nil {
		return err
	}

	out := cfg.Output
	applyOutputFlags(cmd, &out)
	return writeInsights(insights, out, terminalColors())
}

func collectGitHub(cmd *cobra.Command, section config.ProviderConfig, project string) (model.CIInsights, error) {
	since, until, err := parseDateRange(section.Since, section.Until)
	if err != nil {
		return model.CIInsights{}, err
	}
	if err := checkPercentage(section.MinTypePercentage); err != nil {
		return model.CIInsights{}, err
	}

	jobCache, err := cache.New("github", project, !section.NoCache)
	if err != nil {
		return model.CIInsights{}, err
	}
	provider, err := github.NewProvider(section.BaseURL, project, section.Token, jobCache)
	if err != nil {
		return model.CIInsights{}, err
	}

	colors := terminalColors()
	ui.PrintBanner(os.Stderr, colors, version)
	progress := ui.NewPhaseProgress(os.Stderr, colors, ui.IsTTY(os.Stderr.Fd()))

	return provider.CollectInsights(cmd.Context(), github.CollectOptions{
		Limit:             section.Limit,
		Ref:               section.Ref,
		Since:             since,
		Until:             until,
		MinTypePercentage: section.MinTypePercentage,
		Progress:          progress,
	})
}
