package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/cache"
	"github.com/anhed0nic/cilens/internal/config"
	"github.com/anhed0nic/cilens/internal/gitlab"
	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/ui"
)

var gitlabCmd = &cobra.Command{
	Use:   "gitlab [project-path]",
	Short: "Analyze GitLab CI pipelines",
	Long: `Collect pipeline history from a GitLab project and report pipeline types,
job percentiles, and time-to-feedback analysis.

The project path is resolved from the positional argument, the config file,
or the origin remote of the current repository, in that order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGitLab,
}

var (
	gitlabToken             string
	gitlabBaseURL           string
	gitlabLimit             int
	gitlabRef               string
	gitlabSince             string
	gitlabUntil             string
	gitlabMinTypePercentage float64
	gitlabNoCache           bool
	gitlabClearCache        bool
)

func init() {
	flags := gitlabCmd.Flags()
	flags.StringVar(&gitlabToken, "token", "", "GitLab API token (default: GITLAB_TOKEN env)")
	flags.StringVar(&gitlabBaseURL, "base-url", "https://gitlab.com", "GitLab instance URL")
	flags.IntVar(&gitlabLimit, "limit", 500, "Maximum number of pipelines to collect")
	flags.StringVar(&gitlabRef, "ref", "", "Only analyze pipelines for this ref")
	flags.StringVar(&gitlabSince, "since", "", "Only analyze pipelines updated on or after this date (YYYY-MM-DD)")
	flags.StringVar(&gitlabUntil, "until", "", "Only analyze pipelines updated on or before this date (YYYY-MM-DD)")
	flags.Float64Var(&gitlabMinTypePercentage, "min-type-percentage", 1, "Drop pipeline types below this percentage of the total")
	flags.BoolVar(&gitlabNoCache, "no-cache", false, "Skip the local job cache")
	flags.BoolVar(&gitlabClearCache, "clear-cache", false, "Clear the cached jobs for this project and exit")
	rootCmd.AddCommand(gitlabCmd)
}

func runGitLab(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	section := *cfg.Provider("gitlab")
	applyProviderFlags(cmd, &section, providerFlags{
		token:             gitlabToken,
		baseURL:           gitlabBaseURL,
		limit:             gitlabLimit,
		ref:               gitlabRef,
		since:             gitlabSince,
		until:             gitlabUntil,
		minTypePercentage: gitlabMinTypePercentage,
		noCache:           gitlabNoCache,
	})
	if section.Token == "" {
		section.Token = os.Getenv("GITLAB_TOKEN")
	}

	project, err := resolveProject(args, section.ProjectPath)
	if err != nil {
		return err
	}

	if gitlabClearCache {
		if err := cache.Clear("gitlab", project); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Cache cleared for %s\n", project)
		return nil
	}

	insights, err := collectGitLab(cmd, section, project)
	if err != nil {
		return err
	}

	out := cfg.Output
	applyOutputFlags(cmd, &out)
	return writeInsights(insights, out, terminalColors())
}

func collectGitLab(cmd *cobra.Command, section config.ProviderConfig, project string) (model.CIInsights, error) {
	since, until, err := parseDateRange(section.Since, section.Until)
	if err != nil {
		return model.CIInsights{}, err
	}
	if err := checkPercentage(section.MinTypePercentage); err != nil {
		return model.CIInsights{}, err
	}

	jobCache, err := cache.New("gitlab", project, !section.NoCache)
	if err != nil {
		return model.CIInsights{}, err
	}
	provider, err := gitlab.NewProvider(section.BaseURL, project, section.Token, jobCache)
	if err != nil {
		return model.CIInsights{}, err
	}

	colors := terminalColors()
	ui.PrintBanner(os.Stderr, colors, version)
	progress := ui.NewPhaseProgress(os.Stderr, colors, ui.IsTTY(os.Stderr.Fd()))

	return provider.CollectInsights(cmd.Context(), gitlab.CollectOptions{
		Limit:             section.Limit,
		Ref:               section.Ref,
		Since:             since,
		Until:             until,
		MinTypePercentage: section.MinTypePercentage,
		Progress:          progress,
	})
}
