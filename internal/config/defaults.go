package config

import (
	"fmt"
	"os"
)

// GetDefaults returns the default configuration
func GetDefaults() Config {
	return Config{
		GitLab: ProviderConfig{
			BaseURL:           "https://gitlab.com",
			Limit:             500,
			MinTypePercentage: 1,
		},
		GitHub: ProviderConfig{
			BaseURL:           "https://api.github.com",
			Limit:             500,
			MinTypePercentage: 1,
		},
		Output: OutputConfig{
			Format: "summary",
		},
	}
}

// MergeWithDefaults merges loaded config with defaults
func MergeWithDefaults(cfg *Config) Config {
	defaults := GetDefaults()

	if cfg == nil {
		return defaults
	}

	mergeProvider(&cfg.GitLab, defaults.GitLab)
	mergeProvider(&cfg.GitHub, defaults.GitHub)

	if cfg.Output.Format == "" {
		cfg.Output.Format = defaults.Output.Format
	}

	return *cfg
}

func mergeProvider(cfg *ProviderConfig, defaults ProviderConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaults.Limit
	}
	if cfg.MinTypePercentage == 0 {
		cfg.MinTypePercentage = defaults.MinTypePercentage
	}
}

// GenerateDefaultConfig creates a commented cilens.toml sample
func GenerateDefaultConfig(path string) (err error) {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", cerr)
		}
	}()

	content := `# cilens configuration file
# Values here are defaults; command-line flags override them.

[gitlab]
base-url = "https://gitlab.com"
project-path = "my-group/my-project"
limit = 500
min-type-percentage = 1
# Keep tokens out of this file; cilens reads GITLAB_TOKEN.
# ref = "main"
# since = "2026-01-01"
# until = "2026-06-30"
# no-cache = false

[github]
base-url = "https://api.github.com"
# project-path = "owner/repo"
# cilens reads GITHUB_TOKEN.

[output]
format = "summary"
# pretty = true
# file = "insights.html"
`

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
