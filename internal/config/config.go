// Package config handles loading, validation, and merging of cilens configuration files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the complete cilens configuration
type Config struct {
	GitLab ProviderConfig `toml:"gitlab"`
	GitHub ProviderConfig `toml:"github"`
	Output OutputConfig   `toml:"output"`
}

// ProviderConfig holds collection defaults for one CI provider
type ProviderConfig struct {
	// API token (prefer the environment variable)
	Token string `toml:"token" doc:"API token (prefer the GITLAB_TOKEN / GITHUB_TOKEN environment variables)"`
	// API base URL
	BaseURL string `toml:"base-url" doc:"API base URL"`
	// Project path: group/project for GitLab, owner/repo for GitHub
	ProjectPath string `toml:"project-path" doc:"Project path (group/project for GitLab, owner/repo for GitHub)"`
	// Maximum number of pipelines to analyze
	Limit int `toml:"limit" doc:"Maximum number of pipelines to analyze"`
	// Ref filter, exact name or glob pattern
	Ref string `toml:"ref" doc:"Ref filter, exact name or glob pattern (e.g. main or release/*)"`
	// Only analyze pipelines updated on or after this date
	Since string `toml:"since" doc:"Only analyze pipelines updated on or after this date (YYYY-MM-DD)"`
	// Only analyze pipelines updated on or before this date
	Until string `toml:"until" doc:"Only analyze pipelines updated on or before this date (YYYY-MM-DD)"`
	// Drop pipeline types below this share of the total
	MinTypePercentage float64 `toml:"min-type-percentage" doc:"Drop pipeline types below this percentage of the total (0-100)"`
	// Disable the local job cache
	NoCache bool `toml:"no-cache" doc:"Disable the local job cache"`
}

// OutputConfig holds rendering defaults
type OutputConfig struct {
	// Report format
	Format string `toml:"format" doc:"Report format" enum:"summary,json,csv,html"`
	// Indent JSON output
	Pretty bool `toml:"pretty" doc:"Indent JSON output"`
	// Write the report to a file instead of stdout
	File string `toml:"file" doc:"Write the report to a file instead of stdout"`
}

// LoadConfig loads configuration from a TOML file.
// An explicitly specified file must exist; the default cilens.toml is optional.
func LoadConfig(path string) (*Config, error) {
	explicitPath := path != ""
	if path == "" {
		path = "cilens.toml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicitPath {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		// No config file is fine, defaults apply
		return nil, nil
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Check for unknown fields
	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		var unknownFields []string
		for _, key := range undecoded {
			unknownFields = append(unknownFields, key.String())
		}
		return nil, fmt.Errorf("unknown fields in config: %s", strings.Join(unknownFields, ", "))
	}

	return &cfg, nil
}

// Provider returns the section for a provider name ("gitlab" or "github").
func (c *Config) Provider(name string) *ProviderConfig {
	switch name {
	case "gitlab":
		return &c.GitLab
	case "github":
		return &c.GitHub
	}
	return nil
}
