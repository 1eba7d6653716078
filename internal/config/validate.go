package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult holds the results of config validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidateConfig validates an already-loaded config
func ValidateConfig(cfg *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if cfg == nil {
		return result
	}

	validateProvider("gitlab", &cfg.GitLab, result)
	validateProvider("github", &cfg.GitHub, result)
	validateOutput(&cfg.Output, result)

	return result
}

// ValidateConfigFile validates a TOML config file
func ValidateConfigFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	metadata, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("Invalid TOML syntax: %v", err),
		})
		return result, nil
	}

	// Check for unknown fields
	undecoded := metadata.Undecoded()
	if len(undecoded) > 0 {
		result.Valid = false
		for _, key := range undecoded {
			result.Errors = append(result.Errors, ValidationError{
				Field:   key.String(),
				Message: "Unknown configuration field",
			})
		}
	}

	validateProvider("gitlab", &cfg.GitLab, result)
	validateProvider("github", &cfg.GitHub, result)
	validateOutput(&cfg.Output, result)

	return result, nil
}

// validateProvider validates one provider section
func validateProvider(section string, cfg *ProviderConfig, result *ValidationResult) {
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   section + ".base-url",
				Message: fmt.Sprintf("Invalid base URL '%s'. Must start with http:// or https://", cfg.BaseURL),
			})
		}
	}

	if cfg.Limit < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   section + ".limit",
			Message: "Limit must be non-negative",
		})
	}

	if cfg.MinTypePercentage < 0 || cfg.MinTypePercentage > 100 {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   section + ".min-type-percentage",
			Message: fmt.Sprintf("Invalid percentage %g. Must be between 0 and 100", cfg.MinTypePercentage),
		})
	}

	since := validateDate(section+".since", cfg.Since, result)
	until := validateDate(section+".until", cfg.Until, result)
	if since != nil && until != nil && since.After(*until) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   section + ".since",
			Message: "Date range is empty: since is after until",
		})
	}

	// Tokens in config files leak through backups and version control
	if cfg.Token != "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   section + ".token",
			Message: "Token stored in config file. Prefer the environment variable",
		})
	}
}

// validateDate checks YYYY-MM-DD format, returning the parsed date when valid
func validateDate(field, value string, result *ValidationResult) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Invalid date '%s'. Expected YYYY-MM-DD", value),
		})
		return nil
	}
	return &t
}

// validateOutput validates the output section
func validateOutput(output *OutputConfig, result *ValidationResult) {
	if output.Format != "" {
		validFormats := []string{"summary", "json", "csv", "html"}
		if !contains(validFormats, output.Format) {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   "output.format",
				Message: fmt.Sprintf("Invalid format '%s'. Valid options: %s", output.Format, strings.Join(validFormats, ", ")),
			})
		}
	}
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// PrintValidationResult prints the validation result in a human-readable format
func PrintValidationResult(path string, result *ValidationResult) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📋 Validating: %s\n", path)

	if result.Valid && len(result.Warnings) == 0 {
		fmt.Println("✅ Configuration is valid!")
		fmt.Println()
		return
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\n❌ Found %d error(s):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Field != "" {
				fmt.Printf("  • [%s] %s\n", err.Field, err.Message)
			} else {
				fmt.Printf("  • %s\n", err.Message)
			}
		}
		fmt.Println()
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("⚠️  Found %d warning(s):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Field != "" {
				fmt.Printf("  • [%s] %s\n", warn.Field, warn.Message)
			} else {
				fmt.Printf("  • %s\n", warn.Message)
			}
		}
		fmt.Println()
	}

	if !result.Valid {
		fmt.Println("❌ Configuration is INVALID")
	} else {
		fmt.Println("✅ Configuration is valid (with warnings)")
	}
	fmt.Println()
}
