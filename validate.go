package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a cilens.toml config file",
	Long:  `Check the config file for unknown keys, bad values, and missing settings.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		path = "cilens.toml"
	}
	result, err := config.ValidateConfigFile(path)
	if err != nil {
		return err
	}
	config.PrintValidationResult(path, result)
	if !result.Valid {
		return errors.New("configuration is invalid")
	}
	return nil
}
