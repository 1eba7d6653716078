package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample cilens.toml",
	Long:  `Generate a documented config file with every option at its default value.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := flagConfig
	if path == "" {
		path = "cilens.toml"
	}
	if err := config.GenerateDefaultConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
