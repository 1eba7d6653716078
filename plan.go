package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview a pipeline's execution order",
	Long: `Parse a pipeline definition and show which jobs run in which wave, before
any pipeline has run. Useful for spotting accidental serialization when
editing .gitlab-ci.yml.`,
	RunE: runPlan,
}

var planFile string

func init() {
	planCmd.Flags().StringVar(&planFile, "file", ".gitlab-ci.yml", "Pipeline definition to analyze")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	p, err := plan.Load(planFile)
	if err != nil {
		return err
	}
	return plan.WritePlan(os.Stdout, p, terminalColors())
}
