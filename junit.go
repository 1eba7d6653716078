package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/anhed0nic/cilens/internal/metrics"
)

var junitCmd = &cobra.Command{
	Use:   "junit",
	Short: "Summarize local JUnit XML reports",
	Long: `Parse JUnit XML reports from the local filesystem and report totals, the
slowest suites, and every failed test.`,
	RunE: runJUnit,
}

var junitReports string

func init() {
	junitCmd.Flags().StringVar(&junitReports, "reports", "reports/**/*.xml", "Glob matching JUnit XML files (** matches nested directories)")
	rootCmd.AddCommand(junitCmd)
}

func runJUnit(cmd *cobra.Command, args []string) error {
	report, err := metrics.CollectReports(junitReports)
	if err != nil {
		return err
	}
	return metrics.WriteReport(os.Stdout, report, terminalColors())
}
