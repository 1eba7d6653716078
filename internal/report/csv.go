package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/anhed0nic/cilens/internal/model"
)

// writeCSV emits two tables separated by a blank line: one row per
// pipeline type, then one row per job within each type. Durations are
// seconds, rates are percentages.
func writeCSV(w io.Writer, insights model.CIInsights) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"Pipeline Type", "Percentage", "Total Pipelines", "Success Rate",
		"Duration P50", "Duration P95", "Duration P99",
		"Time to Feedback P50", "Time to Feedback P95", "Time to Feedback P99",
	}); err != nil {
		return err
	}
	for _, pt := range insights.PipelineTypes {
		m := pt.Metrics
		if err := cw.Write([]string{
			pt.Label,
			f1(m.Percentage),
			strconv.Itoa(m.TotalPipelines),
			f1(m.SuccessRate),
			f1(m.DurationP50), f1(m.DurationP95), f1(m.DurationP99),
			f1(m.TimeToFeedbackP50), f1(m.TimeToFeedbackP95), f1(m.TimeToFeedbackP99),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	// Separator must bypass the csv writer: a blank record would be
	// quoted, not empty.
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	cw = csv.NewWriter(w)
	if err := cw.Write([]string{
		"Job Name", "Pipeline Type",
		"Duration P50", "Duration P95", "Duration P99",
		"Time to Feedback P50", "Time to Feedback P95", "Time to Feedback P99",
		"Flakiness Rate", "Failure Rate", "Total Executions",
	}); err != nil {
		return err
	}
	for _, pt := range insights.PipelineTypes {
		for _, job := range pt.Metrics.Jobs {
			if err := cw.Write([]string{
				job.Name, pt.Label,
				f1(job.DurationP50), f1(job.DurationP95), f1(job.DurationP99),
				f1(job.TimeToFeedbackP50), f1(job.TimeToFeedbackP95), f1(job.TimeToFeedbackP99),
				f1(job.FlakinessRate), f1(job.FailureRate),
				strconv.Itoa(job.TotalExecutions),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func f1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
