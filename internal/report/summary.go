package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/ui"
)

// topRows caps the pipeline type table and each job ranking at this many rows.
const topRows = 10

// writeSummary renders the terminal report: an overview, the pipeline
// type distribution, and the top offenders by feedback time, failure
// rate, and flakiness.
func writeSummary(w io.Writer, insights model.CIInsights, colors *ui.Colors) error {
	if colors == nil {
		colors = ui.NewColors(false)
	}
	var b strings.Builder

	writeOverview(&b, insights, colors)
	if len(insights.PipelineTypes) == 0 {
		fmt.Fprintln(&b, colors.Yellow("No pipeline data found."))
		_, err := io.WriteString(w, b.String())
		return err
	}

	writeTypesTable(&b, insights, colors)

	jobs := dedupeJobs(insights)
	writeSlowestJobs(&b, jobs, colors)
	writeFailingJobs(&b, jobs, colors)
	writeFlakyJobs(&b, jobs, colors)
	writeNextSteps(&b, colors)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOverview(b *strings.Builder, insights model.CIInsights, colors *ui.Colors) {
	totalJobs := 0
	successful, failed := 0, 0
	for _, pt := range insights.PipelineTypes {
		for _, job := range pt.Metrics.Jobs {
			totalJobs += job.TotalExecutions
		}
		successful += pt.Metrics.SuccessfulPipelines.Count
		failed += pt.Metrics.FailedPipelines.Count
	}
	rate := 0.0
	if successful+failed > 0 {
		rate = float64(successful) / float64(successful+failed) * 100
	}

	fmt.Fprintln(b, colors.Bold("📊 Overview"))
	fmt.Fprintf(b, "  %s %s\n", colors.Gray("Project:"), colors.Cyan(insights.Project))
	fmt.Fprintf(b, "  %s %s\n", colors.Gray("Pipelines analyzed:"), colors.Yellow(strconv.Itoa(insights.TotalPipelines)))
	fmt.Fprintf(b, "  %s %s\n", colors.Gray("Jobs analyzed:"), colors.Yellow(strconv.Itoa(totalJobs)))
	fmt.Fprintf(b, "  %s %s\n", colors.Gray("Overall success rate:"), colors.SuccessRate(rate, fmt.Sprintf("%.1f%%", rate)))
	fmt.Fprintf(b, "  %s %s\n", colors.Gray("Pipeline types:"), colors.Yellow(strconv.Itoa(insights.TotalPipelineTypes)))
	fmt.Fprintf(b, "  %s %s\n", colors.Gray("Analysis date:"), colors.Gray(formatUTC(insights.CollectedAt)))
	fmt.Fprintln(b)
}

func writeTypesTable(b *strings.Builder, insights model.CIInsights, colors *ui.Colors) {
	fmt.Fprintln(b, colors.Bold("📋 Pipeline Types"))

	t := ui.NewTable(colors, "Pipeline Type", "Total", "Success", "P95 Duration", "Slowest Feedback", "Example")

	types := insights.PipelineTypes
	shown := len(types)
	if shown > topRows {
		shown = topRows
	}
	for _, pt := range types[:shown] {
		t.Row(
			pt.Label,
			fmt.Sprintf("%.1f%%", pt.Metrics.Percentage),
			successCell(colors, pt.Metrics.SuccessRate),
			durationCell(colors, pt.Metrics.DurationP95),
			slowestFeedbackCell(colors, pt.Metrics.Jobs),
			exampleLink(pt.Metrics),
		)
	}
	if len(types) > shown {
		t.Row(colors.Gray(fmt.Sprintf("... and %d more", len(types)-shown)), "", "", "", "", "")
	}

	fmt.Fprintln(b, t.String())
	fmt.Fprintln(b)
}

func writeSlowestJobs(b *strings.Builder, jobs []model.JobMetrics, colors *ui.Colors) {
	fmt.Fprintln(b, colors.Bold("🐌 Top 10 Slowest Jobs"))

	ranked := rankJobs(jobs, func(j model.JobMetrics) float64 { return j.TimeToFeedbackP95 })
	t := ui.NewTable(colors, "#", "Job Name", "P95 Feedback", "Fail", "Flaky", "Critical Path")
	for i, job := range ranked {
		t.Row(
			strconv.Itoa(i+1),
			job.Name,
			durationCell(colors, job.TimeToFeedbackP95),
			failureCell(colors, job.FailureRate),
			flakinessCell(colors, job.FlakinessRate),
			criticalPath(job),
		)
	}

	fmt.Fprintln(b, t.String())
	fmt.Fprintln(b)
}

func writeFailingJobs(b *strings.Builder, jobs []model.JobMetrics, colors *ui.Colors) {
	fmt.Fprintln(b, colors.Bold("❌ Top 10 Failing Jobs"))

	ranked := rankJobs(jobs, func(j model.JobMetrics) float64 { return j.FailureRate })
	t := ui.NewTable(colors, "#", "Job Name", "Fail", "P95 Feedback")
	for i, job := range ranked {
		t.Row(strconv.Itoa(i+1), job.Name, failureCell(colors, job.FailureRate), durationCell(colors, job.TimeToFeedbackP95))
	}

	fmt.Fprintln(b, t.String())
	fmt.Fprintln(b)
}

func writeFlakyJobs(b *strings.Builder, jobs []model.JobMetrics, colors *ui.Colors) {
	fmt.Fprintln(b, colors.Bold("🔄 Top 10 Flaky Jobs"))

	ranked := rankJobs(jobs, func(j model.JobMetrics) float64 { return j.FlakinessRate })
	t := ui.NewTable(colors, "#", "Job Name", "Flaky", "P95 Feedback")
	for i, job := range ranked {
		t.Row(strconv.Itoa(i+1), job.Name, flakinessCell(colors, job.FlakinessRate), durationCell(colors, job.TimeToFeedbackP95))
	}

	fmt.Fprintln(b, t.String())
	fmt.Fprintln(b)
}

func writeNextSteps(b *strings.Builder, colors *ui.Colors) {
	bullet := colors.Cyan("•")
	fmt.Fprintln(b, colors.Bold("💡 Next Steps"))
	fmt.Fprintf(b, "  %s Use %s to get detailed metrics and job dependencies\n", bullet, colors.Yellow("--format json"))
	fmt.Fprintf(b, "  %s Prioritize slowest jobs - they block developer feedback\n", bullet)
	fmt.Fprintf(b, "  %s Fix failing jobs - they create noise and reduce trust\n", bullet)
	fmt.Fprintf(b, "  %s Investigate flaky jobs - they waste CI resources and time\n", bullet)
}

// dedupeJobs folds job metrics across pipeline types by name, keeping
// the entry with the worst P95 time to feedback for each name.
func dedupeJobs(insights model.CIInsights) []model.JobMetrics {
	byName := make(map[string]model.JobMetrics)
	for _, pt := range insights.PipelineTypes {
		for _, job := range pt.Metrics.Jobs {
			existing, ok := byName[job.Name]
			if !ok || job.TimeToFeedbackP95 > existing.TimeToFeedbackP95 {
				byName[job.Name] = job
			}
		}
	}
	jobs := make([]model.JobMetrics, 0, len(byName))
	for _, job := range byName {
		jobs = append(jobs, job)
	}
	return jobs
}

// rankJobs orders jobs by the metric descending, breaking ties by name so
// repeated runs produce the same report, and keeps the top entries.
func rankJobs(jobs []model.JobMetrics, metric func(model.JobMetrics) float64) []model.JobMetrics {
	ranked := append([]model.JobMetrics(nil), jobs...)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := metric(ranked[i]), metric(ranked[j])
		if a != b {
			return a > b
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topRows {
		ranked = ranked[:topRows]
	}
	return ranked
}

func successCell(colors *ui.Colors, rate float64) string {
	return colors.SuccessRate(rate, fmt.Sprintf("%.1f%%", rate))
}

func failureCell(colors *ui.Colors, rate float64) string {
	return colors.FailureRate(rate, fmt.Sprintf("%.1f%%", rate))
}

func flakinessCell(colors *ui.Colors, rate float64) string {
	return colors.Flakiness(rate, fmt.Sprintf("%.1f%%", rate))
}

func durationCell(colors *ui.Colors, seconds float64) string {
	return colors.Duration(seconds, fmt.Sprintf("%.1fmin", seconds/60))
}

// slowestFeedbackCell names the job holding back this pipeline type, with
// its P95 time to feedback on a second line.
func slowestFeedbackCell(colors *ui.Colors, jobs []model.JobMetrics) string {
	if len(jobs) == 0 {
		return "N/A"
	}
	slowest := jobs[0]
	for _, job := range jobs[1:] {
		if job.TimeToFeedbackP95 > slowest.TimeToFeedbackP95 {
			slowest = job
		}
	}
	return slowest.Name + "\n" + durationCell(colors, slowest.TimeToFeedbackP95)
}

func exampleLink(m model.TypeMetrics) string {
	if len(m.SuccessfulPipelines.Links) > 0 {
		return m.SuccessfulPipelines.Links[0]
	}
	if len(m.FailedPipelines.Links) > 0 {
		return m.FailedPipelines.Links[0]
	}
	return "N/A"
}

func criticalPath(job model.JobMetrics) string {
	if len(job.Predecessors) == 0 {
		return "None"
	}
	names := make([]string, len(job.Predecessors))
	for i, p := range job.Predecessors {
		names[i] = p.Name
	}
	return strings.Join(names, "\n")
}
