package plan

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/ui"
)

// WritePlan renders the execution preview: header lines, the longest chain,
// and a table of jobs grouped by wave.
func WritePlan(w io.Writer, plan *Plan, colors *ui.Colors) error {
	if colors == nil {
		colors = ui.NewColors(false)
	}

	waves := plan.Waves()

	var b strings.Builder
	fmt.Fprintln(&b, colors.Bold("🗺  Execution Plan"))
	if plan.File != "" {
		fmt.Fprintf(&b, "  %s %s\n", colors.Gray("File:"), colors.Cyan(plan.File))
	}
	fmt.Fprintf(&b, "  %s %s\n", colors.Gray("Stages:"), strings.Join(plan.Stages, ", "))
	fmt.Fprintf(&b, "  %s %s in %s\n", colors.Gray("Jobs:"), colors.Yellow(strconv.Itoa(len(plan.Jobs))), waveCount(len(waves)))
	if chain := longestChain(waves); chain != "" {
		fmt.Fprintf(&b, "  %s %s\n", colors.Gray("Longest chain:"), chain)
	}
	fmt.Fprintln(&b)

	stages := make(map[string]string, len(plan.Jobs))
	for _, job := range plan.Jobs {
		stages[job.Name] = job.Stage
	}

	t := ui.NewTable(colors, "Wave", "Job", "Stage", "Critical Path")
	for _, wave := range waves {
		for _, job := range wave.Jobs {
			t.Row(strconv.Itoa(wave.Number), job.Name, stages[job.Name], criticalChain(job))
		}
	}
	fmt.Fprintln(&b, t.String())

	_, err := io.WriteString(w, b.String())
	return err
}

func waveCount(n int) string {
	if n == 1 {
		return "1 wave"
	}
	return fmt.Sprintf("%d waves", n)
}

// longestChain names the jobs on the plan's critical path, first to last.
// The deepest wave's first job carries the full chain in its predecessors.
func longestChain(waves []Wave) string {
	if len(waves) == 0 {
		return ""
	}
	deepest := waves[len(waves)-1].Jobs[0]

	names := make([]string, 0, len(deepest.Predecessors)+1)
	for _, pred := range deepest.Predecessors {
		names = append(names, pred.Name)
	}
	names = append(names, deepest.Name)
	return strings.Join(names, " → ")
}

func criticalChain(job model.JobMetrics) string {
	if len(job.Predecessors) == 0 {
		return "None"
	}
	names := make([]string, 0, len(job.Predecessors))
	for _, pred := range job.Predecessors {
		names = append(names, pred.Name)
	}
	return strings.Join(names, "\n")
}
