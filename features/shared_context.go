package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/anhed0nic/cilens/internal/analysis"
	"github.com/anhed0nic/cilens/internal/model"
)

// sharedContext holds one scenario's state: the pipelines built by Given
// steps and the insights produced by the When step. The analysis engine runs
// in-process; no provider or network is involved.
type sharedContext struct {
	pipelines []model.Pipeline
	opts      analysis.Options
	insights  model.CIInsights
	analyzed  bool
}

func (c *sharedContext) addPipeline(id, status string, duration int64, jobs []model.Job) {
	stages := []string{}
	seen := map[string]bool{}
	for _, j := range jobs {
		if !seen[j.Stage] {
			seen[j.Stage] = true
			stages = append(stages, j.Stage)
		}
	}

	c.pipelines = append(c.pipelines, model.Pipeline{
		ID:       id,
		Ref:      "main",
		Source:   "push",
		Status:   status,
		Duration: duration,
		Stages:   stages,
		Jobs:     jobs,
	})
}

func (c *sharedContext) nextID() string {
	return strconv.Itoa(100 + len(c.pipelines))
}

// simpleJobs builds a successful job per comma-separated name, all in one
// stage with a uniform duration.
func (c *sharedContext) simpleJobs(pipelineID, list string) []model.Job {
	var jobs []model.Job
	for i, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		jobs = append(jobs, model.Job{
			ID:       fmt.Sprintf("%s-%d", pipelineID, i),
			Name:     name,
			Stage:    "test",
			Duration: 10,
			Status:   model.JobSuccess,
		})
	}
	return jobs
}

// jobsFromTable builds jobs from a Gherkin table. The header row names the
// columns; name, stage, and duration are expected, status, retried, and
// needs are optional.
func (c *sharedContext) jobsFromTable(pipelineID string, table *godog.Table) ([]model.Job, error) {
	if len(table.Rows) < 2 {
		return nil, fmt.Errorf("job table needs a header row and at least one job")
	}

	columns := map[string]int{}
	for i, cell := range table.Rows[0].Cells {
		columns[strings.TrimSpace(cell.Value)] = i
	}
	cell := func(row int, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(table.Rows[row].Cells) {
			return ""
		}
		return strings.TrimSpace(table.Rows[row].Cells[idx].Value)
	}

	var jobs []model.Job
	for row := 1; row < len(table.Rows); row++ {
		name := cell(row, "name")
		if name == "" {
			return nil, fmt.Errorf("job table row %d has no name", row)
		}

		job := model.Job{
			ID:     fmt.Sprintf("%s-%d", pipelineID, row),
			Name:   name,
			Stage:  "test",
			Status: model.JobSuccess,
		}
		if stage := cell(row, "stage"); stage != "" {
			job.Stage = stage
		}
		if duration := cell(row, "duration"); duration != "" {
			d, err := strconv.ParseFloat(duration, 64)
			if err != nil {
				return nil, fmt.Errorf("job %q has bad duration %q", name, duration)
			}
			job.Duration = d
		}
		if status := cell(row, "status"); status != "" {
			job.Status = status
		}
		if retried := cell(row, "retried"); retried != "" {
			r, err := strconv.ParseBool(retried)
			if err != nil {
				return nil, fmt.Errorf("job %q has bad retried value %q", name, retried)
			}
			job.Retried = r
		}
		if needs := cell(row, "needs"); needs != "" {
			for _, dep := range strings.Split(needs, ",") {
				job.Needs = append(job.Needs, strings.TrimSpace(dep))
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (c *sharedContext) analyze() error {
	c.insights = analysis.BuildInsights("GitLab", "acme/widgets", c.pipelines, c.opts)
	c.analyzed = true
	return nil
}

// typeAt returns the 1-based nth pipeline type of the analyzed insights.
func (c *sharedContext) typeAt(n int) (*model.PipelineType, error) {
	if !c.analyzed {
		return nil, fmt.Errorf("no analysis ran yet")
	}
	if n < 1 || n > len(c.insights.PipelineTypes) {
		return nil, fmt.Errorf("no pipeline type %d, have %d", n, len(c.insights.PipelineTypes))
	}
	return &c.insights.PipelineTypes[n-1], nil
}

// findJob locates a job's aggregated metrics across all pipeline types.
func (c *sharedContext) findJob(name string) (*model.JobMetrics, error) {
	if !c.analyzed {
		return nil, fmt.Errorf("no analysis ran yet")
	}
	for t := range c.insights.PipelineTypes {
		jobs := c.insights.PipelineTypes[t].Metrics.Jobs
		for i := range jobs {
			if jobs[i].Name == name {
				return &jobs[i], nil
			}
		}
	}
	return nil, fmt.Errorf("job %q not found in any pipeline type", name)
}

func within(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}
