package features

import (
	"github.com/cucumber/godog"

	"github.com/anhed0nic/cilens/internal/model"
)

// InitializePipelineSteps registers the Given/When steps that build pipelines
// and run the analysis. The Then steps of each feature live in their own
// files.
func InitializePipelineSteps(sc *godog.ScenarioContext, shared *sharedContext) {
	sc.Step(`^a pipeline "([^"]*)" with jobs "([^"]*)"$`, shared.aPipelineWithJobs)
	sc.Step(`^a (successful|failed) pipeline with jobs "([^"]*)"$`, shared.aStatusPipelineWithJobs)
	sc.Step(`^a (successful|failed) pipeline with duration (\d+) and jobs "([^"]*)"$`, shared.aStatusPipelineWithDuration)
	sc.Step(`^a (successful|failed) pipeline with jobs:$`, shared.aStatusPipelineWithJobTable)
	sc.Step(`^I analyze the pipelines$`, shared.iAnalyzeThePipelines)
	sc.Step(`^I analyze the pipelines keeping types above ([\d.]+)%$`, shared.iAnalyzeKeepingTypesAbove)
}

func pipelineStatus(word string) string {
	if word == "failed" {
		return model.PipelineFailed
	}
	return model.PipelineSuccess
}

func (c *sharedContext) aPipelineWithJobs(id, list string) error {
	c.addPipeline(id, model.PipelineSuccess, 60, c.simpleJobs(id, list))
	return nil
}

func (c *sharedContext) aStatusPipelineWithJobs(status, list string) error {
	id := c.nextID()
	c.addPipeline(id, pipelineStatus(status), 60, c.simpleJobs(id, list))
	return nil
}

func (c *sharedContext) aStatusPipelineWithDuration(status string, duration int, list string) error {
	id := c.nextID()
	c.addPipeline(id, pipelineStatus(status), int64(duration), c.simpleJobs(id, list))
	return nil
}

func (c *sharedContext) aStatusPipelineWithJobTable(status string, table *godog.Table) error {
	id := c.nextID()
	jobs, err := c.jobsFromTable(id, table)
	if err != nil {
		return err
	}
	c.addPipeline(id, pipelineStatus(status), 60, jobs)
	return nil
}

func (c *sharedContext) iAnalyzeThePipelines() error {
	return c.analyze()
}

func (c *sharedContext) iAnalyzeKeepingTypesAbove(minPercentage float64) error {
	c.opts.MinTypePercentage = minPercentage
	return c.analyze()
}
