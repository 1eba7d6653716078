package features

import (
	"fmt"

	"github.com/cucumber/godog"
)

// InitializeClusteringSteps registers the assertions over pipeline types:
// how many there are, how big each one is, and how it is labeled.
func InitializeClusteringSteps(sc *godog.ScenarioContext, shared *sharedContext) {
	sc.Step(`^there should be (\d+) pipeline types?$`, shared.thereShouldBePipelineTypes)
	sc.Step(`^type (\d+) should contain (\d+) pipelines?$`, shared.typeShouldContainPipelines)
	sc.Step(`^type (\d+) should hold ([\d.]+)% of the pipelines$`, shared.typeShouldHoldPercentage)
	sc.Step(`^type (\d+) should be labeled "([^"]*)"$`, shared.typeShouldBeLabeled)
	sc.Step(`^the report should still count (\d+) pipelines$`, shared.theReportShouldCountPipelines)
}

func (c *sharedContext) thereShouldBePipelineTypes(want int) error {
	if !c.analyzed {
		return fmt.Errorf("no analysis ran yet")
	}
	if got := len(c.insights.PipelineTypes); got != want {
		return fmt.Errorf("expected %d pipeline types, got %d", want, got)
	}
	if c.insights.TotalPipelineTypes != want {
		return fmt.Errorf("total_pipeline_types = %d, want %d", c.insights.TotalPipelineTypes, want)
	}
	return nil
}

func (c *sharedContext) typeShouldContainPipelines(n, want int) error {
	t, err := c.typeAt(n)
	if err != nil {
		return err
	}
	if t.Count != want {
		return fmt.Errorf("type %d contains %d pipelines, want %d", n, t.Count, want)
	}
	return nil
}

func (c *sharedContext) typeShouldHoldPercentage(n int, want float64) error {
	t, err := c.typeAt(n)
	if err != nil {
		return err
	}
	if !within(t.Percentage, want, 0.1) {
		return fmt.Errorf("type %d holds %.2f%% of the pipelines, want %.2f%%", n, t.Percentage, want)
	}
	return nil
}

func (c *sharedContext) typeShouldBeLabeled(n int, want string) error {
	t, err := c.typeAt(n)
	if err != nil {
		return err
	}
	if t.Label != want {
		return fmt.Errorf("type %d is labeled %q, want %q", n, t.Label, want)
	}
	return nil
}

func (c *sharedContext) theReportShouldCountPipelines(want int) error {
	if c.insights.TotalPipelines != want {
		return fmt.Errorf("total_pipelines = %d, want %d", c.insights.TotalPipelines, want)
	}
	return nil
}
