package features

import (
	"fmt"

	"github.com/cucumber/godog"

	"github.com/anhed0nic/cilens/internal/model"
)

// InitializeFeedbackSteps registers the assertions over time-to-feedback
// analysis: per-job feedback times, critical predecessors, and the
// type-level duration and feedback aggregates.
func InitializeFeedbackSteps(sc *godog.ScenarioContext, shared *sharedContext) {
	sc.Step(`^job "([^"]*)" should reach feedback after (\d+) seconds$`, shared.jobShouldReachFeedbackAfter)
	sc.Step(`^job "([^"]*)" should have critical predecessor "([^"]*)"$`, shared.jobShouldHaveCriticalPredecessor)
	sc.Step(`^job "([^"]*)" should have no critical predecessors$`, shared.jobShouldHaveNoCriticalPredecessors)
	sc.Step(`^the pipeline type should reach first feedback after (\d+) seconds$`, shared.typeShouldReachFirstFeedbackAfter)
	sc.Step(`^the pipeline type should have a p50 duration of (\d+) seconds$`, shared.typeShouldHaveP50Duration)
	sc.Step(`^the pipeline type should have a success rate of ([\d.]+)%$`, shared.typeShouldHaveSuccessRate)
	sc.Step(`^the pipeline type should have (\d+) successful and (\d+) failed pipelines?$`, shared.typeShouldPartitionPipelines)
}

func (c *sharedContext) jobShouldReachFeedbackAfter(name string, seconds int) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	if !within(job.TimeToFeedbackP50, float64(seconds), 0.001) {
		return fmt.Errorf("job %q reaches feedback after %.1fs, want %ds", name, job.TimeToFeedbackP50, seconds)
	}
	return nil
}

func (c *sharedContext) jobShouldHaveCriticalPredecessor(name, predecessor string) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	for _, pred := range job.Predecessors {
		if pred.Name == predecessor {
			return nil
		}
	}
	return fmt.Errorf("job %q has predecessors %v, want %q among them", name, predecessorNames(job.Predecessors), predecessor)
}

func (c *sharedContext) jobShouldHaveNoCriticalPredecessors(name string) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	if len(job.Predecessors) != 0 {
		return fmt.Errorf("job %q has predecessors %v, want none", name, predecessorNames(job.Predecessors))
	}
	return nil
}

func (c *sharedContext) typeShouldReachFirstFeedbackAfter(seconds int) error {
	t, err := c.typeAt(1)
	if err != nil {
		return err
	}
	if !within(t.Metrics.TimeToFeedbackP50, float64(seconds), 0.001) {
		return fmt.Errorf("first feedback after %.1fs, want %ds", t.Metrics.TimeToFeedbackP50, seconds)
	}
	return nil
}

func (c *sharedContext) typeShouldHaveP50Duration(seconds int) error {
	t, err := c.typeAt(1)
	if err != nil {
		return err
	}
	if !within(t.Metrics.DurationP50, float64(seconds), 0.001) {
		return fmt.Errorf("p50 duration is %.1fs, want %ds", t.Metrics.DurationP50, seconds)
	}
	return nil
}

func (c *sharedContext) typeShouldHaveSuccessRate(want float64) error {
	t, err := c.typeAt(1)
	if err != nil {
		return err
	}
	if !within(t.Metrics.SuccessRate, want, 0.1) {
		return fmt.Errorf("success rate is %.2f%%, want %.2f%%", t.Metrics.SuccessRate, want)
	}
	return nil
}

func (c *sharedContext) typeShouldPartitionPipelines(successful, failed int) error {
	t, err := c.typeAt(1)
	if err != nil {
		return err
	}
	if t.Metrics.SuccessfulPipelines.Count != successful {
		return fmt.Errorf("successful = %d, want %d", t.Metrics.SuccessfulPipelines.Count, successful)
	}
	if t.Metrics.FailedPipelines.Count != failed {
		return fmt.Errorf("failed = %d, want %d", t.Metrics.FailedPipelines.Count, failed)
	}
	return nil
}

func predecessorNames(preds []model.PredecessorJob) []string {
	names := make([]string, 0, len(preds))
	for _, p := range preds {
		names = append(names, p.Name)
	}
	return names
}
