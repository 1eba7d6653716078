package features

import (
	"fmt"

	"github.com/cucumber/godog"
)

// InitializeReliabilitySteps registers the assertions over flakiness and
// failure aggregation.
func InitializeReliabilitySteps(sc *godog.ScenarioContext, shared *sharedContext) {
	sc.Step(`^job "([^"]*)" should have (\d+) flaky (?:retry|retries)$`, shared.jobShouldHaveFlakyRetries)
	sc.Step(`^job "([^"]*)" should have a flakiness rate of ([\d.]+)%$`, shared.jobShouldHaveFlakinessRate)
	sc.Step(`^job "([^"]*)" should have a failure rate of ([\d.]+)%$`, shared.jobShouldHaveFailureRate)
	sc.Step(`^job "([^"]*)" should have (\d+) failed executions?$`, shared.jobShouldHaveFailedExecutions)
	sc.Step(`^job "([^"]*)" should have (\d+) recorded executions$`, shared.jobShouldHaveRecordedExecutions)
}

func (c *sharedContext) jobShouldHaveFlakyRetries(name string, want int) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	if job.FlakyRetries.Count != want {
		return fmt.Errorf("job %q has %d flaky retries, want %d", name, job.FlakyRetries.Count, want)
	}
	return nil
}

func (c *sharedContext) jobShouldHaveFlakinessRate(name string, want float64) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	if !within(job.FlakinessRate, want, 0.1) {
		return fmt.Errorf("job %q has a flakiness rate of %.2f%%, want %.2f%%", name, job.FlakinessRate, want)
	}
	return nil
}

func (c *sharedContext) jobShouldHaveFailureRate(name string, want float64) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	if !within(job.FailureRate, want, 0.1) {
		return fmt.Errorf("job %q has a failure rate of %.2f%%, want %.2f%%", name, job.FailureRate, want)
	}
	return nil
}

func (c *sharedContext) jobShouldHaveFailedExecutions(name string, want int) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	if job.FailedExecutions.Count != want {
		return fmt.Errorf("job %q has %d failed executions, want %d", name, job.FailedExecutions.Count, want)
	}
	return nil
}

func (c *sharedContext) jobShouldHaveRecordedExecutions(name string, want int) error {
	job, err := c.findJob(name)
	if err != nil {
		return err
	}
	if job.TotalExecutions != want {
		return fmt.Errorf("job %q has %d recorded executions, want %d", name, job.TotalExecutions, want)
	}
	return nil
}
