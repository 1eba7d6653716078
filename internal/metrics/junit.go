// Package metrics ingests local JUnit XML reports, adding test-level signal
// to the pipeline analytics collected from providers.
package metrics

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joshdk/go-junit"
)

// SuiteResult aggregates the outcome of a single test suite.
type SuiteResult struct {
	Name     string
	Tests    int
	Failures int
	Errors   int
	Skipped  int
	Duration float64
}

// FailedTest identifies one failed or errored test case.
type FailedTest struct {
	Suite    string
	Name     string
	Message  string
	Duration float64
}

// Report is the aggregate over every matched JUnit file.
type Report struct {
	Files    int
	Tests    int
	Failures int
	Errors   int
	Skipped  int
	Duration float64
	Suites   []SuiteResult
	Failed   []FailedTest
}

// CollectReports parses every JUnit XML file matching pattern and aggregates
// the results. Patterns support ** for recursive matching, so
// "reports/**/junit*.xml" picks up reports from nested module directories.
func CollectReports(pattern string) (*Report, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad report glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JUnit reports match %q", pattern)
	}
	sort.Strings(paths)

	report := &Report{}
	for _, path := range paths {
		suites, err := junit.IngestFile(path)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		report.Files++
		for _, suite := range suites {
			report.addSuite(suite)
		}
	}
	return report, nil
}

// addSuite flattens nested suites; some runners nest one testsuite per class
// under a parent element.
func (r *Report) addSuite(suite junit.Suite) {
	result := SuiteResult{Name: suite.Name}
	for _, test := range suite.Tests {
		result.Tests++
		result.Duration += test.Duration.Seconds()
		switch test.Status {
		case junit.StatusFailed:
			result.Failures++
			r.Failed = append(r.Failed, failedTest(suite.Name, test))
		case junit.StatusError:
			result.Errors++
			r.Failed = append(r.Failed, failedTest(suite.Name, test))
		case junit.StatusSkipped:
			result.Skipped++
		}
	}
	if result.Tests > 0 {
		r.Tests += result.Tests
		r.Failures += result.Failures
		r.Errors += result.Errors
		r.Skipped += result.Skipped
		r.Duration += result.Duration
		r.Suites = append(r.Suites, result)
	}
	for _, nested := range suite.Suites {
		r.addSuite(nested)
	}
}

func failedTest(suite string, test junit.Test) FailedTest {
	message := test.Message
	if message == "" && test.Error != nil {
		message = test.Error.Error()
	}
	return FailedTest{
		Suite:    suite,
		Name:     test.Name,
		Message:  message,
		Duration: test.Duration.Seconds(),
	}
}

// SlowestSuites returns up to n suites ordered by duration, slowest first.
func (r *Report) SlowestSuites(n int) []SuiteResult {
	suites := append([]SuiteResult(nil), r.Suites...)
	sort.Slice(suites, func(i, j int) bool {
		if suites[i].Duration != suites[j].Duration {
			return suites[i].Duration > suites[j].Duration
		}
		return suites[i].Name < suites[j].Name
	})
	if len(suites) > n {
		suites = suites[:n]
	}
	return suites
}
