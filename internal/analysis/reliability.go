package analysis

import (
	"sort"

	"github.com/anhed0nic/cilens/internal/model"
)

// jobReliability aggregates one job name's execution outcomes across a group
// of pipelines.
type jobReliability struct {
	totalExecutions  int
	flakinessRate    float64
	flakyRetries     int
	flakyLinks       []string
	failureRate      float64
	failedExecutions int
	failedLinks      []string
}

// reliabilityByName classifies every (pipeline, job name) record group as
// flaky, failed, or clean, and aggregates counts, rates, and evidence links
// per job name across all given pipelines.
func reliabilityByName(pipelines []*model.Pipeline, links LinkBuilder) map[string]jobReliability {
	executions := make(map[string]int)
	flakyRetries := make(map[string]int)
	flakyLinks := make(map[string][]string)
	failed := make(map[string]int)
	failedLinks := make(map[string][]string)

	for _, pipeline := range pipelines {
		grouped := groupJobsByName(pipeline.Jobs)

		names := make([]string, 0, len(grouped))
		for name := range grouped {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			records := grouped[name]
			executions[name] += len(records)

			switch {
			case isJobFlaky(records):
				for _, r := range records {
					if !r.Retried {
						continue
					}
					flakyRetries[name]++
					flakyLinks[name] = appendLink(flakyLinks[name], links.JobURL(r.ID))
				}
			case isJobFailed(records):
				failed[name]++
				if final := finalRecord(records); final != nil {
					failedLinks[name] = appendLink(failedLinks[name], links.JobURL(final.ID))
				}
			}
		}
	}

	result := make(map[string]jobReliability, len(executions))
	for name, total := range executions {
		retries := flakyRetries[name]
		failures := failed[name]
		result[name] = jobReliability{
			totalExecutions:  total,
			flakinessRate:    ratePercent(retries, total),
			flakyRetries:     retries,
			flakyLinks:       nonNil(flakyLinks[name]),
			failureRate:      ratePercent(failures, total),
			failedExecutions: failures,
			failedLinks:      nonNil(failedLinks[name]),
		}
	}
	return result
}

func groupJobsByName(jobs []model.Job) map[string][]*model.Job {
	grouped := make(map[string][]*model.Job)
	for i := range jobs {
		grouped[jobs[i].Name] = append(grouped[jobs[i].Name], &jobs[i])
	}
	return grouped
}

// finalRecord returns the first non-retried record of a group, the execution
// that stands as the job's outcome for the pipeline. Nil when every record
// was retried.
func finalRecord(records []*model.Job) *model.Job {
	for _, r := range records {
		if !r.Retried {
			return r
		}
	}
	return nil
}

// isJobFlaky reports whether a record group was retried and ultimately
// succeeded.
func isJobFlaky(records []*model.Job) bool {
	retried := false
	for _, r := range records {
		if r.Retried {
			retried = true
			break
		}
	}
	if !retried {
		return false
	}

	final := finalRecord(records)
	return final != nil && final.Status == model.JobSuccess
}

// isJobFailed reports whether a record group lacks a successful final
// execution. Mutually exclusive with flaky: callers check flaky first.
func isJobFailed(records []*model.Job) bool {
	final := finalRecord(records)
	return final == nil || final.Status != model.JobSuccess
}

func ratePercent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100.0
}

// appendLink skips empty URLs so a nil LinkBuilder leaves lists empty.
func appendLink(dst []string, url string) []string {
	if url == "" {
		return dst
	}
	return append(dst, url)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
