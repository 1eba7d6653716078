package analysis

import (
	"sort"

	"github.com/anhed0nic/cilens/internal/model"
)

// typeMetrics aggregates one cluster into TypeMetrics: pipeline partitioning
// with evidence links, duration percentiles over successful pipelines, job
// aggregation, and reliability over the whole cluster.
func typeMetrics(cluster []*model.Pipeline, percentage float64, links LinkBuilder) model.TypeMetrics {
	total := len(cluster)

	var successful, failedPipelines []*model.Pipeline
	for _, p := range cluster {
		if p.Status == model.PipelineSuccess {
			successful = append(successful, p)
		} else {
			failedPipelines = append(failedPipelines, p)
		}
	}

	durations := make([]float64, 0, len(successful))
	for _, p := range successful {
		durations = append(durations, float64(p.Duration))
	}
	durationP50, durationP95, durationP99 := percentiles(durations)

	jobs, firstFeedback := aggregateJobMetrics(successful, cluster, links)
	feedbackP50, feedbackP95, feedbackP99 := percentiles(firstFeedback)

	return model.TypeMetrics{
		Percentage:          percentage,
		TotalPipelines:      total,
		SuccessfulPipelines: pipelineLinks(successful, links),
		FailedPipelines:     pipelineLinks(failedPipelines, links),
		SuccessRate:         float64(len(successful)) / float64(max(total, 1)) * 100.0,
		DurationP50:         durationP50,
		DurationP95:         durationP95,
		DurationP99:         durationP99,
		TimeToFeedbackP50:   feedbackP50,
		TimeToFeedbackP95:   feedbackP95,
		TimeToFeedbackP99:   feedbackP99,
		Jobs:                jobs,
	}
}

func pipelineLinks(pipelines []*model.Pipeline, links LinkBuilder) model.PipelineCountWithLinks {
	urls := []string{}
	for _, p := range pipelines {
		urls = appendLink(urls, links.PipelineURL(p.ID))
	}
	return model.PipelineCountWithLinks{Count: len(pipelines), Links: urls}
}

// jobData collects one job name's per-pipeline samples during aggregation.
type jobData struct {
	durations        []float64
	feedbacks        []float64
	predecessorNames [][]string
}

// aggregateJobMetrics resolves every successful pipeline's dependency graph,
// merges the per-pipeline samples by job name, attaches reliability computed
// over the whole cluster, and returns the merged jobs sorted by feedback p95
// descending, together with the per-pipeline first-feedback sample (each
// pipeline's fastest job signal) for pipeline-level percentiles.
func aggregateJobMetrics(successful, all []*model.Pipeline, links LinkBuilder) ([]model.JobMetrics, []float64) {
	if len(successful) == 0 {
		return []model.JobMetrics{}, nil
	}

	perPipeline := make([][]model.JobMetrics, 0, len(successful))
	for _, p := range successful {
		perPipeline = append(perPipeline, pipelineJobMetrics(p))
	}

	var firstFeedback []float64
	for _, metrics := range perPipeline {
		if len(metrics) == 0 {
			continue
		}
		fastest := metrics[0].TimeToFeedbackP50
		for _, m := range metrics[1:] {
			if m.TimeToFeedbackP50 < fastest {
				fastest = m.TimeToFeedbackP50
			}
		}
		firstFeedback = append(firstFeedback, fastest)
	}

	data := make(map[string]*jobData)
	for _, metrics := range perPipeline {
		for i := range metrics {
			m := &metrics[i]
			d := data[m.Name]
			if d == nil {
				d = &jobData{}
				data[m.Name] = d
			}
			d.durations = append(d.durations, m.DurationP50)
			d.feedbacks = append(d.feedbacks, m.TimeToFeedbackP50)

			names := make([]string, 0, len(m.Predecessors))
			for _, pred := range m.Predecessors {
				names = append(names, pred.Name)
			}
			d.predecessorNames = append(d.predecessorNames, names)
		}
	}

	// Predecessor entries reference other jobs' duration p50, so compute
	// those for every name up front.
	durationP50 := make(map[string]float64, len(data))
	for name, d := range data {
		p50, _, _ := percentiles(d.durations)
		durationP50[name] = p50
	}

	reliability := reliabilityByName(all, links)

	jobs := make([]model.JobMetrics, 0, len(data))
	for name, d := range data {
		jobs = append(jobs, buildJobMetrics(name, d, durationP50, reliability))
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].TimeToFeedbackP95 != jobs[j].TimeToFeedbackP95 {
			return jobs[i].TimeToFeedbackP95 > jobs[j].TimeToFeedbackP95
		}
		return jobs[i].Name < jobs[j].Name
	})
	return jobs, firstFeedback
}

func buildJobMetrics(name string, d *jobData, durationP50 map[string]float64, reliability map[string]jobReliability) model.JobMetrics {
	dp50, dp95, dp99 := percentiles(d.durations)
	fp50, fp95, fp99 := percentiles(d.feedbacks)

	metrics := model.JobMetrics{
		Name:              name,
		DurationP50:       dp50,
		DurationP95:       dp95,
		DurationP99:       dp99,
		TimeToFeedbackP50: fp50,
		TimeToFeedbackP95: fp95,
		TimeToFeedbackP99: fp99,
		Predecessors:      aggregatePredecessors(d.predecessorNames, durationP50),
		FlakyRetries:      model.JobCountWithLinks{Links: []string{}},
		FailedExecutions:  model.JobCountWithLinks{Links: []string{}},
	}

	if r, ok := reliability[name]; ok {
		metrics.TotalExecutions = r.totalExecutions
		metrics.FlakinessRate = r.flakinessRate
		metrics.FlakyRetries = model.JobCountWithLinks{Count: r.flakyRetries, Links: r.flakyLinks}
		metrics.FailureRate = r.failureRate
		metrics.FailedExecutions = model.JobCountWithLinks{Count: r.failedExecutions, Links: r.failedLinks}
	}
	return metrics
}

// aggregatePredecessors merges per-pipeline critical paths into one
// deduplicated predecessor list with each predecessor's duration p50
// attached, sorted slowest first. Names without a duration entry (never
// successful in this cluster) are dropped.
func aggregatePredecessors(allNames [][]string, durationP50 map[string]float64) []model.PredecessorJob {
	seen := make(map[string]struct{})
	result := []model.PredecessorJob{}
	for _, names := range allNames {
		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			if p50, ok := durationP50[name]; ok {
				result = append(result, model.PredecessorJob{Name: name, DurationP50: p50})
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DurationP50 != result[j].DurationP50 {
			return result[i].DurationP50 > result[j].DurationP50
		}
		return result[i].Name < result[j].Name
	})
	return result
}
