package analysis

import (
	"sort"

	"github.com/anhed0nic/cilens/internal/model"
)

// jobGraph holds the traversal state for one pipeline: a name-keyed job map,
// the stage order, memoized finish times, and each job's recorded critical
// predecessor.
type jobGraph struct {
	jobs       map[string]*model.Job
	stageIndex map[string]int
	finish     map[string]float64
	pred       map[string]string
	visiting   map[string]bool
}

func newJobGraph(p *model.Pipeline) *jobGraph {
	jobs := make(map[string]*model.Job, len(p.Jobs))
	for i := range p.Jobs {
		// Retried duplicates share a name; the last record wins the slot.
		jobs[p.Jobs[i].Name] = &p.Jobs[i]
	}

	stageIndex := make(map[string]int, len(p.Stages))
	for i, s := range p.Stages {
		stageIndex[s] = i
	}

	return &jobGraph{
		jobs:       jobs,
		stageIndex: stageIndex,
		finish:     make(map[string]float64, len(jobs)),
		pred:       make(map[string]string),
		visiting:   make(map[string]bool),
	}
}

// finishTime computes when a job's result becomes available, measured from
// pipeline start: its own duration plus the finish time of its slowest
// dependency. Results are memoized so each job is resolved once per pipeline.
//
// Dependencies are scanned in lexicographic order and only a strictly slower
// one replaces the current maximum, so ties resolve to the smallest name.
func (g *jobGraph) finishTime(name string) float64 {
	if t, ok := g.finish[name]; ok {
		return t
	}

	job, ok := g.jobs[name]
	if !ok {
		// Referenced but absent from the pipeline: resolves to zero.
		g.finish[name] = 0
		return 0
	}

	if g.visiting[name] {
		// A needs cycle; treat the back edge as already finished.
		return 0
	}
	g.visiting[name] = true
	defer func() { g.visiting[name] = false }()

	deps := g.dependencies(job)
	if len(deps) == 0 {
		g.finish[name] = job.Duration
		return job.Duration
	}

	slowestName := deps[0]
	slowestTime := g.finishTime(deps[0])
	for _, dep := range deps[1:] {
		if t := g.finishTime(dep); t > slowestTime {
			slowestName, slowestTime = dep, t
		}
	}

	finish := slowestTime + job.Duration
	g.finish[name] = finish

	if slowestTime > 0 {
		g.pred[name] = slowestName
	}
	return finish
}

// dependencies derives a job's dependency names, sorted:
// an empty needs list means none, a non-empty list means exactly those, and
// a nil list means every job in an earlier stage. A stage missing from the
// pipeline's stage order counts as the first stage.
func (g *jobGraph) dependencies(job *model.Job) []string {
	if job.Needs != nil {
		if len(job.Needs) == 0 {
			return nil
		}
		deps := append([]string(nil), job.Needs...)
		sort.Strings(deps)
		return deps
	}

	current := g.stageIndex[job.Stage]
	var deps []string
	for name, other := range g.jobs {
		if g.stageIndex[other.Stage] < current {
			deps = append(deps, name)
		}
	}
	sort.Strings(deps)
	return deps
}

// predecessorList reconstructs a job's critical path by walking recorded
// predecessors back to the chain's start, returned in chronological order.
func (g *jobGraph) predecessorList(name string) []model.PredecessorJob {
	list := []model.PredecessorJob{}
	for current := name; ; {
		pred, ok := g.pred[current]
		if !ok {
			break
		}
		if job, exists := g.jobs[pred]; exists {
			list = append(list, model.PredecessorJob{Name: pred, DurationP50: job.Duration})
		}
		current = pred
	}

	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list
}

// ResolvePipeline resolves a single pipeline's dependency graph without
// clustering: each successful job gets its time to feedback and critical
// predecessors in chronological order. Used for offline plan previews where
// no run history exists.
func ResolvePipeline(p model.Pipeline) []model.JobMetrics {
	return pipelineJobMetrics(&p)
}

// pipelineJobMetrics resolves one pipeline's dependency graph and returns a
// JobMetrics entry per successful job, sorted slowest feedback first. With a
// single pipeline each percentile triple collapses to the one observed value,
// and reliability fields stay zero; both are filled during cluster
// aggregation.
func pipelineJobMetrics(p *model.Pipeline) []model.JobMetrics {
	if len(p.Jobs) == 0 {
		return nil
	}

	g := newJobGraph(p)

	names := make([]string, 0, len(g.jobs))
	for name := range g.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g.finishTime(name)
	}

	metrics := make([]model.JobMetrics, 0, len(names))
	for _, name := range names {
		job := g.jobs[name]
		if job.Status != model.JobSuccess {
			continue
		}

		feedback := g.finish[name]
		metrics = append(metrics, model.JobMetrics{
			Name:              name,
			DurationP50:       job.Duration,
			DurationP95:       job.Duration,
			DurationP99:       job.Duration,
			TimeToFeedbackP50: feedback,
			TimeToFeedbackP95: feedback,
			TimeToFeedbackP99: feedback,
			Predecessors:      g.predecessorList(name),
			FlakyRetries:      model.JobCountWithLinks{Links: []string{}},
			FailedExecutions:  model.JobCountWithLinks{Links: []string{}},
		})
	}

	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].TimeToFeedbackP50 != metrics[j].TimeToFeedbackP50 {
			return metrics[i].TimeToFeedbackP50 > metrics[j].TimeToFeedbackP50
		}
		return metrics[i].Name < metrics[j].Name
	})
	return metrics
}
