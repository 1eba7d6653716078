// Package analysis turns fetched pipeline records into clustered pipeline
// types with percentile-based latency and reliability metrics. It is a pure,
// synchronous transformation over immutable input: no I/O, no retained state,
// and deterministic output ordering for identical input.
package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/anhed0nic/cilens/internal/model"
)

// LinkBuilder turns provider-specific pipeline and job IDs into web URLs used
// as evidence links in the output.
type LinkBuilder interface {
	PipelineURL(id string) string
	JobURL(id string) string
}

// Options configure a clustering run.
type Options struct {
	// MinTypePercentage drops clusters holding less than this share of all
	// pipelines, in percent (0-100).
	MinTypePercentage float64
	// Links builds evidence URLs. Nil leaves link lists empty.
	Links LinkBuilder
}

type noLinks struct{}

func (noLinks) PipelineURL(string) string { return "" }
func (noLinks) JobURL(string) string      { return "" }

// ClusterPipelines groups pipelines by job-name signature, drops clusters
// below the percentage threshold, and returns the remaining clusters with
// full metrics, sorted by pipeline count descending.
func ClusterPipelines(pipelines []model.Pipeline, opts Options) []model.PipelineType {
	if opts.Links == nil {
		opts.Links = noLinks{}
	}

	type group struct {
		signature []string
		pipelines []*model.Pipeline
	}

	groups := make(map[string]*group)
	for i := range pipelines {
		p := &pipelines[i]
		sig := signature(p)
		// Job names cannot contain NUL, so this join is collision-free.
		key := strings.Join(sig, "\x00")
		g := groups[key]
		if g == nil {
			g = &group{signature: sig}
			groups[key] = g
		}
		g.pipelines = append(g.pipelines, p)
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].pipelines) != len(ordered[j].pipelines) {
			return len(ordered[i].pipelines) > len(ordered[j].pipelines)
		}
		return compareSignatures(ordered[i].signature, ordered[j].signature) < 0
	})

	total := len(pipelines)
	types := []model.PipelineType{}
	for _, g := range ordered {
		percentage := float64(len(g.pipelines)) / float64(max(total, 1)) * 100.0
		if percentage < opts.MinTypePercentage {
			continue
		}
		types = append(types, buildPipelineType(g.signature, g.pipelines, percentage, opts.Links))
	}
	return types
}

// BuildInsights runs clustering and wraps the result in the serializable
// envelope consumed by renderers.
func BuildInsights(provider, project string, pipelines []model.Pipeline, opts Options) model.CIInsights {
	types := ClusterPipelines(pipelines, opts)
	return model.CIInsights{
		Provider:           provider,
		Project:            project,
		CollectedAt:        time.Now().UTC(),
		TotalPipelines:     len(pipelines),
		TotalPipelineTypes: len(types),
		PipelineTypes:      types,
	}
}

func buildPipelineType(sig []string, cluster []*model.Pipeline, percentage float64, links LinkBuilder) model.PipelineType {
	stages, refs, sources := characteristics(cluster)

	ids := make([]string, 0, len(cluster))
	for _, p := range cluster {
		ids = append(ids, p.ID)
	}

	return model.PipelineType{
		Label:       labelFor(sig),
		Count:       len(cluster),
		Percentage:  percentage,
		IDs:         ids,
		Stages:      stages,
		RefPatterns: refs,
		Sources:     sources,
		Metrics:     typeMetrics(cluster, percentage, links),
	}
}

func compareSignatures(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return strings.Compare(a[i], b[i])
		}
	}
	return len(a) - len(b)
}
