package analysis

import (
	"sort"
	"strings"

	"github.com/anhed0nic/cilens/internal/model"
)

// Cluster labels derived from job names.
const (
	LabelProduction  = "Production"
	LabelDevelopment = "Development"
	LabelUnknown     = "Unknown"
)

// signature reduces a pipeline to its sorted, deduplicated job-name list.
// Pipelines sharing a signature belong to the same cluster regardless of job
// order or retry duplicates.
func signature(p *model.Pipeline) []string {
	names := make([]string, 0, len(p.Jobs))
	for i := range p.Jobs {
		names = append(names, p.Jobs[i].Name)
	}
	sort.Strings(names)

	uniq := names[:0]
	for i, name := range names {
		if i == 0 || name != names[i-1] {
			uniq = append(uniq, name)
		}
	}
	return uniq
}

// labelFor assigns a heuristic label from case-insensitive substring matches
// over the signature's job names. The first matching rule wins.
func labelFor(jobNames []string) string {
	if anyNameContains(jobNames, "prod") {
		return LabelProduction
	}
	if anyNameContains(jobNames, "staging", "dev", "test", "qa") {
		return LabelDevelopment
	}
	return LabelUnknown
}

func anyNameContains(names []string, substrings ...string) bool {
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

// characteristics extracts the deduplicated unions of job stages, pipeline
// refs, and trigger sources across a cluster, each sorted for stable output.
func characteristics(pipelines []*model.Pipeline) (stages, refs, sources []string) {
	stageSet := make(map[string]struct{})
	refSet := make(map[string]struct{})
	sourceSet := make(map[string]struct{})

	for _, p := range pipelines {
		for i := range p.Jobs {
			// GitHub workflows have no stage concept, so the field may be empty.
			if s := p.Jobs[i].Stage; s != "" {
				stageSet[s] = struct{}{}
			}
		}
		refSet[p.Ref] = struct{}{}
		sourceSet[p.Source] = struct{}{}
	}

	return sortedKeys(stageSet), sortedKeys(refSet), sortedKeys(sourceSet)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
