// Package plan previews a pipeline's execution order from its definition
// alone, before any run exists. It parses a GitLab CI file, builds a
// synthetic single-run pipeline with unit job durations, and resolves the
// dependency graph so a job's time to feedback equals the length of its
// critical chain.
package plan

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anhed0nic/cilens/internal/analysis"
	"github.com/anhed0nic/cilens/internal/model"
)

// defaultStages is the implicit stage order used when none is declared.
var defaultStages = []string{"build", "test", "deploy"}

// reservedKeys are top-level configuration entries that are not jobs.
var reservedKeys = map[string]bool{
	"default":       true,
	"include":       true,
	"stages":        true,
	"variables":     true,
	"workflow":      true,
	"image":         true,
	"services":      true,
	"cache":         true,
	"before_script": true,
	"after_script":  true,
	"types":         true,
}

// Job is one concrete job parsed from the pipeline definition.
type Job struct {
	Name  string
	Stage string
	// Needs is nil when the job relies on stage ordering, and an empty
	// non-nil list when the definition declares needs with no entries.
	Needs []string
}

// Plan is a parsed pipeline definition.
type Plan struct {
	File   string
	Stages []string
	Jobs   []Job
}

// Load reads and parses a GitLab CI definition from disk.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline definition: %w", err)
	}
	plan, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	plan.File = path
	return plan, nil
}

// Parse parses a GitLab CI definition. Hidden job templates (names starting
// with ".") and reserved configuration keys are skipped; everything else with
// a mapping value is a job. A job without a stage lands in "test", and a file
// without a stages list gets the implicit build, test, deploy order.
func Parse(data []byte) (*Plan, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("empty pipeline definition")
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, errors.New("pipeline definition must be a mapping")
	}

	plan := &Plan{}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i].Value, mapping.Content[i+1]
		if value.Kind == yaml.AliasNode {
			value = value.Alias
		}

		if key == "stages" {
			if err := value.Decode(&plan.Stages); err != nil {
				return nil, fmt.Errorf("invalid stages list: %w", err)
			}
			continue
		}
		if reservedKeys[key] || strings.HasPrefix(key, ".") {
			continue
		}
		if value.Kind != yaml.MappingNode {
			// Scalar or list values at the top level are configuration,
			// not jobs.
			continue
		}

		var spec jobSpec
		if err := value.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid job %q: %w", key, err)
		}
		stage := spec.Stage
		if stage == "" {
			stage = "test"
		}
		plan.Jobs = append(plan.Jobs, Job{Name: key, Stage: stage, Needs: spec.Needs})
	}

	if len(plan.Jobs) == 0 {
		return nil, errors.New("no jobs found in pipeline definition")
	}
	if len(plan.Stages) == 0 {
		plan.Stages = append([]string(nil), defaultStages...)
	}
	return plan, nil
}

type jobSpec struct {
	Stage string    `yaml:"stage"`
	Needs needsList `yaml:"needs"`
}

// needsList accepts both GitLab forms: a plain list of job names, or a list
// of {job: name} mappings carrying extra attributes.
type needsList []string

func (n *needsList) UnmarshalYAML(value *yaml.Node) error {
	var entries []yaml.Node
	if err := value.Decode(&entries); err != nil {
		return fmt.Errorf("needs must be a list: %w", err)
	}
	// An explicit needs key always yields a non-nil list, even when empty;
	// nil is reserved for jobs that never declare needs at all.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind == yaml.AliasNode {
			entry = *entry.Alias
		}
		switch entry.Kind {
		case yaml.ScalarNode:
			names = append(names, entry.Value)
		case yaml.MappingNode:
			var ref struct {
				Job string `yaml:"job"`
			}
			if err := entry.Decode(&ref); err != nil {
				return err
			}
			if ref.Job != "" {
				names = append(names, ref.Job)
			}
		default:
			return fmt.Errorf("unsupported needs entry on line %d", entry.Line)
		}
	}
	*n = names
	return nil
}

// Pipeline builds a synthetic single-run pipeline from the plan: every job
// succeeds with unit duration, so resolved feedback times count jobs on the
// critical chain rather than seconds.
func (p *Plan) Pipeline() model.Pipeline {
	jobs := make([]model.Job, 0, len(p.Jobs))
	for _, job := range p.Jobs {
		jobs = append(jobs, model.Job{
			ID:       job.Name,
			Name:     job.Name,
			Stage:    job.Stage,
			Duration: 1,
			Status:   model.JobSuccess,
			Needs:    job.Needs,
		})
	}
	return model.Pipeline{
		ID:     "plan",
		Status: model.PipelineSuccess,
		Stages: append([]string(nil), p.Stages...),
		Jobs:   jobs,
	}
}

// Wave groups jobs that become runnable at the same resolution step.
type Wave struct {
	Number int
	Jobs   []model.JobMetrics
}

// Waves resolves the plan's dependency graph and groups jobs by depth: wave 1
// holds jobs with nothing to wait for, wave n+1 jobs whose slowest dependency
// sits in wave n. Jobs within a wave are sorted by name.
func (p *Plan) Waves() []Wave {
	resolved := analysis.ResolvePipeline(p.Pipeline())

	byDepth := make(map[int][]model.JobMetrics)
	deepest := 0
	for _, job := range resolved {
		wave := int(job.TimeToFeedbackP50)
		byDepth[wave] = append(byDepth[wave], job)
		if wave > deepest {
			deepest = wave
		}
	}

	waves := make([]Wave, 0, deepest)
	for n := 1; n <= deepest; n++ {
		jobs := byDepth[n]
		sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
		waves = append(waves, Wave{Number: n, Jobs: jobs})
	}
	return waves
}
