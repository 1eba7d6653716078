package plan

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acarl005/stripansi"

	"github.com/anhed0nic/cilens/internal/model"
	"github.com/anhed0nic/cilens/internal/ui"
)

const fullDefinition = `stages:
  - build
  - test
  - deploy

variables:
  CI_DEBUG: "false"

workflow:
  rules:
    - if: $CI_PIPELINE_SOURCE == "push"

.base-rules:
  tags: [docker]

compile:
  stage: build
  script: make

lint:
  stage: build
  script: make lint

unit:
  stage: test
  needs: ["compile"]

integration:
  stage: test
  needs:
    - job: compile
      optional: true
    - lint

docs:
  script: make docs

release:
  stage: deploy
  needs: []
`

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		wantErr    bool
		wantStages []string
		wantJobs   []string
	}{
		{
			name:       "full definition",
			yaml:       fullDefinition,
			wantStages: []string{"build", "test", "deploy"},
			wantJobs:   []string{"compile", "lint", "unit", "integration", "docs", "release"},
		},
		{
			name:       "missing stages falls back to defaults",
			yaml:       "compile:\n  stage: build\n  script: make\n",
			wantStages: []string{"build", "test", "deploy"},
			wantJobs:   []string{"compile"},
		},
		{
			name:    "invalid yaml",
			yaml:    "stages: [build\n",
			wantErr: true,
		},
		{
			name:    "duplicate job names",
			yaml:    "unit:\n  script: a\nunit:\n  script: b\n",
			wantErr: true,
		},
		{
			name:    "no jobs",
			yaml:    "variables:\n  FOO: bar\n",
			wantErr: true,
		},
		{
			name:    "empty file",
			yaml:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Parse([]byte(tt.yaml))

			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if strings.Join(plan.Stages, ",") != strings.Join(tt.wantStages, ",") {
				t.Errorf("Stages = %v, want %v", plan.Stages, tt.wantStages)
			}

			names := make([]string, 0, len(plan.Jobs))
			for _, job := range plan.Jobs {
				names = append(names, job.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.wantJobs, ",") {
				t.Errorf("Jobs = %v, want %v", names, tt.wantJobs)
			}
		})
	}
}

func TestParseJobDetails(t *testing.T) {
	plan, err := Parse([]byte(fullDefinition))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	jobs := make(map[string]Job, len(plan.Jobs))
	for _, job := range plan.Jobs {
		jobs[job.Name] = job
	}

	// Absent stage defaults to test.
	if jobs["docs"].Stage != "test" {
		t.Errorf("docs stage = %s, want test", jobs["docs"].Stage)
	}

	// Absent needs stays nil, stage ordering applies.
	if jobs["compile"].Needs != nil {
		t.Errorf("compile needs = %v, want nil", jobs["compile"].Needs)
	}

	// Explicit empty needs stays non-nil.
	if jobs["release"].Needs == nil || len(jobs["release"].Needs) != 0 {
		t.Errorf("release needs = %v, want empty list", jobs["release"].Needs)
	}

	// String form.
	if len(jobs["unit"].Needs) != 1 || jobs["unit"].Needs[0] != "compile" {
		t.Errorf("unit needs = %v, want [compile]", jobs["unit"].Needs)
	}

	// Mixed mapping and string form.
	got := strings.Join(jobs["integration"].Needs, ",")
	if got != "compile,lint" {
		t.Errorf("integration needs = %v, want [compile lint]", jobs["integration"].Needs)
	}
}

func TestParseSkipsNonJobEntries(t *testing.T) {
	yaml := "fake: just a string\ncompile:\n  stage: build\n  script: make\n"

	plan, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(plan.Jobs) != 1 || plan.Jobs[0].Name != "compile" {
		t.Errorf("Jobs = %v, want only compile", plan.Jobs)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitlab-ci.yml")
	if err := os.WriteFile(path, []byte(fullDefinition), 0644); err != nil {
		t.Fatalf("Failed to write definition: %v", err)
	}

	plan, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if plan.File != path {
		t.Errorf("File = %s, want %s", plan.File, path)
	}
	if len(plan.Jobs) != 6 {
		t.Errorf("len(Jobs) = %d, want 6", len(plan.Jobs))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatal("Expected error for a missing file")
	}
}

func TestPipeline(t *testing.T) {
	plan := &Plan{
		Stages: []string{"build", "test"},
		Jobs: []Job{
			{Name: "compile", Stage: "build"},
			{Name: "unit", Stage: "test", Needs: []string{"compile"}},
		},
	}

	p := plan.Pipeline()
	if p.Status != model.PipelineSuccess {
		t.Errorf("Status = %s, want %s", p.Status, model.PipelineSuccess)
	}
	if len(p.Jobs) != 2 {
		t.Fatalf("len(Jobs) = %d, want 2", len(p.Jobs))
	}
	for _, job := range p.Jobs {
		if job.Duration != 1 {
			t.Errorf("%s duration = %v, want 1", job.Name, job.Duration)
		}
		if job.Status != model.JobSuccess {
			t.Errorf("%s status = %s, want %s", job.Name, job.Status, model.JobSuccess)
		}
	}
	if p.Jobs[0].Needs != nil {
		t.Errorf("compile needs = %v, want nil", p.Jobs[0].Needs)
	}
	if len(p.Jobs[1].Needs) != 1 {
		t.Errorf("unit needs = %v, want [compile]", p.Jobs[1].Needs)
	}
}

func TestWavesDiamond(t *testing.T) {
	plan := &Plan{
		Stages: []string{"build", "test", "deploy"},
		Jobs: []Job{
			{Name: "build-app", Stage: "build", Needs: []string{}},
			{Name: "test-a", Stage: "test", Needs: []string{"build-app"}},
			{Name: "test-b", Stage: "test", Needs: []string{"build-app"}},
			{Name: "deploy", Stage: "deploy", Needs: []string{"test-a", "test-b"}},
		},
	}

	waves := plan.Waves()
	if len(waves) != 3 {
		t.Fatalf("len(waves) = %d, want 3", len(waves))
	}

	wantJobs := [][]string{{"build-app"}, {"test-a", "test-b"}, {"deploy"}}
	for i, wave := range waves {
		if wave.Number != i+1 {
			t.Errorf("wave number = %d, want %d", wave.Number, i+1)
		}
		names := make([]string, 0, len(wave.Jobs))
		for _, job := range wave.Jobs {
			names = append(names, job.Name)
		}
		if strings.Join(names, ",") != strings.Join(wantJobs[i], ",") {
			t.Errorf("wave %d jobs = %v, want %v", i+1, names, wantJobs[i])
		}
	}

	// The tie between test-a and test-b resolves to the smaller name.
	deploy := waves[2].Jobs[0]
	if len(deploy.Predecessors) != 2 || deploy.Predecessors[0].Name != "build-app" || deploy.Predecessors[1].Name != "test-a" {
		t.Errorf("deploy predecessors = %v, want [build-app test-a]", deploy.Predecessors)
	}
}

func TestWavesStageOrdering(t *testing.T) {
	plan := &Plan{
		Stages: []string{"build", "test", "deploy"},
		Jobs: []Job{
			{Name: "compile", Stage: "build"},
			{Name: "unit", Stage: "test"},
			{Name: "e2e", Stage: "test"},
			{Name: "release", Stage: "deploy"},
		},
	}

	waves := plan.Waves()
	if len(waves) != 3 {
		t.Fatalf("len(waves) = %d, want 3", len(waves))
	}
	if len(waves[1].Jobs) != 2 {
		t.Errorf("wave 2 has %d jobs, want 2", len(waves[1].Jobs))
	}
	if waves[2].Jobs[0].Name != "release" {
		t.Errorf("wave 3 job = %s, want release", waves[2].Jobs[0].Name)
	}
}

func TestWavesMissingDependency(t *testing.T) {
	plan := &Plan{
		Stages: []string{"test"},
		Jobs: []Job{
			{Name: "unit", Stage: "test", Needs: []string{"ghost"}},
		},
	}

	waves := plan.Waves()
	if len(waves) != 1 {
		t.Fatalf("len(waves) = %d, want 1", len(waves))
	}
	if len(waves[0].Jobs[0].Predecessors) != 0 {
		t.Errorf("predecessors = %v, want none", waves[0].Jobs[0].Predecessors)
	}
}

func TestWritePlan(t *testing.T) {
	plan := &Plan{
		File:   ".gitlab-ci.yml",
		Stages: []string{"build", "test", "deploy"},
		Jobs: []Job{
			{Name: "build-app", Stage: "build", Needs: []string{}},
			{Name: "test-a", Stage: "test", Needs: []string{"build-app"}},
			{Name: "test-b", Stage: "test", Needs: []string{"build-app"}},
			{Name: "deploy", Stage: "deploy", Needs: []string{"test-a", "test-b"}},
		},
	}

	var buf bytes.Buffer
	if err := WritePlan(&buf, plan, ui.NewColors(true)); err != nil {
		t.Fatalf("WritePlan() error = %v", err)
	}
	out := stripansi.Strip(buf.String())

	wants := []string{
		"🗺  Execution Plan",
		"File: .gitlab-ci.yml",
		"Stages: build, test, deploy",
		"Jobs: 4 in 3 waves",
		"Longest chain: build-app → test-a → deploy",
		"Wave",
		"Critical Path",
		"build-app",
		"test-b",
		"None",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\nGot:\n%s", want, out)
		}
	}
}

func TestWritePlanSingleWave(t *testing.T) {
	plan := &Plan{
		Stages: []string{"test"},
		Jobs: []Job{
			{Name: "unit", Stage: "test"},
			{Name: "lint", Stage: "test"},
		},
	}

	var buf bytes.Buffer
	if err := WritePlan(&buf, plan, nil); err != nil {
		t.Fatalf("WritePlan() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Jobs: 2 in 1 wave") {
		t.Errorf("Expected single-wave phrasing, got:\n%s", out)
	}
	if !strings.Contains(out, "Longest chain: lint") {
		t.Errorf("Expected a single-job chain, got:\n%s", out)
	}
}
