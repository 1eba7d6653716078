package model

import (
	"encoding/json"
	"testing"
)

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"pipeline success", PipelineSuccess},
		{"pipeline failed", PipelineFailed},
		{"job success", JobSuccess},
		{"job failed", JobFailed},
		{"job canceled", JobCanceled},
		{"job skipped", JobSkipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("Status %s is empty", tt.name)
			}
		})
	}
}

func TestJobNeedsRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		needs     []string
		wantNil   bool
		wantEmpty bool
	}{
		{"nil needs stays nil", nil, true, false},
		{"empty needs stays empty", []string{}, false, true},
		{"explicit needs preserved", []string{"build", "lint"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := Job{ID: "1", Name: "test", Stage: "test", Needs: tt.needs}

			data, err := json.Marshal(job)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			var decoded Job
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			if tt.wantNil && decoded.Needs != nil {
				t.Errorf("Expected nil needs, got %v", decoded.Needs)
			}
			if tt.wantEmpty && (decoded.Needs == nil || len(decoded.Needs) != 0) {
				t.Errorf("Expected empty non-nil needs, got %v", decoded.Needs)
			}
			if !tt.wantNil && !tt.wantEmpty && len(decoded.Needs) != len(tt.needs) {
				t.Errorf("Expected %d needs, got %d", len(tt.needs), len(decoded.Needs))
			}
		})
	}
}

func TestCIInsightsFieldNames(t *testing.T) {
	insights := CIInsights{
		Provider:           "GitLab",
		Project:            "group/project",
		TotalPipelines:     3,
		TotalPipelineTypes: 1,
		PipelineTypes:      []PipelineType{},
	}

	data, err := json.Marshal(insights)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, key := range []string{"provider", "project", "collected_at", "total_pipelines", "total_pipeline_types", "pipeline_types"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected JSON key %q in output", key)
		}
	}
}
