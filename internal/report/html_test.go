package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/anhed0nic/cilens/internal/model"
)

func TestHTMLReportStructure(t *testing.T) {
	insights := testInsights(testType("Main Branch", 60.0, 91.7, 600.0,
		[]model.JobMetrics{testJob("unit-tests", 480.0, 12.5, 3.1)},
		"https://gitlab.com/acme/widgets/-/pipelines/1"))

	var buf bytes.Buffer
	if err := writeHTML(&buf, insights, "v0.1.0"); err != nil {
		t.Fatalf("writeHTML: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Error("report should start with a doctype")
	}
	wants := []string{
		"</html>",
		"acme/widgets",
		"GitLab",
		"Main Branch",
		"unit-tests",
		"2026-03-14 09:30 UTC",
		"Report generated by cilens v0.1.0",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestHTMLClassThresholds(t *testing.T) {
	tests := []struct {
		name string
		fn   func(float64) string
		rate float64
		want string
	}{
		{"success high", successClass, 95, "good"},
		{"success boundary", successClass, 80, "good"},
		{"success mid", successClass, 79.9, "warning"},
		{"success low", successClass, 49.9, "bad"},
		{"failure low", failureClass, 10, "good"},
		{"failure boundary", failureClass, 25, "good"},
		{"failure mid", failureClass, 40, "warning"},
		{"failure high", failureClass, 50.1, "bad"},
		{"flakiness boundary", flakinessClass, 5, "good"},
		{"flakiness mid", flakinessClass, 15, "warning"},
		{"flakiness high", flakinessClass, 15.1, "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.rate); got != tt.want {
				t.Errorf("class(%v) = %q, want %q", tt.rate, got, tt.want)
			}
		})
	}
}

func TestHTMLColorsCells(t *testing.T) {
	insights := testInsights(testType("Main", 100.0, 95.0, 300.0,
		[]model.JobMetrics{testJob("shaky-deploy", 600.0, 60.0, 10.0)},
		"https://example.com"))

	var buf bytes.Buffer
	if err := writeHTML(&buf, insights, "v0.1.0"); err != nil {
		t.Fatalf("writeHTML: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `class="good"`) {
		t.Error("success rate 95% should be marked good")
	}
	if !strings.Contains(out, `class="bad"`) {
		t.Error("failure rate 60% should be marked bad")
	}
	if !strings.Contains(out, `class="warning"`) {
		t.Error("flakiness 10% should be marked warning")
	}
}

func TestHTMLEscapesUntrustedText(t *testing.T) {
	insights := testInsights(testType("Main", 100.0, 95.0, 300.0, nil, "https://example.com"))
	insights.Project = "<script>alert(1)</script>/repo"

	var buf bytes.Buffer
	if err := writeHTML(&buf, insights, "v0.1.0"); err != nil {
		t.Fatalf("writeHTML: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "<script>alert(1)") {
		t.Error("project name must be escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("expected escaped project name in output")
	}
}
