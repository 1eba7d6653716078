package model

import "time"

// Pipeline statuses as reported by providers (lowercase, terminal only)
const (
	PipelineSuccess = "success"
	PipelineFailed  = "failed"
)

// Job statuses as reported by providers (uppercase)
const (
	JobSuccess  = "SUCCESS"
	JobFailed   = "FAILED"
	JobCanceled = "CANCELED"
	JobSkipped  = "SKIPPED"
)

// Pipeline is a single terminal pipeline run with its jobs
type Pipeline struct {
	ID       string   `json:"id"`
	Ref      string   `json:"ref"`
	Source   string   `json:"source"`
	Status   string   `json:"status"`
	Duration int64    `json:"duration"`
	Stages   []string `json:"stages"`
	Jobs     []Job    `json:"jobs"`
}

// Job is one execution record within a pipeline. A name repeats within a
// pipeline when the job was retried; records are distinguished by ID.
type Job struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Stage    string  `json:"stage"`
	Duration float64 `json:"duration"`
	Status   string  `json:"status"`
	Retried  bool    `json:"retried"`
	// Needs distinguishes nil from empty: nil means dependencies are implied
	// by stage order, an empty list means the job starts immediately. No
	// omitempty so the distinction survives JSON round-trips.
	Needs []string `json:"needs"`
}

// CIInsights is the top-level analysis result handed to renderers
type CIInsights struct {
	Provider           string         `json:"provider"`
	Project            string         `json:"project"`
	CollectedAt        time.Time      `json:"collected_at"`
	TotalPipelines     int            `json:"total_pipelines"`
	TotalPipelineTypes int            `json:"total_pipeline_types"`
	PipelineTypes      []PipelineType `json:"pipeline_types"`
}

// PipelineType is a cluster of pipelines sharing one job-name signature
type PipelineType struct {
	Label       string      `json:"label"`
	Count       int         `json:"count"`
	Percentage  float64     `json:"percentage"`
	IDs         []string    `json:"ids"`
	Stages      []string    `json:"stages"`
	RefPatterns []string    `json:"ref_patterns"`
	Sources     []string    `json:"sources"`
	Metrics     TypeMetrics `json:"metrics"`
}

// TypeMetrics aggregates one cluster's pipelines into percentile-based stats
type TypeMetrics struct {
	Percentage          float64                `json:"percentage"`
	TotalPipelines      int                    `json:"total_pipelines"`
	SuccessfulPipelines PipelineCountWithLinks `json:"successful_pipelines"`
	FailedPipelines     PipelineCountWithLinks `json:"failed_pipelines"`
	SuccessRate         float64                `json:"success_rate"`
	DurationP50         float64                `json:"duration_p50"`
	DurationP95         float64                `json:"duration_p95"`
	DurationP99         float64                `json:"duration_p99"`
	TimeToFeedbackP50   float64                `json:"time_to_feedback_p50"`
	TimeToFeedbackP95   float64                `json:"time_to_feedback_p95"`
	TimeToFeedbackP99   float64                `json:"time_to_feedback_p99"`
	Jobs                []JobMetrics           `json:"jobs"`
}

// JobMetrics holds latency and reliability stats for one job name
type JobMetrics struct {
	Name              string            `json:"name"`
	DurationP50       float64           `json:"duration_p50"`
	DurationP95       float64           `json:"duration_p95"`
	DurationP99       float64           `json:"duration_p99"`
	TimeToFeedbackP50 float64           `json:"time_to_feedback_p50"`
	TimeToFeedbackP95 float64           `json:"time_to_feedback_p95"`
	TimeToFeedbackP99 float64           `json:"time_to_feedback_p99"`
	Predecessors      []PredecessorJob  `json:"predecessors"`
	FlakinessRate     float64           `json:"flakiness_rate"`
	FlakyRetries      JobCountWithLinks `json:"flaky_retries"`
	FailedExecutions  JobCountWithLinks `json:"failed_executions"`
	FailureRate       float64           `json:"failure_rate"`
	TotalExecutions   int               `json:"total_executions"`
}

// PredecessorJob is one critical-path ancestor of a job
type PredecessorJob struct {
	Name        string  `json:"name"`
	DurationP50 float64 `json:"duration_p50"`
}

// PipelineCountWithLinks pairs a pipeline count with example web URLs
type PipelineCountWithLinks struct {
	Count int      `json:"count"`
	Links []string `json:"links"`
}

// JobCountWithLinks pairs a job count with evidence web URLs
type JobCountWithLinks struct {
	Count int      `json:"count"`
	Links []string `json:"links"`
}
