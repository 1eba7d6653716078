package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/anhed0nic/cilens/internal/cache"
)

func pipelineNodeWithRefJSON(id, status, ref string, duration int) string {
	return fmt.Sprintf(`{
		"id": "gid://gitlab/Ci::Pipeline/%s",
		"ref": %q,
		"source": "push",
		"status": %q,
		"duration": %d,
		"stages": {"nodes": [{"name": "build"}, {"name": "test"}]}
	}`, id, ref, status, duration)
}

func jobNodeJSON(id, name, stage, status string, duration int, needs ...string) string {
	needNodes := make([]string, 0, len(needs))
	for _, n := range needs {
		needNodes = append(needNodes, fmt.Sprintf(`{"name": %q}`, n))
	}
	needsJSON := "null"
	if needs != nil {
		needsJSON = fmt.Sprintf(`{"nodes": [%s]}`, strings.Join(needNodes, ","))
	}
	return fmt.Sprintf(`{
		"id": "gid://gitlab/Ci::Job/%s",
		"name": %q,
		"duration": %d,
		"status": %q,
		"retried": false,
		"stage": {"name": %q},
		"needs": %s
	}`, id, name, duration, status, stage, needsJSON)
}

// newStubGitLab serves a fixed project: two successful pipelines sharing a
// compile + unit-test signature and one failed compile-only pipeline.
func newStubGitLab(t *testing.T, jobCalls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeStubRequest(t, r)

		if strings.Contains(req.Query, "FetchPipelineJobs") {
			jobCalls.Add(1)
			switch req.Variables["pipelineID"] {
			case "gid://gitlab/Ci::Pipeline/1":
				fmt.Fprint(w, jobsPageJSON(false, "",
					jobNodeJSON("10", "compile", "build", "SUCCESS", 10),
					jobNodeJSON("11", "unit-test", "test", "SUCCESS", 20, "compile"),
				))
			case "gid://gitlab/Ci::Pipeline/2":
				fmt.Fprint(w, jobsPageJSON(false, "",
					jobNodeJSON("20", "compile", "build", "SUCCESS", 12),
					jobNodeJSON("21", "unit-test", "test", "SUCCESS", 18, "compile"),
				))
			case "gid://gitlab/Ci::Pipeline/3":
				fmt.Fprint(w, jobsPageJSON(false, "",
					jobNodeJSON("30", "compile", "build", "FAILED", 15),
				))
			default:
				t.Errorf("Unexpected pipeline ID %v", req.Variables["pipelineID"])
			}
			return
		}

		switch req.Variables["status"] {
		case "SUCCESS":
			fmt.Fprint(w, pipelinesPageJSON(false, "",
				pipelineNodeWithRefJSON("1", "SUCCESS", "main", 100),
				pipelineNodeWithRefJSON("2", "SUCCESS", "main", 200),
			))
		case "FAILED":
			fmt.Fprint(w, pipelinesPageJSON(false, "",
				pipelineNodeWithRefJSON("3", "FAILED", "main", 300),
			))
		default:
			t.Errorf("Unexpected status filter %v", req.Variables["status"])
		}
	}))
}

type recordedProgress struct {
	messages []string
}

func (p *recordedProgress) Start(msg string)  { p.messages = append(p.messages, msg) }
func (p *recordedProgress) Finish(msg string) { p.messages = append(p.messages, msg) }

func disabledCache(t *testing.T) *cache.JobCache {
	t.Helper()
	c, err := cache.New("gitlab", "group/project", false)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCollectInsights(t *testing.T) {
	var jobCalls atomic.Int32
	srv := newStubGitLab(t, &jobCalls)
	defer srv.Close()

	p, err := NewProvider(srv.URL, "group/project", "", disabledCache(t))
	if err != nil {
		t.Fatal(err)
	}

	progress := &recordedProgress{}
	insights, err := p.CollectInsights(context.Background(), CollectOptions{
		Limit:    10,
		Progress: progress,
	})
	if err != nil {
		t.Fatalf("Expected collection to succeed, got %v", err)
	}

	if insights.Provider != "GitLab" || insights.Project != "group/project" {
		t.Errorf("Expected GitLab group/project, got %s %s", insights.Provider, insights.Project)
	}
	if insights.TotalPipelines != 3 {
		t.Errorf("Expected 3 pipelines, got %d", insights.TotalPipelines)
	}
	if insights.TotalPipelineTypes != 2 {
		t.Fatalf("Expected 2 pipeline types, got %d", insights.TotalPipelineTypes)
	}

	main := insights.PipelineTypes[0]
	if main.Count != 2 || main.Label != "Development" {
		t.Errorf("Expected the Development cluster of 2, got %s with %d", main.Label, main.Count)
	}
	if !strings.HasSuffix(main.Metrics.SuccessfulPipelines.Links[0], "/group/project/-/pipelines/1") {
		t.Errorf("Expected a pipeline link, got %v", main.Metrics.SuccessfulPipelines.Links)
	}
	if main.Metrics.SuccessRate != 100 {
		t.Errorf("Expected 100%% success rate, got %f", main.Metrics.SuccessRate)
	}
	// Fastest signals per pipeline are compile at 10 and 12 seconds.
	if main.Metrics.TimeToFeedbackP50 != 12 {
		t.Errorf("Expected feedback p50 of 12, got %v", main.Metrics.TimeToFeedbackP50)
	}

	single := insights.PipelineTypes[1]
	if single.Count != 1 || single.Metrics.SuccessRate != 0 {
		t.Errorf("Expected the failed singleton cluster, got count %d rate %f",
			single.Count, single.Metrics.SuccessRate)
	}

	if jobCalls.Load() != 3 {
		t.Errorf("Expected 3 job fetches, got %d", jobCalls.Load())
	}

	wantPhases := []string{
		"Phase 1/3: Fetching pipelines (limit: 10)...",
		"Phase 1/3: Fetched 3 pipelines",
		"Phase 2/3: Fetching jobs for pipelines...",
		"Phase 2/3: Fetched jobs for all pipelines",
		"Phase 3/3: Processing insights...",
		"Phase 3/3: Insights processed successfully",
	}
	if len(progress.messages) != len(wantPhases) {
		t.Fatalf("Expected %d phase messages, got %v", len(wantPhases), progress.messages)
	}
	for i, want := range wantPhases {
		if progress.messages[i] != want {
			t.Errorf("Expected phase message %q, got %q", want, progress.messages[i])
		}
	}
}

func TestCollectInsightsMinTypePercentage(t *testing.T) {
	var jobCalls atomic.Int32
	srv := newStubGitLab(t, &jobCalls)
	defer srv.Close()

	p, err := NewProvider(srv.URL, "group/project", "", disabledCache(t))
	if err != nil {
		t.Fatal(err)
	}

	insights, err := p.CollectInsights(context.Background(), CollectOptions{
		Limit:             10,
		MinTypePercentage: 50,
	})
	if err != nil {
		t.Fatalf("Expected collection to succeed, got %v", err)
	}

	// Only the two-of-three cluster clears 50%.
	if insights.TotalPipelineTypes != 1 {
		t.Fatalf("Expected 1 pipeline type above threshold, got %d", insights.TotalPipelineTypes)
	}
	if insights.PipelineTypes[0].Count != 2 {
		t.Errorf("Expected the majority cluster, got count %d", insights.PipelineTypes[0].Count)
	}
}

func TestCollectInsightsExactRefPushedToAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeStubRequest(t, r)
		if strings.Contains(req.Query, "FetchPipelineJobs") {
			fmt.Fprint(w, jobsPageJSON(false, "", jobNodeJSON("10", "compile", "build", "SUCCESS", 10)))
			return
		}
		if got := req.Variables["ref"]; got != "main" {
			t.Errorf("Expected ref main in variables, got %v", got)
		}
		if req.Variables["status"] == "SUCCESS" {
			fmt.Fprint(w, pipelinesPageJSON(false, "", pipelineNodeWithRefJSON("1", "SUCCESS", "main", 100)))
		} else {
			fmt.Fprint(w, pipelinesPageJSON(false, ""))
		}
	}))
	defer srv.Close()

	p, err := NewProvider(srv.URL, "group/project", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	insights, err := p.CollectInsights(context.Background(), CollectOptions{Limit: 10, Ref: "main"})
	if err != nil {
		t.Fatalf("Expected collection to succeed, got %v", err)
	}
	if insights.TotalPipelines != 1 {
		t.Errorf("Expected 1 pipeline, got %d", insights.TotalPipelines)
	}
}

func TestCollectInsightsGlobRefFiltersClientSide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeStubRequest(t, r)
		if strings.Contains(req.Query, "FetchPipelineJobs") {
			fmt.Fprint(w, jobsPageJSON(false, "", jobNodeJSON("10", "compile", "build", "SUCCESS", 10)))
			return
		}
		if _, ok := req.Variables["ref"]; ok {
			t.Errorf("Expected no server-side ref filter for a glob, got %v", req.Variables["ref"])
		}
		if req.Variables["status"] == "SUCCESS" {
			fmt.Fprint(w, pipelinesPageJSON(false, "",
				pipelineNodeWithRefJSON("1", "SUCCESS", "main", 100),
				pipelineNodeWithRefJSON("2", "SUCCESS", "release/1.0", 200),
			))
		} else {
			fmt.Fprint(w, pipelinesPageJSON(false, ""))
		}
	}))
	defer srv.Close()

	p, err := NewProvider(srv.URL, "group/project", "", nil)
	if err != nil {
		t.Fatal(err)
	}

	insights, err := p.CollectInsights(context.Background(), CollectOptions{Limit: 10, Ref: "release/*"})
	if err != nil {
		t.Fatalf("Expected collection to succeed, got %v", err)
	}
	if insights.TotalPipelines != 1 {
		t.Fatalf("Expected only the release pipeline, got %d", insights.TotalPipelines)
	}
	if refs := insights.PipelineTypes[0].RefPatterns; len(refs) != 1 || refs[0] != "release/1.0" {
		t.Errorf("Expected ref release/1.0, got %v", refs)
	}
}

func TestCollectInsightsJobCacheAvoidsRefetch(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmp)
	if dir, err := os.UserCacheDir(); err != nil || dir != tmp {
		t.Skip("user cache dir does not honor XDG_CACHE_HOME on this platform")
	}

	var jobCalls atomic.Int32
	srv := newStubGitLab(t, &jobCalls)
	defer srv.Close()

	run := func() int {
		jobCache, err := cache.New("gitlab", "group/project", true)
		if err != nil {
			t.Fatal(err)
		}
		p, err := NewProvider(srv.URL, "group/project", "", jobCache)
		if err != nil {
			t.Fatal(err)
		}
		insights, err := p.CollectInsights(context.Background(), CollectOptions{Limit: 10})
		if err != nil {
			t.Fatalf("Expected collection to succeed, got %v", err)
		}
		return insights.TotalPipelines
	}

	if total := run(); total != 3 {
		t.Fatalf("Expected 3 pipelines on the first run, got %d", total)
	}
	if jobCalls.Load() != 3 {
		t.Fatalf("Expected 3 job fetches on the first run, got %d", jobCalls.Load())
	}

	if total := run(); total != 3 {
		t.Fatalf("Expected 3 pipelines on the cached run, got %d", total)
	}
	if jobCalls.Load() != 3 {
		t.Errorf("Expected the cached run to fetch no jobs, got %d total fetches", jobCalls.Load())
	}
}
