package github

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/anhed0nic/cilens/internal/analysis"
	"github.com/anhed0nic/cilens/internal/cache"
	"github.com/anhed0nic/cilens/internal/model"
)

// maxConcurrentJobFetches caps parallel job requests per run; the GitHub API
// rate limit is far tighter than GitLab's.
const maxConcurrentJobFetches = 10

// Progress receives phase notifications during insight collection.
type Progress interface {
	Start(message string)
	Finish(message string)
}

// Provider fetches workflow history for one repository and turns it into
// insights.
type Provider struct {
	client *client
	owner  string
	repo   string
	cache  *cache.JobCache
	links  Links
}

// CollectOptions narrow an insight collection run.
type CollectOptions struct {
	Limit int
	// Ref filters runs by branch. Glob patterns are matched client-side.
	Ref               string
	Since             *time.Time
	Until             *time.Time
	MinTypePercentage float64
	Progress          Progress
}

func NewProvider(baseURL, projectPath, token string, jobCache *cache.JobCache) (*Provider, error) {
	owner, repo, ok := strings.Cut(projectPath, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("project path must be in format 'owner/repo', got %q", projectPath)
	}

	return &Provider{
		client: newClient(baseURL, owner, repo, token),
		owner:  owner,
		repo:   repo,
		cache:  jobCache,
		links:  NewLinks(owner, repo),
	}, nil
}

// CollectInsights runs the three collection phases: fetch workflow runs,
// fetch (or recall) each run's jobs, and process the result into insights.
func (p *Provider) CollectInsights(ctx context.Context, opts CollectOptions) (model.CIInsights, error) {
	project := p.owner + "/" + p.repo
	slog.Info("Starting insights collection", "repository", project)
	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	branch := opts.Ref
	if isGlobPattern(opts.Ref) {
		branch = ""
	}

	progress.Start(fmt.Sprintf("Phase 1/3: Fetching pipelines (limit: %d)...", opts.Limit))
	runs, err := p.client.fetchWorkflowRuns(ctx, runQuery{
		limit:  opts.Limit,
		branch: branch,
		since:  opts.Since,
		until:  opts.Until,
	})
	if err != nil {
		return model.CIInsights{}, err
	}
	progress.Finish(fmt.Sprintf("Phase 1/3: Fetched %d pipelines", len(runs)))

	progress.Start("Phase 2/3: Fetching jobs for pipelines...")
	pipelines, err := p.fetchJobs(ctx, runs)
	if err != nil {
		return model.CIInsights{}, err
	}
	if isGlobPattern(opts.Ref) {
		pipelines = filterByRefPattern(pipelines, opts.Ref)
	}
	if err := p.cache.SavePipelines(pipelines); err != nil {
		slog.Warn("Failed to save job cache", "error", err)
	}
	progress.Finish("Phase 2/3: Fetched jobs for all pipelines")

	if len(pipelines) == 0 {
		slog.Warn("No workflow runs found", "repository", project)
	}

	progress.Start("Phase 3/3: Processing insights...")
	insights := analysis.BuildInsights("GitHub Actions", project, pipelines, analysis.Options{
		MinTypePercentage: opts.MinTypePercentage,
		Links:             p.links,
	})
	progress.Finish("Phase 3/3: Insights processed successfully")

	return insights, nil
}

func (p *Provider) fetchJobs(ctx context.Context, runs []workflowRun) ([]model.Pipeline, error) {
	results := make([]model.Pipeline, len(runs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentJobFetches)
	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			runID := strconv.FormatInt(run.ID, 10)

			jobs, ok := p.cache.Get(runID)
			if !ok {
				jobNodes, err := p.client.fetchRunJobs(ctx, run.ID)
				if err != nil {
					return err
				}
				jobs = transformJobs(run, jobNodes)
			}

			results[i] = transformRun(run, jobs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("Processed workflow runs", "count", len(results))
	return results, nil
}

// transformRun maps a workflow run onto the provider-neutral pipeline shape.
// GitHub Actions has no stage concept, and the jobs API does not expose the
// needs graph, so jobs carry an empty stage and stage-implied dependencies
// over an empty stage list.
func transformRun(run workflowRun, jobs []model.Job) model.Pipeline {
	status := model.PipelineFailed
	if run.Conclusion == "success" {
		status = model.PipelineSuccess
	}

	return model.Pipeline{
		ID:       strconv.FormatInt(run.ID, 10),
		Ref:      run.HeadBranch,
		Source:   run.Event,
		Status:   status,
		Duration: int64(run.UpdatedAt.Sub(run.CreatedAt).Seconds()),
		Jobs:     jobs,
	}
}

// transformJobs maps job executions onto the shared model. Executions from
// an earlier run attempt are marked retried so they feed flakiness metrics.
func transformJobs(run workflowRun, nodes []workflowJob) []model.Job {
	jobs := make([]model.Job, 0, len(nodes))
	for _, node := range nodes {
		var duration float64
		if node.StartedAt != nil && node.CompletedAt != nil {
			duration = node.CompletedAt.Sub(*node.StartedAt).Seconds()
		}

		jobs = append(jobs, model.Job{
			ID:       fmt.Sprintf("%d/job/%d", run.ID, node.ID),
			Name:     node.Name,
			Duration: duration,
			Status:   jobStatus(node.Conclusion),
			Retried:  node.RunAttempt > 0 && node.RunAttempt < run.RunAttempt,
		})
	}
	return jobs
}

// jobStatus maps a job conclusion onto the uppercase status vocabulary shared
// with the GitLab provider.
func jobStatus(conclusion string) string {
	switch conclusion {
	case "success":
		return model.JobSuccess
	case "failure":
		return model.JobFailed
	case "cancelled":
		return model.JobCanceled
	case "skipped":
		return model.JobSkipped
	default:
		return strings.ToUpper(conclusion)
	}
}

func filterByRefPattern(pipelines []model.Pipeline, pattern string) []model.Pipeline {
	matched := make([]model.Pipeline, 0, len(pipelines))
	for _, p := range pipelines {
		ok, err := doublestar.Match(pattern, p.Ref)
		if err != nil {
			slog.Warn("Invalid ref pattern", "pattern", pattern, "error", err)
			return pipelines
		}
		if ok {
			matched = append(matched, p)
		}
	}
	return matched
}

func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

type nopProgress struct{}

func (nopProgress) Start(string)  {}
func (nopProgress) Finish(string) {}
