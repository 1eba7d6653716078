package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/anhed0nic/cilens/internal/analysis"
	"github.com/anhed0nic/cilens/internal/cache"
	"github.com/anhed0nic/cilens/internal/model"
)

// Progress receives phase notifications during insight collection. Implemented
// by the terminal spinner; a nil Progress is silently ignored.
type Progress interface {
	Start(message string)
	Finish(message string)
}

// Provider fetches pipeline history for one project and turns it into
// insights.
type Provider struct {
	client      *client
	projectPath string
	cache       *cache.JobCache
	links       Links
}

// CollectOptions narrow an insight collection run.
type CollectOptions struct {
	// Limit caps the number of fetched pipelines, split evenly between
	// successful and failed ones.
	Limit int
	// Ref filters pipelines by git ref. A pattern with glob metacharacters
	// (e.g. "release/*") is matched client-side; an exact name is pushed
	// down to the API.
	Ref string
	// Since and Until bound the pipelines' update time.
	Since *time.Time
	Until *time.Time
	// MinTypePercentage drops pipeline types below this share (0-100).
	MinTypePercentage float64
	// Progress reports collection phases; nil disables reporting.
	Progress Progress
}

func NewProvider(baseURL, projectPath, token string, jobCache *cache.JobCache) (*Provider, error) {
	c, err := newClient(baseURL, token)
	if err != nil {
		return nil, err
	}
	return &Provider{
		client:      c,
		projectPath: projectPath,
		cache:       jobCache,
		links:       NewLinks(baseURL, projectPath),
	}, nil
}

// CollectInsights runs the three collection phases: fetch pipelines, fetch
// (or recall) each pipeline's jobs, and process the result into insights.
func (p *Provider) CollectInsights(ctx context.Context, opts CollectOptions) (model.CIInsights, error) {
	slog.Info("Starting insights collection", "project", p.projectPath)
	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	serverRef := opts.Ref
	if isGlobPattern(opts.Ref) {
		// The API only filters exact refs; fetch unfiltered and match below.
		serverRef = ""
	}

	progress.Start(fmt.Sprintf("Phase 1/3: Fetching pipelines (limit: %d)...", opts.Limit))
	nodes, err := p.client.fetchPipelines(ctx, p.projectPath, pipelineQuery{
		limit:         opts.Limit,
		ref:           serverRef,
		updatedAfter:  opts.Since,
		updatedBefore: opts.Until,
	})
	if err != nil {
		return model.CIInsights{}, err
	}
	progress.Finish(fmt.Sprintf("Phase 1/3: Fetched %d pipelines", len(nodes)))

	progress.Start("Phase 2/3: Fetching jobs for pipelines...")
	pipelines, err := p.fetchJobs(ctx, nodes)
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
		slog.Warn("No pipelines found", "project", p.projectPath)
	}

	progress.Start("Phase 3/3: Processing insights...")
	insights := analysis.BuildInsights("GitLab", p.projectPath, pipelines, analysis.Options{
		MinTypePercentage: opts.MinTypePercentage,
		Links:             p.links,
	})
	progress.Finish("Phase 3/3: Insights processed successfully")

	return insights, nil
}

// fetchJobs resolves jobs for every pipeline node concurrently, serving
// previously seen pipelines from the cache. Pipelines without a duration
// (still running when fetched) are dropped.
func (p *Provider) fetchJobs(ctx context.Context, nodes []pipelineNode) ([]model.Pipeline, error) {
	results := make([]*model.Pipeline, len(nodes))

	g, ctx := errgroup.WithContext(ctx)
	for i, node := range nodes {
		i, node := i, node
		g.Go(func() error {
			if node.Duration == nil {
				return nil
			}

			jobs, ok := p.cache.Get(node.ID)
			if !ok {
				jobNodes, err := p.client.fetchPipelineJobs(ctx, p.projectPath, node.ID)
				if err != nil {
					return err
				}
				jobs = transformJobs(jobNodes)
			}

			pipeline := transformPipeline(node, jobs)
			results[i] = &pipeline
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pipelines := make([]model.Pipeline, 0, len(results))
	for _, result := range results {
		if result != nil {
			pipelines = append(pipelines, *result)
		}
	}
	slog.Info("Processed pipelines", "count", len(pipelines))
	return pipelines, nil
}

func transformPipeline(node pipelineNode, jobs []model.Job) model.Pipeline {
	var stages []string
	if node.Stages != nil {
		for _, stage := range node.Stages.Nodes {
			if stage.Name != nil {
				stages = append(stages, *stage.Name)
			}
		}
	}

	return model.Pipeline{
		ID:       node.ID,
		Ref:      deref(node.Ref),
		Source:   deref(node.Source),
		Status:   strings.ToLower(node.Status),
		Duration: derefInt(node.Duration),
		Stages:   stages,
		Jobs:     jobs,
	}
}

func transformJobs(nodes []jobNode) []model.Job {
	jobs := make([]model.Job, 0, len(nodes))
	for _, node := range nodes {
		job := model.Job{
			ID:       node.ID,
			Name:     deref(node.Name),
			Duration: float64(derefInt(node.Duration)),
			Status:   deref(node.Status),
			Retried:  node.Retried != nil && *node.Retried,
		}
		if node.Stage != nil {
			job.Stage = deref(node.Stage.Name)
		}
		if node.Needs != nil {
			// An absent needs connection means stage-implied dependencies;
			// a present one, even empty, means exactly the listed jobs.
			names := make([]string, 0, len(node.Needs.Nodes))
			for _, need := range node.Needs.Nodes {
				if need.Name != nil {
					names = append(names, *need.Name)
				}
			}
			job.Needs = names
		}
		jobs = append(jobs, job)
	}
	return jobs
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

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

type nopProgress struct{}

func (nopProgress) Start(string)  {}
func (nopProgress) Finish(string) {}
