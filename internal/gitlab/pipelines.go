package gitlab

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

const pipelinesQuery = `
query FetchPipelines($projectPath: ID!, $first: Int!, $after: String, $ref: String, $status: PipelineStatusEnum, $updatedAfter: Time, $updatedBefore: Time) {
  project(fullPath: $projectPath) {
    pipelines(first: $first, after: $after, ref: $ref, status: $status, updatedAfter: $updatedAfter, updatedBefore: $updatedBefore) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        id
        ref
        source
        status
        duration
        stages {
          nodes {
            name
          }
        }
      }
    }
  }
}`

const pipelineJobsQuery = `
query FetchPipelineJobs($projectPath: ID!, $pipelineID: CiPipelineID!, $first: Int!, $after: String) {
  project(fullPath: $projectPath) {
    pipeline(id: $pipelineID) {
      jobs(first: $first, after: $after) {
        pageInfo {
          hasNextPage
          endCursor
        }
        nodes {
          id
          name
          duration
          status
          retried
          stage {
            name
          }
          needs {
            nodes {
              name
            }
          }
        }
      }
    }
  }
}`

type pipelinesVariables struct {
	ProjectPath   string     `json:"projectPath"`
	First         int        `json:"first"`
	After         *string    `json:"after,omitempty"`
	Ref           *string    `json:"ref,omitempty"`
	Status        *string    `json:"status,omitempty"`
	UpdatedAfter  *time.Time `json:"updatedAfter,omitempty"`
	UpdatedBefore *time.Time `json:"updatedBefore,omitempty"`
}

type jobsVariables struct {
	ProjectPath string  `json:"projectPath"`
	PipelineID  string  `json:"pipelineID"`
	First       int     `json:"first"`
	After       *string `json:"after,omitempty"`
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type namedNode struct {
	Name *string `json:"name"`
}

type pipelineNode struct {
	ID       string  `json:"id"`
	Ref      *string `json:"ref"`
	Source   *string `json:"source"`
	Status   string  `json:"status"`
	Duration *int64  `json:"duration"`
	Stages   *struct {
		Nodes []namedNode `json:"nodes"`
	} `json:"stages"`
}

type jobNode struct {
	ID       string     `json:"id"`
	Name     *string    `json:"name"`
	Stage    *namedNode `json:"stage"`
	Duration *int64     `json:"duration"`
	Status   *string    `json:"status"`
	Retried  *bool      `json:"retried"`
	Needs    *struct {
		Nodes []namedNode `json:"nodes"`
	} `json:"needs"`
}

type pipelinesPage struct {
	Project *struct {
		Pipelines *struct {
			PageInfo pageInfo       `json:"pageInfo"`
			Nodes    []pipelineNode `json:"nodes"`
		} `json:"pipelines"`
	} `json:"project"`
}

type jobsPage struct {
	Project *struct {
		Pipeline *struct {
			Jobs *struct {
				PageInfo pageInfo  `json:"pageInfo"`
				Nodes    []jobNode `json:"nodes"`
			} `json:"jobs"`
		} `json:"pipeline"`
	} `json:"project"`
}

// pipelineQuery narrows a pipeline fetch.
type pipelineQuery struct {
	limit         int
	ref           string
	updatedAfter  *time.Time
	updatedBefore *time.Time
}

// fetchPipelines fetches completed pipelines, querying the SUCCESS and FAILED
// halves in parallel so a run mixes both outcomes instead of whatever the
// newest pipelines happen to be.
func (c *client) fetchPipelines(ctx context.Context, projectPath string, q pipelineQuery) ([]pipelineNode, error) {
	half := q.limit / 2

	var success, failed []pipelineNode
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		success, err = c.fetchPipelinesWithStatus(ctx, projectPath, q, half, "SUCCESS")
		return err
	})
	g.Go(func() error {
		var err error
		failed, err = c.fetchPipelinesWithStatus(ctx, projectPath, q, half, "FAILED")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := append(success, failed...)
	if len(all) > q.limit {
		all = all[:q.limit]
	}
	return all, nil
}

func (c *client) fetchPipelinesWithStatus(ctx context.Context, projectPath string, q pipelineQuery, limit int, status string) ([]pipelineNode, error) {
	var all []pipelineNode
	var cursor *string

	for len(all) < limit {
		first := min(limit-len(all), pageSize)

		variables := pipelinesVariables{
			ProjectPath:   projectPath,
			First:         first,
			After:         cursor,
			Status:        &status,
			UpdatedAfter:  q.updatedAfter,
			UpdatedBefore: q.updatedBefore,
		}
		if q.ref != "" {
			variables.Ref = &q.ref
		}

		var page pipelinesPage
		if err := c.do(ctx, pipelinesQuery, variables, &page); err != nil {
			return nil, err
		}

		if page.Project == nil {
			return nil, fmt.Errorf("project %q not found", projectPath)
		}
		if page.Project.Pipelines == nil {
			return nil, fmt.Errorf("no pipeline data available for project %q", projectPath)
		}

		pipelines := page.Project.Pipelines
		all = append(all, pipelines.Nodes...)

		if !pipelines.PageInfo.HasNextPage || pipelines.PageInfo.EndCursor == nil {
			break
		}
		cursor = pipelines.PageInfo.EndCursor
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// fetchPipelineJobs pages through every job of one pipeline, retried
// duplicates included.
func (c *client) fetchPipelineJobs(ctx context.Context, projectPath, pipelineID string) ([]jobNode, error) {
	var all []jobNode
	var cursor *string

	for {
		variables := jobsVariables{
			ProjectPath: projectPath,
			PipelineID:  pipelineID,
			First:       pageSize,
			After:       cursor,
		}

		var page jobsPage
		if err := c.do(ctx, pipelineJobsQuery, variables, &page); err != nil {
			return nil, err
		}

		if page.Project == nil {
			return nil, fmt.Errorf("project %q not found", projectPath)
		}
		if page.Project.Pipeline == nil {
			return nil, fmt.Errorf("pipeline %q not found", pipelineID)
		}
		if page.Project.Pipeline.Jobs == nil {
			return nil, fmt.Errorf("no job data available for pipeline %q", pipelineID)
		}

		jobs := page.Project.Pipeline.Jobs
		all = append(all, jobs.Nodes...)

		if !jobs.PageInfo.HasNextPage || jobs.PageInfo.EndCursor == nil {
			break
		}
		cursor = jobs.PageInfo.EndCursor
	}

	return all, nil
}
