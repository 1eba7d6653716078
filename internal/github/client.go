// Package github collects workflow run history from the GitHub Actions API
// and turns it into CI insights.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	perPage    = 100
	maxRetries = 30
	userAgent  = "cilens/0.1.0"
)

// retryDelay is a variable so tests can shorten it.
var retryDelay = 10 * time.Second

// client fetches workflow runs and jobs over the GitHub REST API.
type client struct {
	http    *http.Client
	baseURL string
	owner   string
	repo    string
	token   string
}

func newClient(baseURL, owner, repo, token string) *client {
	return &client{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		owner:   owner,
		repo:    repo,
		token:   token,
	}
}

// workflowRun is a completed GitHub Actions run.
type workflowRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadBranch string    `json:"head_branch"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	RunAttempt int       `json:"run_attempt"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type workflowRunsResponse struct {
	WorkflowRuns []workflowRun `json:"workflow_runs"`
}

// workflowJob is one job execution within a run. With filter=all the jobs
// endpoint returns executions from every run attempt, which is what lets
// retried jobs surface in flakiness metrics.
type workflowJob struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	RunAttempt  int        `json:"run_attempt"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type workflowJobsResponse struct {
	Jobs []workflowJob `json:"jobs"`
}

// runQuery narrows a workflow run fetch.
type runQuery struct {
	limit  int
	branch string
	since  *time.Time
	until  *time.Time
}

// fetchWorkflowRuns pages through the repository's workflow runs, keeping
// only completed ones with a conclusion.
func (c *client) fetchWorkflowRuns(ctx context.Context, q runQuery) ([]workflowRun, error) {
	var all []workflowRun

	pageSize := min(perPage, q.limit)
	for page := 1; len(all) < q.limit; page++ {
		values := url.Values{}
		values.Set("per_page", strconv.Itoa(pageSize))
		values.Set("page", strconv.Itoa(page))
		if q.branch != "" {
			values.Set("branch", q.branch)
		}
		if created := createdRange(q.since, q.until); created != "" {
			values.Set("created", created)
		}

		endpoint := fmt.Sprintf("%s/repos/%s/%s/actions/runs?%s",
			c.baseURL, c.owner, c.repo, values.Encode())

		var resp workflowRunsResponse
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("fetching workflow runs: %w", err)
		}

		for _, run := range resp.WorkflowRuns {
			if run.Status == "completed" && run.Conclusion != "" {
				all = append(all, run)
			}
		}

		if len(resp.WorkflowRuns) < pageSize {
			break
		}
	}

	if len(all) > q.limit {
		all = all[:q.limit]
	}
	return all, nil
}

// fetchRunJobs pages through every job of one workflow run.
func (c *client) fetchRunJobs(ctx context.Context, runID int64) ([]workflowJob, error) {
	var all []workflowJob

	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d/jobs?filter=all&per_page=%d&page=%d",
			c.baseURL, c.owner, c.repo, runID, perPage, page)

		var resp workflowJobsResponse
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("fetching jobs for run %d: %w", runID, err)
		}

		all = append(all, resp.Jobs...)
		if len(resp.Jobs) < perPage {
			break
		}
	}

	return all, nil
}

// get issues one API request, retrying transport errors and throttled
// responses with the same policy as the GitLab client.
func (c *client) get(ctx context.Context, endpoint string, out any) error {
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil || attempt >= maxRetries {
				return err
			}
			slog.Warn("GitHub request failed, retrying", "error", err, "attempt", attempt+1)
			if err := sleep(ctx, retryDelay); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err
		}

		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		body := strings.TrimSpace(string(text))

		if !retryableStatus(resp.StatusCode, body) || attempt >= maxRetries {
			return fmt.Errorf("github api error (status %d): %s", resp.StatusCode, body)
		}
		slog.Warn("GitHub API throttled, retrying", "status", resp.StatusCode, "attempt", attempt+1)
		if err := sleep(ctx, retryDelay); err != nil {
			return err
		}
	}
}

func (c *client) send(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// retryableStatus reports whether a response is worth retrying. GitHub
// signals primary rate limiting with 403 rather than 429, distinguishable
// only by the message body.
func retryableStatus(status int, body string) bool {
	if status == http.StatusTooManyRequests || status >= 500 {
		return true
	}
	return status == http.StatusForbidden && strings.Contains(body, "rate limit")
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// createdRange formats the since/until bounds as a GitHub search range
// (">=X", "<=Y", or "X..Y").
func createdRange(since, until *time.Time) string {
	const layout = "2006-01-02T15:04:05Z"
	switch {
	case since != nil && until != nil:
		return since.UTC().Format(layout) + ".." + until.UTC().Format(layout)
	case since != nil:
		return ">=" + since.UTC().Format(layout)
	case until != nil:
		return "<=" + until.UTC().Format(layout)
	default:
		return ""
	}
}
