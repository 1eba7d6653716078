// Package gitlab collects pipeline history from a GitLab instance over its
// GraphQL API and turns it into CI insights.
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	maxRetries            = 30
	maxConcurrentRequests = 500
	pageSize              = 50

	userAgent = "cilens/0.1.0"
)

var retryDelay = 10 * time.Second

// client posts GraphQL queries to one GitLab instance. A weighted semaphore
// caps in-flight requests across all goroutines, and transient failures
// (network errors, 429, 5xx) are retried with a fixed delay.
type client struct {
	http       *http.Client
	graphqlURL string
	token      string
	sem        *semaphore.Weighted
}

func newClient(baseURL, token string) (*client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &client{
		http:       &http.Client{Timeout: 60 * time.Second},
		graphqlURL: base.JoinPath("api", "graphql").String(),
		token:      token,
		sem:        semaphore.NewWeighted(maxConcurrentRequests),
	}, nil
}

type graphqlRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// do executes one GraphQL request and decodes the data field into out.
// The semaphore permit is held for the whole retry loop, one permit per
// logical request.
func (c *client) do(ctx context.Context, query string, variables, out any) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.post(ctx, body)
		if err != nil {
			if ctx.Err() != nil || attempt >= maxRetries {
				return err
			}
			slog.Warn("Network error, retrying",
				"error", err, "delay", retryDelay, "attempt", attempt+1, "max", maxRetries)
			if err := sleep(ctx, retryDelay); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			drain(resp)
			if attempt >= maxRetries {
				return fmt.Errorf("gitlab api error (status %d) after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("GitLab API error, retrying",
				"status", resp.StatusCode, "delay", retryDelay, "attempt", attempt+1, "max", maxRetries)
			if err := sleep(ctx, retryDelay); err != nil {
				return err
			}
			continue
		}

		return decodeResponse(resp, out)
	}
}

func (c *client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gitlab api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("graphql errors: %s", strings.Join(messages, ", "))
	}

	if envelope.Data == nil {
		return fmt.Errorf("graphql response contained no data")
	}
	return json.Unmarshal(envelope.Data, out)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
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
