// Package cache persists fetched job data per project so repeat runs skip
// refetching pipelines already seen. Completed pipelines never change, which
// makes the cache immutable: it is loaded once at startup and a fresh cache
// is derived from the final pipeline data of each run.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anhed0nic/cilens/internal/model"
)

type cachedPipeline struct {
	Jobs []model.Job `json:"jobs"`
}

// JobCache is a per-project job cache keyed by pipeline ID, stored as one
// JSON file under the platform cache directory
// (e.g. ~/.cache/cilens/gitlab/group-project.json on Linux).
type JobCache struct {
	file      string
	pipelines map[string]cachedPipeline
	enabled   bool
}

// New loads the cache for a project, creating the cache directory when
// needed. A disabled cache is a valid instance that misses every lookup.
func New(provider, projectPath string, enabled bool) (*JobCache, error) {
	if !enabled {
		slog.Debug("Job cache disabled")
		return &JobCache{}, nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("no cache directory found: %w", err)
	}
	dir := filepath.Join(base, "cilens", provider)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	c := open(filepath.Join(dir, fileName(projectPath)))
	slog.Info("Job cache enabled", "file", c.file)
	return c, nil
}

// open loads an enabled cache from the given file, tolerating a missing or
// unreadable one.
func open(file string) *JobCache {
	c := &JobCache{file: file, pipelines: make(map[string]cachedPipeline), enabled: true}

	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return c
	}
	if err != nil {
		slog.Warn("Failed to read cache, starting empty", "file", file, "error", err)
		return c
	}
	if err := json.Unmarshal(data, &c.pipelines); err != nil {
		slog.Warn("Failed to load cache, starting empty", "file", file, "error", err)
		c.pipelines = make(map[string]cachedPipeline)
	}
	return c
}

// Get returns the cached jobs for a pipeline ID. Misses on a nil or disabled
// cache.
func (c *JobCache) Get(pipelineID string) ([]model.Job, bool) {
	if c == nil || !c.enabled {
		return nil, false
	}
	cached, ok := c.pipelines[pipelineID]
	if !ok {
		return nil, false
	}
	slog.Debug("Cache hit", "pipeline", pipelineID)
	return cached.Jobs, true
}

// SavePipelines derives a fresh cache from the given pipelines and writes it
// to disk, replacing the previous file.
func (c *JobCache) SavePipelines(pipelines []model.Pipeline) error {
	if c == nil || !c.enabled {
		return nil
	}

	cache := make(map[string]cachedPipeline, len(pipelines))
	for _, p := range pipelines {
		cache[p.ID] = cachedPipeline{Jobs: p.Jobs}
	}

	data, err := json.Marshal(cache)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.file, data, 0o644); err != nil {
		return err
	}

	slog.Debug("Saved pipelines to cache", "count", len(cache), "file", c.file)
	return nil
}

// Clear removes a project's cache file. Missing files are not an error.
func Clear(provider, projectPath string) error {
	base, err := os.UserCacheDir()
	if err != nil {
		return fmt.Errorf("no cache directory found: %w", err)
	}
	file := filepath.Join(base, "cilens", provider, fileName(projectPath))

	if err := os.Remove(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("No cache file found", "project", projectPath)
			return nil
		}
		return err
	}
	slog.Info("Cache cleared", "file", file)
	return nil
}

func fileName(projectPath string) string {
	return strings.ReplaceAll(projectPath, "/", "-") + ".json"
}
