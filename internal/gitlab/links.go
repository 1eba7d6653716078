package gitlab

import (
	"fmt"
	"strings"
)

// Links builds clickable web URLs from GraphQL Global IDs
// (e.g. gid://gitlab/Ci::Pipeline/123).
type Links struct {
	baseURL     string
	projectPath string
}

func NewLinks(baseURL, projectPath string) Links {
	return Links{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		projectPath: projectPath,
	}
}

func (l Links) PipelineURL(gid string) string {
	return fmt.Sprintf("%s/%s/-/pipelines/%s", l.baseURL, l.projectPath, numericID(gid))
}

func (l Links) JobURL(gid string) string {
	return fmt.Sprintf("%s/%s/-/jobs/%s", l.baseURL, l.projectPath, numericID(gid))
}

// numericID extracts the trailing numeric ID from a GID, or returns the input
// unchanged when it contains no slash.
func numericID(gid string) string {
	return gid[strings.LastIndex(gid, "/")+1:]
}
