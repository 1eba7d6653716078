package github

import "fmt"

// Links builds clickable web URLs for workflow runs and jobs. Job IDs are
// stored as "runID/job/jobID" so both resolve under the same runs path.
type Links struct {
	owner string
	repo  string
}

func NewLinks(owner, repo string) Links {
	return Links{owner: owner, repo: repo}
}

func (l Links) PipelineURL(id string) string {
	return fmt.Sprintf("https://github.com/%s/%s/actions/runs/%s", l.owner, l.repo, id)
}

func (l Links) JobURL(id string) string {
	return fmt.Sprintf("https://github.com/%s/%s/actions/runs/%s", l.owner, l.repo, id)
}
