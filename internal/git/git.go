// Package git infers the project to analyze from the local repository when
// neither the command line nor the config names one.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// Remote identifies a hosted project parsed from a git remote URL.
type Remote struct {
	Host    string // e.g. "gitlab.com"
	Project string // e.g. "group/subgroup/project"
}

// DetectRepoRoot returns the repository root containing dir and whether dir
// is inside a repository at all.
func DetectRepoRoot(dir string) (string, bool) {
	out, err := runGit(dir, "rev-parse", "--show-toplevel")
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

// OriginURL reads the URL of the origin remote for the repository
// containing dir.
func OriginURL(dir string) (string, error) {
	out, err := runGit(dir, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("reading origin remote: %w", err)
	}
	if out == "" {
		return "", errors.New("origin remote has no URL")
	}
	return out, nil
}

// InferProject parses the origin remote of the repository containing dir
// into a host and project path.
func InferProject(dir string) (Remote, error) {
	raw, err := OriginURL(dir)
	if err != nil {
		return Remote{}, err
	}
	return ParseRemote(raw)
}

// ParseRemote extracts the host and project path from a git remote URL. It
// accepts scp-like SSH remotes (git@host:group/project.git) as well as
// ssh:// and http(s):// URLs, with or without credentials and ports.
func ParseRemote(raw string) (Remote, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Remote{}, errors.New("empty remote URL")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return Remote{}, fmt.Errorf("parsing remote URL %q: %w", raw, err)
		}
		remote := Remote{Host: u.Hostname(), Project: projectPath(u.Path)}
		if remote.Host == "" || remote.Project == "" {
			return Remote{}, fmt.Errorf("remote URL %q has no project path", raw)
		}
		return remote, nil
	}

	// scp-like syntax: [user@]host:group/project.git
	rest := raw
	if at := strings.Index(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	host, path, ok := strings.Cut(rest, ":")
	if !ok {
		return Remote{}, fmt.Errorf("unrecognized remote URL %q", raw)
	}
	remote := Remote{Host: host, Project: projectPath(path)}
	if remote.Host == "" || remote.Project == "" {
		return Remote{}, fmt.Errorf("remote URL %q has no project path", raw)
	}
	return remote, nil
}

func projectPath(path string) string {
	path = strings.Trim(path, "/")
	return strings.TrimSuffix(path, ".git")
}

// runGit executes one git command in dir and returns its trimmed stdout.
func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}
