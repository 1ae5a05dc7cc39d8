package commands

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RepoRef identifies a repository, and optionally one of its pull requests
type RepoRef struct {
	Owner    string
	Repo     string
	PRNumber int
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

var (
	sshRemote  = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	namePart   = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	schemeHost = regexp.MustCompile(`^https?://[^/]+/`)
)

// splitPath returns the path segments of a GitHub URL or an owner/repo shorthand
func splitPath(raw string) []string {
	raw = strings.TrimSpace(raw)
	if m := sshRemote.FindStringSubmatch(raw); len(m) == 3 {
		return []string{m[1], m[2]}
	}
	raw = schemeHost.ReplaceAllString(raw, "")
	raw = strings.TrimPrefix(raw, "github.com/")
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.Split(strings.Trim(raw, "/"), "/")
}

// ParseRepoURL extracts owner and repo from https://github.com/owner/repo(.git) or owner/repo
func ParseRepoURL(raw string) (RepoRef, error) {
	parts := splitPath(raw)
	if len(parts) < 2 {
		return RepoRef{}, fmt.Errorf("invalid repository URL %q: expected https://github.com/owner/repo or owner/repo", raw)
	}

	ref := RepoRef{Owner: parts[0], Repo: strings.TrimSuffix(parts[1], ".git")}
	if !namePart.MatchString(ref.Owner) || !namePart.MatchString(ref.Repo) {
		return RepoRef{}, fmt.Errorf("invalid repository URL %q: bad owner or repository name", raw)
	}
	return ref, nil
}

// ParsePRURL extracts owner, repo and PR number from https://github.com/owner/repo/pull/N or owner/repo/pull/N
func ParsePRURL(raw string) (RepoRef, error) {
	parts := splitPath(raw)
	if len(parts) < 4 || parts[2] != "pull" {
		return RepoRef{}, fmt.Errorf("invalid PR URL %q: expected https://github.com/owner/repo/pull/N", raw)
	}

	ref, err := ParseRepoURL(parts[0] + "/" + parts[1])
	if err != nil {
		return RepoRef{}, err
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return RepoRef{}, fmt.Errorf("invalid PR number %q in %q", parts[3], raw)
	}
	ref.PRNumber = number
	return ref, nil
}

// DefaultGuidelinesOutput names the guidelines document after the repository
func DefaultGuidelinesOutput(repo string) string {
	return repo + "-pr-comments-llm.txt"
}
