package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alan/review-miner/cmd"
	"github.com/google/go-github/v57/github"
)

// SearchMergedPRs returns up to limit merged PR numbers, most commented first
func (c *Client) SearchMergedPRs(ctx context.Context, org, repo string, limit int) ([]int, error) {
	query := buildSearchQuery(org, repo)
	opts := &github.SearchOptions{
		Sort:  "comments",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: min(limit, 100),
		},
	}

	var numbers []int
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		slog.Debug("GitHub API: Searching merged PRs", "org", org, "repo", repo, "query", query, "page", opts.Page)
		result, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to search PRs: %w", err)
		}
		if opts.Page == 0 {
			slog.Info("Found merged PRs", "org", org, "repo", repo, "total", result.GetTotal(), "scanning", min(limit, result.GetTotal()))
		}

		for _, issue := range result.Issues {
			if !issue.IsPullRequest() {
				continue
			}
			numbers = append(numbers, issue.GetNumber())
			if len(numbers) >= limit {
				return numbers, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return numbers, nil
}

// buildSearchQuery constructs a GitHub search query for merged, closed PRs of a repository
func buildSearchQuery(org, repo string) string {
	parts := []string{
		fmt.Sprintf("repo:%s/%s", org, repo),
		"is:pr",
		"is:merged",
		"state:closed",
	}
	return strings.Join(parts, " ")
}

// GetPR fetches metadata for a specific PR by number
func (c *Client) GetPR(ctx context.Context, org, repo string, number int) (*cmd.PullRequest, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	slog.Debug("GitHub API: Getting PR", "org", org, "repo", repo, "pr", number)
	pr, _, err := c.client.PullRequests.Get(ctx, org, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR #%d: %w", number, err)
	}

	return toPullRequest(pr), nil
}

// ListFiles lists the files changed by a PR
func (c *Client) ListFiles(ctx context.Context, org, repo string, number int) ([]cmd.ChangedFile, error) {
	opts := &github.ListOptions{PerPage: 100}

	var files []cmd.ChangedFile
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		slog.Debug("GitHub API: Listing PR files", "org", org, "repo", repo, "pr", number, "page", opts.Page)
		page, resp, err := c.client.PullRequests.ListFiles(ctx, org, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list files for PR #%d: %w", number, err)
		}

		for _, file := range page {
			files = append(files, toChangedFile(file))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}
