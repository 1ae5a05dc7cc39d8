package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alan/review-miner/cmd"
	"github.com/google/go-github/v57/github"
)

// ListReviewComments retrieves at most limit inline review comments of a PR, oldest first
func (c *Client) ListReviewComments(ctx context.Context, org, repo string, number, limit int) ([]cmd.ReviewComment, error) {
	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{
			PerPage: min(limit, 100),
		},
	}

	var comments []cmd.ReviewComment
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		slog.Debug("GitHub API: Listing review comments", "org", org, "repo", repo, "pr", number, "page", opts.Page)
		page, resp, err := c.client.PullRequests.ListComments(ctx, org, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list review comments for PR #%d: %w", number, err)
		}

		for _, comment := range page {
			comments = append(comments, toReviewComment(number, comment))
			if len(comments) >= limit {
				return comments, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}
