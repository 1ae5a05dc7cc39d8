// Package miner selects high-signal pull requests, classifies their review comments
// and drives the resumable mining pipeline.
package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alan/review-miner/cmd"
)

// ErrNoPRsFound is returned when no merged PR could be confirmed
var ErrNoPRsFound = errors.New("no merged pull requests found")

// CodeHost is the subset of the GitHub client used by the miner
type CodeHost interface {
	SearchMergedPRs(ctx context.Context, owner, repo string, limit int) ([]int, error)
	GetPR(ctx context.Context, owner, repo string, number int) (*cmd.PullRequest, error)
	ListReviewComments(ctx context.Context, owner, repo string, number, limit int) ([]cmd.ReviewComment, error)
	ListFiles(ctx context.Context, owner, repo string, number int) ([]cmd.ChangedFile, error)
}

// Selector picks the most commented merged PRs of a repository
type Selector struct {
	host            CodeHost
	maxCandidates   int
	earlyStopFactor int
}

// NewSelector creates a Selector. An earlyStopFactor of 0 confirms every candidate.
func NewSelector(host CodeHost, maxCandidates, earlyStopFactor int) *Selector {
	return &Selector{
		host:            host,
		maxCandidates:   maxCandidates,
		earlyStopFactor: earlyStopFactor,
	}
}

// SelectTopK returns the k merged PRs with the most comments
func (s *Selector) SelectTopK(ctx context.Context, owner, repo string, k int) ([]cmd.PullRequest, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	numbers, err := s.host.SearchMergedPRs(ctx, owner, repo, s.maxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to search merged PRs: %w", err)
	}

	var confirmed []cmd.PullRequest
	for _, number := range numbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pr, err := s.host.GetPR(ctx, owner, repo, number)
		if err != nil {
			slog.Warn("Skipping candidate PR", "org", owner, "repo", repo, "pr", number, "error", err)
			continue
		}
		confirmed = append(confirmed, *pr)

		if s.earlyStopFactor > 0 && len(confirmed) >= s.earlyStopFactor*k {
			slog.Debug("Enough candidates confirmed", "confirmed", len(confirmed), "k", k)
			break
		}
	}

	if len(confirmed) == 0 {
		return nil, ErrNoPRsFound
	}

	SortByComments(confirmed)
	if len(confirmed) > k {
		confirmed = confirmed[:k]
	}
	return confirmed, nil
}

// SortByComments orders PRs by comment count descending, newer PR numbers first on ties
func SortByComments(prs []cmd.PullRequest) {
	sort.Slice(prs, func(i, j int) bool {
		if prs[i].CommentCount != prs[j].CommentCount {
			return prs[i].CommentCount > prs[j].CommentCount
		}
		return prs[i].Number > prs[j].Number
	})
}
