package miner

import (
	"context"
	"fmt"

	"github.com/alan/review-miner/cmd"
)

// Extractor fetches a PR together with its review comments
type Extractor struct {
	host         CodeHost
	maxComments  int
	includeFiles bool
}

// NewExtractor creates an Extractor capping each PR at maxComments review comments
func NewExtractor(host CodeHost, maxComments int, includeFiles bool) *Extractor {
	return &Extractor{
		host:         host,
		maxComments:  maxComments,
		includeFiles: includeFiles,
	}
}

// ExtractContext returns full PR metadata with review comments, and changed files when enabled
func (e *Extractor) ExtractContext(ctx context.Context, owner, repo string, number int) (*cmd.PullRequest, error) {
	pr, err := e.host.GetPR(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PR #%d: %w", number, err)
	}

	comments, err := e.host.ListReviewComments(ctx, owner, repo, number, e.maxComments)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PR #%d: %w", number, err)
	}
	pr.ReviewComments = comments

	if e.includeFiles {
		files, err := e.host.ListFiles(ctx, owner, repo, number)
		if err != nil {
			return nil, fmt.Errorf("failed to extract PR #%d: %w", number, err)
		}
		pr.Files = files
	}

	return pr, nil
}
