package github

import (
	"github.com/alan/review-miner/cmd"
	"github.com/google/go-github/v57/github"
)

// toPullRequest converts API metadata into a PR record. CommentCount sums issue and review comments.
func toPullRequest(pr *github.PullRequest) *cmd.PullRequest {
	return &cmd.PullRequest{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		Author:       pr.GetUser().GetLogin(),
		Description:  pr.GetBody(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
		BaseBranch:   pr.GetBase().GetRef(),
		HeadBranch:   pr.GetHead().GetRef(),
		ChangedFiles: pr.GetChangedFiles(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		CommentCount: pr.GetComments() + pr.GetReviewComments(),
	}
}

func toReviewComment(number int, comment *github.PullRequestComment) cmd.ReviewComment {
	return cmd.ReviewComment{
		ID:        comment.GetID(),
		PRNumber:  number,
		Path:      comment.GetPath(),
		DiffHunk:  comment.GetDiffHunk(),
		Body:      comment.GetBody(),
		Author:    comment.GetUser().GetLogin(),
		CreatedAt: comment.GetCreatedAt().Time,
		Line:      comment.GetLine(),
		CommitID:  comment.GetCommitID(),
	}
}

func toChangedFile(file *github.CommitFile) cmd.ChangedFile {
	return cmd.ChangedFile{
		Filename:  file.GetFilename(),
		Status:    file.GetStatus(),
		Additions: file.GetAdditions(),
		Deletions: file.GetDeletions(),
		Changes:   file.GetChanges(),
	}
}
