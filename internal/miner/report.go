package miner

import (
	"fmt"
	"strings"

	"github.com/alan/review-miner/cmd"
	"github.com/alan/review-miner/internal/checkpoint"
)

var reportSeparator = strings.Repeat("-", 80)

// FormatReport renders the analysis report of a classify run
func FormatReport(cp *cmd.Checkpoint) string {
	issueAndReview := 0
	for _, pr := range cp.TopPRs {
		if cp.IsProcessed(pr.Number) {
			issueAndReview += pr.CommentCount
		}
	}

	var b strings.Builder
	b.WriteString("Code Review Comments Analysis\n")
	fmt.Fprintf(&b, "Repository: %s/%s\n", cp.Owner, cp.Repo)
	fmt.Fprintf(&b, "Total PRs analyzed: %d\n", len(cp.ProcessedPRIDs))
	fmt.Fprintf(&b, "Total comments: %d (analyzed %d review comments)\n\n", issueAndReview, cp.TotalCommentsCount)
	b.WriteString("All Comments:\n\n")

	for _, c := range cp.AllComments {
		fmt.Fprintf(&b, "PR #%d: %s\n", c.PRNumber, c.PRTitle)
		fmt.Fprintf(&b, "File: %s\n", c.File)
		fmt.Fprintf(&b, "Comment: %s\n", c.Comment)
		fmt.Fprintf(&b, "Classification: %s\n", c.Category)
		if c.Category == cmd.CategoryCodeStandards && c.InferredStandard != "" {
			fmt.Fprintf(&b, "Inferred Standard: %s\n", c.InferredStandard)
		}
		b.WriteString(reportSeparator + "\n\n")
	}
	return b.String()
}

// WriteReport atomically writes the analysis report
func WriteReport(path string, cp *cmd.Checkpoint) error {
	if err := checkpoint.WriteFileAtomic(path, []byte(FormatReport(cp)), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
