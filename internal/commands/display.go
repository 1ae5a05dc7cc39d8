package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alan/review-miner/cmd"
	"github.com/alan/review-miner/internal/cost"
	"github.com/alan/review-miner/internal/miner"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	separator    = strings.Repeat("-", 80)
)

// PrintSuccess prints a green success line
func PrintSuccess(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, "✅ "+format+"\n", args...)
}

// PrintWarning prints a yellow warning line
func PrintWarning(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, "⚠️  "+format+"\n", args...)
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// formatTime renders timestamps in RFC 3339, UTC
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// FormatPRSummary renders the header block of a PR
func FormatPRSummary(pr *cmd.PullRequest, withCount bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nPR #%d: %s\n", pr.Number, pr.Title)
	fmt.Fprintf(&b, "Author: %s\n", pr.Author)
	fmt.Fprintf(&b, "Created: %s\n", formatTime(pr.CreatedAt))
	fmt.Fprintf(&b, "Updated: %s\n", formatTime(pr.UpdatedAt))
	if withCount {
		fmt.Fprintf(&b, "Total Comments: %d\n", pr.CommentCount)
	}
	fmt.Fprintf(&b, "\nDescription:\n%s\n", pr.Description)
	return b.String()
}

// FormatPRContext renders a PR with its changed files and review comments
func FormatPRContext(pr *cmd.PullRequest) string {
	var b strings.Builder
	b.WriteString(FormatPRSummary(pr, false))

	if len(pr.Files) > 0 {
		fmt.Fprintf(&b, "\nChanged Files (%d):\n", len(pr.Files))
		for _, f := range pr.Files {
			fmt.Fprintf(&b, "  %s (%s, +%d/-%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		}
	}

	b.WriteString("\nReview Comments:\n")
	for _, c := range pr.ReviewComments {
		fmt.Fprintf(&b, "\n%s (%s):\n", c.Author, formatTime(c.CreatedAt))
		fmt.Fprintf(&b, "File: %s\n", c.Path)
		fmt.Fprintf(&b, "Comment: %s\n", c.Body)
		if c.DiffHunk != "" {
			fmt.Fprintf(&b, "\nCode Block:\n%s\n", c.DiffHunk)
		}
		b.WriteString(separator + "\n")
	}
	return b.String()
}

// RenderTopPRs prints the selected PRs as a table followed by their descriptions
func RenderTopPRs(w io.Writer, ref RepoRef, prs []cmd.PullRequest) {
	fmt.Fprintf(w, "\nTop %d PRs by comment count for %s:\n\n", len(prs), ref)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PR", "Title", "Author", "Comments", "Created", "Updated"})
	table.SetAutoWrapText(false)
	for _, pr := range prs {
		table.Append([]string{
			"#" + strconv.Itoa(pr.Number),
			truncate(pr.Title, 60),
			pr.Author,
			strconv.Itoa(pr.CommentCount),
			formatTime(pr.CreatedAt),
			formatTime(pr.UpdatedAt),
		})
	}
	table.Render()
}

// RenderTopPRDetails prints the full summary of each selected PR
func RenderTopPRDetails(w io.Writer, prs []cmd.PullRequest) {
	for i := range prs {
		fmt.Fprint(w, FormatPRSummary(&prs[i], true))
		fmt.Fprintln(w, strings.Repeat("=", 80))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// RenderRunReport prints counts, timings and LLM cost of a finished run
func RenderRunReport(w io.Writer, result *miner.Result) {
	fmt.Fprintf(w, "\nPRs analyzed: %d of %d", result.PRsAnalyzed, result.PRsSelected)
	if result.PRsFailed > 0 {
		fmt.Fprintf(w, " (%d failed)", result.PRsFailed)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Comments: %d total, %d code standards\n", result.TotalComments, result.CodeStandards)

	fmt.Fprintf(w, "\nLLM guideline generation time: %.2f seconds\n", result.Timings.Synthesis.Seconds())
	fmt.Fprintf(w, "Total GitHub API time: %.2f seconds\n", result.Timings.GitHub.Seconds())
	fmt.Fprintf(w, "Total LLM API time: %.2f seconds\n", result.Timings.LLM.Seconds())
	fmt.Fprintf(w, "Total processing time: %.2f seconds\n", result.Timings.Total.Seconds())

	RenderCostReport(w, result.Cost)
}

// RenderCostReport prints token usage and estimated cost
func RenderCostReport(w io.Writer, report cost.Report) {
	fmt.Fprintf(w, "\nLLM API Usage:\n")
	fmt.Fprintf(w, "Requests: %d\n", report.Requests)
	fmt.Fprintf(w, "Input tokens: %d\n", report.InputTokens)
	fmt.Fprintf(w, "Output tokens: %d\n", report.OutputTokens)
	fmt.Fprintf(w, "Total tokens: %d\n", report.TotalTokens)
	fmt.Fprintf(w, "Estimated cost: $%.4f\n", report.TotalCost)
	fmt.Fprintf(w, "    Input cost: $%.4f\n", report.InputCost)
	fmt.Fprintf(w, "    Output cost: $%.4f\n", report.OutputCost)
}
