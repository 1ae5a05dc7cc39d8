package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alan/review-miner/cmd"
	"github.com/alan/review-miner/internal/cost"
	"github.com/alan/review-miner/internal/miner"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func samplePR() cmd.PullRequest {
	return cmd.PullRequest{
		Number:       42,
		Title:        "Add cache layer",
		Author:       "alice",
		Description:  "Adds an LRU cache",
		CreatedAt:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC),
		CommentCount: 40,
	}
}

func TestFormatPRSummary(t *testing.T) {
	pr := samplePR()

	out := FormatPRSummary(&pr, true)

	assert.Equal(t, "\nPR #42: Add cache layer\nAuthor: alice\nCreated: 2024-03-01T10:00:00Z\nUpdated: 2024-03-05T12:30:00Z\nTotal Comments: 40\n\nDescription:\nAdds an LRU cache\n", out)
	assert.NotContains(t, FormatPRSummary(&pr, false), "Total Comments")
}

func TestFormatPRContext(t *testing.T) {
	pr := samplePR()
	pr.Files = []cmd.ChangedFile{{Filename: "cache.go", Status: "added", Additions: 100}}
	pr.ReviewComments = []cmd.ReviewComment{
		{Author: "bob", Path: "cache.go", Body: "Use a RWMutex", DiffHunk: "@@ -0,0 +1 @@\n+var mu sync.Mutex", CreatedAt: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)},
		{Author: "carol", Path: "README.md", Body: "typo"},
	}

	out := FormatPRContext(&pr)

	assert.Contains(t, out, "Changed Files (1):\n  cache.go (added, +100/-0)\n")
	assert.Contains(t, out, "\nbob (2024-03-02T09:00:00Z):\nFile: cache.go\nComment: Use a RWMutex\n\nCode Block:\n@@ -0,0 +1 @@\n+var mu sync.Mutex\n"+strings.Repeat("-", 80)+"\n")
	assert.Contains(t, out, "\ncarol (-):\nFile: README.md\nComment: typo\n"+strings.Repeat("-", 80)+"\n")
}

func TestRenderTopPRs(t *testing.T) {
	var buf bytes.Buffer
	RenderTopPRs(&buf, RepoRef{Owner: "acme", Repo: "widgets"}, []cmd.PullRequest{samplePR()})

	out := buf.String()
	assert.Contains(t, out, "Top 1 PRs by comment count for acme/widgets:")
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "Add cache layer")
	assert.Contains(t, out, "40")
}

func TestRenderTopPRDetails(t *testing.T) {
	var buf bytes.Buffer
	RenderTopPRDetails(&buf, []cmd.PullRequest{samplePR()})

	assert.Contains(t, buf.String(), "Total Comments: 40\n")
	assert.Contains(t, buf.String(), strings.Repeat("=", 80))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []cmd.PullRequest{samplePR()}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.EqualValues(t, 42, decoded[0]["pr_number"])
	assert.EqualValues(t, 40, decoded[0]["comment_count"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestRenderRunReport(t *testing.T) {
	var buf bytes.Buffer
	RenderRunReport(&buf, &miner.Result{
		PRsSelected:   5,
		PRsAnalyzed:   4,
		PRsFailed:     1,
		TotalComments: 80,
		CodeStandards: 21,
		Timings:       miner.Timings{GitHub: 1500 * time.Millisecond, LLM: 3 * time.Second, Total: 5 * time.Second},
		Cost:          cost.Report{InputTokens: 1000, OutputTokens: 200, TotalTokens: 1200, TotalCost: 0.006, Requests: 5, InputCost: 0.003, OutputCost: 0.003},
	})

	out := buf.String()
	assert.Contains(t, out, "PRs analyzed: 4 of 5 (1 failed)\n")
	assert.Contains(t, out, "Comments: 80 total, 21 code standards\n")
	assert.Contains(t, out, "Total GitHub API time: 1.50 seconds\n")
	assert.Contains(t, out, "Total tokens: 1200\n")
	assert.Contains(t, out, "Estimated cost: $0.0060\n")
}

func TestPrintSuccessAndWarning(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "Created %s", "out.txt")
	PrintWarning(&buf, "%d PR(s) failed", 2)

	assert.Equal(t, "✅ Created out.txt\n⚠️  2 PR(s) failed\n", buf.String())
}
