package miner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alan/review-miner/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReport(t *testing.T) {
	cp := &cmd.Checkpoint{
		Owner:  "acme",
		Repo:   "widgets",
		TopPRs: []cmd.PullRequest{{Number: 5, CommentCount: 8}, {Number: 6, CommentCount: 100}},
		AllComments: []cmd.CommentDatum{
			{PRNumber: 5, PRTitle: "Add cache", File: "cache.go", Comment: "Use RWMutex", Category: cmd.CategoryCodeStandards, InferredStandard: "Guard shared maps."},
			{PRNumber: 5, PRTitle: "Add cache", File: "cache.go", Comment: "Why?", Category: cmd.CategoryDiscussions},
		},
		TotalCommentsCount: 2,
	}
	cp.MarkProcessed(5)

	sep := strings.Repeat("-", 80)
	expected := "Code Review Comments Analysis\n" +
		"Repository: acme/widgets\n" +
		"Total PRs analyzed: 1\n" +
		"Total comments: 8 (analyzed 2 review comments)\n\n" +
		"All Comments:\n\n" +
		"PR #5: Add cache\nFile: cache.go\nComment: Use RWMutex\nClassification: code_standards\nInferred Standard: Guard shared maps.\n" + sep + "\n\n" +
		"PR #5: Add cache\nFile: cache.go\nComment: Why?\nClassification: discussions\n" + sep + "\n\n"

	assert.Equal(t, expected, FormatReport(cp))
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pr_analysis.txt")
	cp := &cmd.Checkpoint{Owner: "acme", Repo: "widgets"}

	require.NoError(t, WriteReport(path, cp))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Code Review Comments Analysis\n"))
}
