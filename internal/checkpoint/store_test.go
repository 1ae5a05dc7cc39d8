package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alan/review-miner/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCheckpoint() *cmd.Checkpoint {
	cp := &cmd.Checkpoint{
		RunID: "5f0c6e1e-4b53-4b8e-9d37-1c3f8a0b2d11",
		Owner: "octo",
		Repo:  "widgets",
		AllComments: []cmd.CommentDatum{
			{PRNumber: 10, PRTitle: "Add cache", File: "cache.go", Comment: "Return early here", Category: cmd.CategoryCodeStandards, InferredStandard: "Prefer early returns."},
			{PRNumber: 12, PRTitle: "Fix race", File: "pool.go", Comment: "Guard this map", Category: cmd.CategoryCodeStandards},
		},
		CodeStandardsCount: 2,
		TotalCommentsCount: 7,
		TopPRs: []cmd.PullRequest{
			{Number: 10, Title: "Add cache", Author: "alice", CommentCount: 40, CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			{Number: 12, Title: "Fix race", Author: "bob", CommentCount: 15},
			{Number: 11, Title: "Docs", Author: "carol", CommentCount: 15},
		},
	}
	cp.MarkProcessed(12)
	cp.MarkProcessed(10)
	return cp
}

func TestStore_Path(t *testing.T) {
	store := NewStore(".checkpoints", KindGuidelines)
	assert.Equal(t, filepath.Join(".checkpoints", "octo_widgets_llmtxt"), store.Path("octo", "widgets"))

	store = NewStore("/tmp/cp", KindAnalysis)
	assert.Equal(t, filepath.Join("/tmp/cp", "octo_widgets_analysis"), store.Path("octo", "widgets"))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "checkpoints")
	store := NewStore(dir, KindGuidelines)
	original := sampleCheckpoint()

	require.NoError(t, store.Save(original))

	loaded, err := store.Load("octo", "widgets")
	require.NoError(t, err)

	assert.Equal(t, SchemaVersion, loaded.Version)
	assert.Equal(t, original.ProcessedPRIDs, loaded.ProcessedPRIDs)
	assert.Equal(t, original.AllComments, loaded.AllComments)
	assert.Equal(t, original.CodeStandardsCount, loaded.CodeStandardsCount)
	assert.Equal(t, original.TotalCommentsCount, loaded.TotalCommentsCount)
	assert.Equal(t, original.RunID, loaded.RunID)
	require.Len(t, loaded.TopPRs, 3)
	assert.Equal(t, 40, loaded.TopPRs[0].CommentCount)
	assert.True(t, loaded.TopPRs[0].CreatedAt.Equal(original.TopPRs[0].CreatedAt))
	assert.Equal(t, []int{11}, prNumbers(loaded.Pending()))
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, KindGuidelines)
	cp := sampleCheckpoint()

	require.NoError(t, store.Save(cp))
	cp.ProcessingStage = cmd.StagePRAnalysisComplete
	require.NoError(t, store.Save(cp))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "octo_widgets_llmtxt", entries[0].Name())

	info, err := os.Stat(store.Path("octo", "widgets"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load("octo", "widgets")
	require.NoError(t, err)
	assert.Equal(t, cmd.StagePRAnalysisComplete, loaded.ProcessingStage)
}

func TestStore_Load(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		wantErr     error
		wantErrMsg  string
	}{
		{
			name:    "missing file",
			wantErr: ErrNotFound,
		},
		{
			name:        "corrupt yaml",
			fileContent: "top_prs: [",
			wantErrMsg:  "failed to parse checkpoint",
		},
		{
			name:        "future major version",
			fileContent: "version: 2.0.0\nowner: octo\nrepo: widgets\n",
			wantErr:     ErrIncompatible,
		},
		{
			name:        "missing version",
			fileContent: "owner: octo\nrepo: widgets\n",
			wantErr:     ErrIncompatible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store := NewStore(dir, KindGuidelines)
			if tt.fileContent != "" {
				require.NoError(t, os.WriteFile(store.Path("octo", "widgets"), []byte(tt.fileContent), 0600))
			}

			cp, err := store.Load("octo", "widgets")
			require.Error(t, err)
			assert.Nil(t, cp)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			if tt.wantErrMsg != "" {
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			}
		})
	}
}

func TestStore_LoadNormalizesProcessedIDs(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, KindGuidelines)
	content := "version: " + SchemaVersion + `
owner: octo
repo: widgets
top_prs:
  - number: 3
  - number: 7
  - number: 12
processed_pr_ids: [12, 3, 12]
`
	require.NoError(t, os.WriteFile(store.Path("octo", "widgets"), []byte(content), 0600))

	cp, err := store.Load("octo", "widgets")
	require.NoError(t, err)

	assert.Equal(t, []int{3, 12}, cp.ProcessedPRIDs)
	require.Len(t, cp.Pending(), 1)
	assert.Equal(t, 7, cp.Pending()[0].Number)
}

func TestStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, KindGuidelines)

	require.NoError(t, store.Delete("octo", "widgets"), "deleting a missing checkpoint is not an error")

	require.NoError(t, store.Save(sampleCheckpoint()))
	require.NoError(t, store.Delete("octo", "widgets"))

	_, err := store.Load("octo", "widgets")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.txt")
	assert.Error(t, WriteFileAtomic(path, []byte("data"), 0o644))
}

func prNumbers(prs []cmd.PullRequest) []int {
	var numbers []int
	for _, pr := range prs {
		numbers = append(numbers, pr.Number)
	}
	return numbers
}
