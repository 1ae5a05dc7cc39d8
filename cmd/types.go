// Package cmd defines core data structures for review mining, classification and checkpoint state.
package cmd

import (
	"slices"
	"sort"
	"time"
)

// Category is the classification assigned to a review comment
type Category string

const (
	// CategoryCodeStandards marks feedback that expresses a reusable coding convention
	CategoryCodeStandards Category = "code_standards"
	// CategoryDiscussions marks questions, clarifications and design discussion
	CategoryDiscussions Category = "discussions"
	// CategoryGeneral marks everything else
	CategoryGeneral Category = "general"
)

// ParseCategory converts a string to Category
func ParseCategory(s string) Category {
	switch s {
	case "code_standards":
		return CategoryCodeStandards
	case "discussions":
		return CategoryDiscussions
	default:
		return CategoryGeneral
	}
}

// Stage is the persisted processing stage of a mining run
type Stage string

const (
	// StageNone indicates PR analysis is still in progress
	StageNone Stage = ""
	// StagePRAnalysisComplete indicates every dispatched PR has been analyzed
	StagePRAnalysisComplete Stage = "pr_analysis_complete"
	// StageLLMExtractionComplete indicates guidelines were synthesized but not yet written
	StageLLMExtractionComplete Stage = "llm_extraction_complete"
)

// PullRequest represents a merged pull request selected for mining
type PullRequest struct {
	Number       int       `yaml:"number" json:"pr_number"`
	Title        string    `yaml:"title" json:"title"`
	Author       string    `yaml:"author" json:"author"`
	Description  string    `yaml:"description,omitempty" json:"description"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at" json:"updated_at"`
	BaseBranch   string    `yaml:"base_branch,omitempty" json:"base_branch,omitempty"`
	HeadBranch   string    `yaml:"head_branch,omitempty" json:"head_branch,omitempty"`
	ChangedFiles int       `yaml:"changed_files,omitempty" json:"changed_files,omitempty"`
	Additions    int       `yaml:"additions,omitempty" json:"additions,omitempty"`
	Deletions    int       `yaml:"deletions,omitempty" json:"deletions,omitempty"`
	CommentCount int       `yaml:"comment_count" json:"comment_count"` // issue comments + review comments

	// Populated by extraction only, never persisted in checkpoints
	ReviewComments []ReviewComment `yaml:"-" json:"review_comments,omitempty"`
	Files          []ChangedFile   `yaml:"-" json:"files,omitempty"`
}

// ReviewComment represents an inline review comment attached to a diff
type ReviewComment struct {
	ID        int64     `json:"id"`
	PRNumber  int       `json:"pr_number"`
	Path      string    `json:"path"`
	DiffHunk  string    `json:"code_block"`
	Body      string    `json:"review_comment"`
	Author    string    `json:"reviewer_username"`
	CreatedAt time.Time `json:"created_at"`
	Line      int       `json:"line,omitempty"`
	CommitID  string    `json:"commit_id,omitempty"`
}

// ChangedFile represents a file touched by a pull request
type ChangedFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
}

// Classification is the result of classifying one review comment
type Classification struct {
	Category         Category
	InferredStandard string // only set for CategoryCodeStandards
}

// CommentDatum is a classified comment retained for synthesis or reporting
type CommentDatum struct {
	PRNumber         int      `yaml:"pr_number"`
	PRTitle          string   `yaml:"pr_title"`
	File             string   `yaml:"file"`
	Comment          string   `yaml:"comment"`
	Category         Category `yaml:"classification"`
	InferredStandard string   `yaml:"inferred_comment,omitempty"`
}

// Checkpoint is the durable snapshot of a mining run
type Checkpoint struct {
	Version            string         `yaml:"version"`
	RunID              string         `yaml:"run_id"`
	Owner              string         `yaml:"owner"`
	Repo               string         `yaml:"repo"`
	UpdatedAt          time.Time      `yaml:"updated_at"`
	AllComments        []CommentDatum `yaml:"all_comments,omitempty"`
	CodeStandardsCount int            `yaml:"code_standards_count"`
	TotalCommentsCount int            `yaml:"total_comments_count"`
	TopPRs             []PullRequest  `yaml:"top_prs,omitempty"`
	ProcessedPRIDs     []int          `yaml:"processed_pr_ids,omitempty"`
	ProcessingStage    Stage          `yaml:"processing_stage,omitempty"`
	Guidelines         string         `yaml:"guidelines,omitempty"`
}

// IsProcessed reports whether the PR has already been analyzed
func (c *Checkpoint) IsProcessed(number int) bool {
	i := sort.SearchInts(c.ProcessedPRIDs, number)
	return i < len(c.ProcessedPRIDs) && c.ProcessedPRIDs[i] == number
}

// MarkProcessed records the PR as analyzed, keeping ProcessedPRIDs sorted and unique
func (c *Checkpoint) MarkProcessed(number int) {
	i := sort.SearchInts(c.ProcessedPRIDs, number)
	if i < len(c.ProcessedPRIDs) && c.ProcessedPRIDs[i] == number {
		return
	}
	c.ProcessedPRIDs = append(c.ProcessedPRIDs, 0)
	copy(c.ProcessedPRIDs[i+1:], c.ProcessedPRIDs[i:])
	c.ProcessedPRIDs[i] = number
}

// Normalize restores the ProcessedPRIDs ordering IsProcessed relies on and maps
// unknown comment categories to general
func (c *Checkpoint) Normalize() {
	sort.Ints(c.ProcessedPRIDs)
	c.ProcessedPRIDs = slices.Compact(c.ProcessedPRIDs)
	for i := range c.AllComments {
		c.AllComments[i].Category = ParseCategory(string(c.AllComments[i].Category))
	}
}

// Pending returns the selected PRs not yet processed, in selection order
func (c *Checkpoint) Pending() []PullRequest {
	var pending []PullRequest
	for _, pr := range c.TopPRs {
		if !c.IsProcessed(pr.Number) {
			pending = append(pending, pr)
		}
	}
	return pending
}
