package miner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alan/review-miner/cmd"
	"github.com/alan/review-miner/internal/classifier"
)

// fakeHost serves PRs and review comments from memory and records what was requested
type fakeHost struct {
	mu          sync.Mutex
	prs         map[int]cmd.PullRequest
	comments    map[int][]cmd.ReviewComment
	searchOrder []int
	failGet     map[int]bool
	searchErr   error

	searches     int
	gets         []int
	commentCalls []int
	fileCalls    []int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		prs:      make(map[int]cmd.PullRequest),
		comments: make(map[int][]cmd.ReviewComment),
		failGet:  make(map[int]bool),
	}
}

func (f *fakeHost) addPR(number, commentCount int, bodies ...string) {
	f.prs[number] = cmd.PullRequest{Number: number, Title: fmt.Sprintf("PR %d", number), CommentCount: commentCount}
	f.searchOrder = append(f.searchOrder, number)
	for i, body := range bodies {
		f.comments[number] = append(f.comments[number], cmd.ReviewComment{
			ID:       int64(number*100 + i),
			PRNumber: number,
			Path:     fmt.Sprintf("pkg/file%d.go", i),
			Body:     body,
		})
	}
}

func (f *fakeHost) SearchMergedPRs(_ context.Context, _, _ string, limit int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.searchOrder) > limit {
		return f.searchOrder[:limit], nil
	}
	return f.searchOrder, nil
}

func (f *fakeHost) GetPR(_ context.Context, _, _ string, number int) (*cmd.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, number)
	if f.failGet[number] {
		return nil, errors.New("server error")
	}
	pr, ok := f.prs[number]
	if !ok {
		return nil, errors.New("not found")
	}
	return &pr, nil
}

func (f *fakeHost) ListReviewComments(_ context.Context, _, _ string, number, limit int) ([]cmd.ReviewComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentCalls = append(f.commentCalls, number)
	comments := f.comments[number]
	if len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

func (f *fakeHost) ListFiles(_ context.Context, _, _ string, number int) ([]cmd.ChangedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls = append(f.fileCalls, number)
	return []cmd.ChangedFile{{Filename: "main.go", Status: "modified"}}, nil
}

func (f *fakeHost) commentCallsSorted() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := append([]int(nil), f.commentCalls...)
	sort.Ints(calls)
	return calls
}

// fakeClassifier marks comments starting with "std:" as code standards and "?" as discussions
type fakeClassifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeClassifier) ClassifyBatch(_ context.Context, comments []cmd.ReviewComment) ([]cmd.Classification, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return classifier.Fallback(len(comments)), &classifier.Fault{Count: len(comments), Err: f.err}
	}

	results := make([]cmd.Classification, len(comments))
	for i, c := range comments {
		switch {
		case len(c.Body) > 4 && c.Body[:4] == "std:":
			results[i] = cmd.Classification{Category: cmd.CategoryCodeStandards, InferredStandard: c.Body[4:]}
		case len(c.Body) > 0 && c.Body[len(c.Body)-1] == '?':
			results[i] = cmd.Classification{Category: cmd.CategoryDiscussions}
		default:
			results[i] = cmd.Classification{Category: cmd.CategoryGeneral}
		}
	}
	return results, nil
}

type fakeSynthesizer struct {
	text     string
	err      error
	calls    int
	comments []cmd.CommentDatum
	existing string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, comments []cmd.CommentDatum, existing string) (string, error) {
	f.calls++
	f.comments = comments
	f.existing = existing
	return f.text, f.err
}
