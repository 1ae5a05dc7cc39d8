// Package classifier sorts review comments into categories with one batched model call per PR.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alan/review-miner/cmd"
)

// ErrEmptyResponse is returned inside a Fault when the model produced no usable text
var ErrEmptyResponse = errors.New("empty classification response")

// Model is the slice of the LLM gateway used for classification
type Model interface {
	ClassifyBatch(ctx context.Context, prompt string, n int) (string, error)
}

// Fault reports that a batch could not be classified. The accompanying results are Fallback(Count).
type Fault struct {
	Count int
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("failed to classify %d comment(s): %v", f.Count, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Classifier classifies review comments in batches
type Classifier struct {
	model Model
}

// New creates a Classifier backed by the given model
func New(model Model) *Classifier {
	return &Classifier{model: model}
}

// ClassifyBatch returns exactly one classification per comment.
// On failure it returns Fallback(len(comments)) together with a *Fault.
func (c *Classifier) ClassifyBatch(ctx context.Context, comments []cmd.ReviewComment) ([]cmd.Classification, error) {
	n := len(comments)
	if n == 0 {
		return []cmd.Classification{}, nil
	}

	slog.Debug("Classifying comments", "count", n)
	text, err := c.model.ClassifyBatch(ctx, BuildPrompt(comments), n)
	if err != nil {
		return Fallback(n), &Fault{Count: n, Err: err}
	}
	if text == "" {
		return Fallback(n), &Fault{Count: n, Err: ErrEmptyResponse}
	}

	return Parse(text, n), nil
}

// Submittable drops comments with a blank body, which are never sent for classification
func Submittable(comments []cmd.ReviewComment) []cmd.ReviewComment {
	kept := make([]cmd.ReviewComment, 0, len(comments))
	for _, c := range comments {
		if strings.TrimSpace(c.Body) == "" {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
