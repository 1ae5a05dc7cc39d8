// Package guidelines turns classified review comments into a coding-guidelines document.
package guidelines

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alan/review-miner/cmd"
)

// ErrEmptyGuidelines is returned when the model produced no document
var ErrEmptyGuidelines = errors.New("model returned empty guidelines")

// Model is the slice of the LLM gateway used for synthesis
type Model interface {
	SynthesizeGuidelines(ctx context.Context, prompt string) (string, error)
}

// Synthesizer merges classified comments into a guidelines document
type Synthesizer struct {
	model Model
}

// New creates a Synthesizer backed by the given model
func New(model Model) *Synthesizer {
	return &Synthesizer{model: model}
}

// Synthesize generates a new document when existing is blank, otherwise updates it
func (s *Synthesizer) Synthesize(ctx context.Context, comments []cmd.CommentDatum, existing string) (string, error) {
	if strings.TrimSpace(existing) == "" {
		slog.Info("Generating new guidelines", "comments", len(comments))
	} else {
		if n := len([]rune(existing)); n > compactThreshold {
			slog.Info("Large existing guidelines, compacting", "chars", n)
		}
		slog.Info("Updating existing guidelines", "comments", len(comments))
	}

	text, err := s.model.SynthesizeGuidelines(ctx, BuildPrompt(comments, existing))
	if err != nil {
		return "", fmt.Errorf("failed to synthesize guidelines: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyGuidelines
	}
	return text, nil
}
