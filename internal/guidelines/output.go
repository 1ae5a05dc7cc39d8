package guidelines

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alan/review-miner/internal/checkpoint"
)

// ReadExisting returns the current document, or an empty string when there is none yet
func ReadExisting(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read existing guidelines: %w", err)
	}
	return string(data), nil
}

// WriteIfChanged atomically writes content unless the file already holds exactly those bytes.
// It reports whether a write happened.
func WriteIfChanged(path, content string) (bool, error) {
	current, err := os.ReadFile(path)
	if err == nil && bytes.Equal(current, []byte(content)) {
		return false, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := checkpoint.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
