// Package checkpoint persists resumable mining progress as atomically written YAML snapshots.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/alan/review-miner/cmd"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is written into every snapshot
const SchemaVersion = "1.0.0"

// Checkpoint kinds, used as the file name suffix
const (
	KindGuidelines = "llmtxt"
	KindAnalysis   = "analysis"
)

var (
	// ErrNotFound is returned by Load when there is nothing to resume
	ErrNotFound = errors.New("checkpoint not found")
	// ErrIncompatible is returned by Load for snapshots written by an incompatible schema
	ErrIncompatible = errors.New("checkpoint schema is incompatible")
)

var compatible = mustConstraint("^1.0.0")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// Store reads and writes checkpoints of one kind under a directory
type Store struct {
	dir  string
	kind string
}

// NewStore creates a store rooted at dir
func NewStore(dir, kind string) *Store {
	return &Store{dir: dir, kind: kind}
}

// Path returns {dir}/{owner}_{repo}_{kind}
func (s *Store) Path(owner, repo string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s_%s", owner, repo, s.kind))
}

// Load reads the checkpoint for a repository
func (s *Store) Load(owner, repo string) (*cmd.Checkpoint, error) {
	path := s.Path(owner, repo)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the checkpoint directory flag
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp cmd.Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}

	version, err := semver.NewVersion(cp.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid version %q", ErrIncompatible, cp.Version)
	}
	if !compatible.Check(version) {
		return nil, fmt.Errorf("%w: version %s", ErrIncompatible, cp.Version)
	}

	cp.Normalize()
	slog.Debug("Loaded checkpoint", "path", path, "processed", len(cp.ProcessedPRIDs), "stage", cp.ProcessingStage)
	return &cp, nil
}

// Save atomically replaces the checkpoint file for cp.Owner/cp.Repo
func (s *Store) Save(cp *cmd.Checkpoint) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	cp.Version = SchemaVersion
	cp.UpdatedAt = time.Now().UTC()

	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	path := s.Path(cp.Owner, cp.Repo)
	if err := WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	slog.Debug("Saved checkpoint", "path", path, "processed", len(cp.ProcessedPRIDs), "stage", cp.ProcessingStage)
	return nil
}

// Delete removes the checkpoint file. A missing file is not an error.
func (s *Store) Delete(owner, repo string) error {
	if err := os.Remove(s.Path(owner, repo)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place,
// so readers never observe a partially written file
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
