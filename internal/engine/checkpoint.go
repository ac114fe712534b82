package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CheckpointCorruptionError indicates resume data was unreadable or
// inconsistent with the job. The runner fails fast on it: silently
// restarting from zero would duplicate reasoning-service cost and mask
// data loss.
type CheckpointCorruptionError struct {
	Err    error
	Path   string
	Reason string
}

func (e *CheckpointCorruptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkpoint %s corrupted: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("checkpoint %s corrupted: %s", e.Path, e.Reason)
}

func (e *CheckpointCorruptionError) Unwrap() error {
	return e.Err
}

// Checkpoint is the durable batch progress record: the cursor and every
// completed output row, keyed to one job identity.
type Checkpoint struct {
	JobID   string      `json:"job_id"`
	Results []OutputRow `json:"results"`
	Cursor  int         `json:"cursor"`
}

// WriteCheckpoint persists the checkpoint atomically: the record is written
// to a temporary file in the target directory, synced, then renamed over the
// destination. A crash mid-write never leaves a partially written file at
// the checkpoint path.
func WriteCheckpoint(path string, checkpoint Checkpoint) error {
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to finalize checkpoint: %w", err)
	}

	return nil
}

// ReadCheckpoint loads a checkpoint if one exists. A missing file is not an
// error; it simply means the job starts from zero. Unreadable content is a
// CheckpointCorruptionError.
func ReadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &CheckpointCorruptionError{Path: path, Reason: "unreadable", Err: err}
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, &CheckpointCorruptionError{Path: path, Reason: "invalid JSON", Err: err}
	}

	if checkpoint.Cursor < 0 {
		return nil, &CheckpointCorruptionError{Path: path, Reason: fmt.Sprintf("negative cursor %d", checkpoint.Cursor)}
	}
	if len(checkpoint.Results) != checkpoint.Cursor {
		return nil, &CheckpointCorruptionError{
			Path:   path,
			Reason: fmt.Sprintf("cursor %d disagrees with %d recorded results", checkpoint.Cursor, len(checkpoint.Results)),
		}
	}

	return &checkpoint, nil
}
