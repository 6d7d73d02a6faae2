// Package checkpoint persists search progress so an interrupted run can
// resume from the candidate source's low watermark.
//
// A checkpoint file holds one length-prefixed msgpack frame. Files are
// written to a temporary sibling and renamed into place.
package checkpoint

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/keyspace/iox"
)

// FormatVersion is the checkpoint schema version.
const FormatVersion = 1

var (
	// ErrNoCheckpoint is returned when the checkpoint file does not exist.
	ErrNoCheckpoint = errors.New("no checkpoint")
	// ErrFingerprintMismatch is returned when a checkpoint was written for a
	// different strategy.
	ErrFingerprintMismatch = errors.New("checkpoint belongs to a different strategy")
	// ErrUnsupportedVersion is returned for checkpoints from a newer format.
	ErrUnsupportedVersion = errors.New("unsupported checkpoint version")
)

// Checkpoint is the persisted progress of a run.
type Checkpoint struct {
	Version     int       `msgpack:"version"`
	RunID       string    `msgpack:"run_id"`
	Fingerprint string    `msgpack:"fingerprint"`
	Offset      int64     `msgpack:"offset"`
	Attempts    int64     `msgpack:"attempts"`
	State       string    `msgpack:"state"`
	UpdatedAt   time.Time `msgpack:"updated_at"`
}

// Save writes cp to path atomically.
func Save(path string, cp Checkpoint) error {
	if cp.Version == 0 {
		cp.Version = FormatVersion
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}

	payload, err := msgpack.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if err := writeFrame(tmp, payload); err != nil {
		iox.DiscardClose(tmp)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		iox.DiscardClose(tmp)
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("install checkpoint: %w", err)
	}
	return nil
}

// Load reads the checkpoint at path. A missing file returns ErrNoCheckpoint.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	payload, err := readFrame(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var cp Checkpoint
	if err := msgpack.Unmarshal(payload, &cp); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode checkpoint", Err: err}
	}
	if cp.Version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, cp.Version)
	}
	return &cp, nil
}

// ResumeOffset returns the offset to restart a strategy with the given
// fingerprint. A missing checkpoint resumes from zero.
func ResumeOffset(path, fingerprint string) (int64, error) {
	cp, err := Load(path)
	if errors.Is(err, ErrNoCheckpoint) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if cp.Fingerprint != fingerprint {
		return 0, fmt.Errorf("%w: have %.12s, want %.12s", ErrFingerprintMismatch, cp.Fingerprint, fingerprint)
	}
	return cp.Offset, nil
}

// Remove deletes the checkpoint at path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
