// Package persist mirrors the status store to a single JSON file. The write
// path favors the live view over strict durability: a failed save logs and
// leaves both the previous file and the in-memory state intact, and the next
// poll cycle simply tries again.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mayvqt/StatusBot/internal/domain"
)

const (
	defaultReplaceAttempts = 3
	defaultReplaceBackoff  = 150 * time.Millisecond
)

type Engine struct {
	logger *zap.Logger
	path   string

	// replace retry tuning, overridable in tests
	attempts int
	backoff  time.Duration

	mu sync.Mutex // serializes Save calls; one temp file at a time
}

func NewEngine(logger *zap.Logger, path string) *Engine {
	return &Engine{
		logger:   logger,
		path:     path,
		attempts: defaultReplaceAttempts,
		backoff:  defaultReplaceBackoff,
	}
}

// Load reads the state file. A missing file yields a fresh empty state. A
// present but unreadable or unparsable file is moved aside to a timestamped
// backup and also yields a fresh state; Load never fails hard on content.
func (e *Engine) Load() (domain.PersistedState, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.logger.Info("state_file_absent", zap.String("path", e.path))
			return domain.NewPersistedState(), nil
		}
		return domain.PersistedState{}, fmt.Errorf("read state file: %w", err)
	}

	if len(data) == 0 {
		e.logger.Warn("state_file_empty", zap.String("path", e.path))
		e.backupCorrupt()
		return domain.NewPersistedState(), nil
	}

	var state domain.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		e.logger.Warn("state_file_corrupt",
			zap.String("path", e.path),
			zap.Error(err),
		)
		e.backupCorrupt()
		return domain.NewPersistedState(), nil
	}

	if state.Version != domain.SchemaVersion {
		e.logger.Warn("state_version_mismatch",
			zap.String("found", state.Version),
			zap.String("expected", domain.SchemaVersion),
		)
	}
	if state.Statuses == nil {
		state.Statuses = make(map[string]domain.ServiceStatus)
	}
	return state, nil
}

// Save writes the state atomically: serialize to a temp file in the target's
// directory, then rename over the target. If the rename is refused (locked
// target on some platforms), fall back to delete-then-move with a bounded
// retry. Concurrent saves are serialized. Save reports the error but callers
// treat it as non-fatal; the previous on-disk file survives any failure.
func (e *Engine) Save(state domain.PersistedState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		e.logger.Error("state_encode_failed", zap.Error(err))
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger.Error("state_dir_failed", zap.String("dir", dir), zap.Error(err))
		return fmt.Errorf("ensure state dir: %w", err)
	}

	// Same directory as the target so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".tmp-*")
	if err != nil {
		e.logger.Error("state_temp_failed", zap.Error(err))
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		e.logger.Error("state_write_failed", zap.Error(err))
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		e.logger.Warn("state_sync_failed", zap.Error(err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := e.replace(tmpPath); err != nil {
		os.Remove(tmpPath)
		e.logger.Error("state_save_failed",
			zap.String("path", e.path),
			zap.Int("attempts", e.attempts),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// replace renames tmp over the target, retrying via delete-then-move when the
// direct rename is refused.
func (e *Engine) replace(tmpPath string) error {
	err := os.Rename(tmpPath, e.path)
	if err == nil {
		return nil
	}
	e.logger.Warn("state_rename_refused", zap.Error(err))

	for attempt := 1; attempt <= e.attempts; attempt++ {
		if rmErr := os.Remove(e.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			e.logger.Warn("state_replace_attempt_failed",
				zap.Int("attempt", attempt),
				zap.Error(rmErr),
			)
			time.Sleep(e.backoff)
			continue
		}
		if err = os.Rename(tmpPath, e.path); err == nil {
			return nil
		}
		e.logger.Warn("state_replace_attempt_failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(e.backoff)
	}
	return fmt.Errorf("replace state file after %d attempts: %w", e.attempts, err)
}

// backupCorrupt moves the unusable file aside so the next Save starts clean
// and the bad bytes stay around for inspection.
func (e *Engine) backupCorrupt() {
	backup := fmt.Sprintf("%s.corrupt.%s.bak", e.path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(e.path, backup); err != nil {
		e.logger.Warn("state_backup_failed", zap.String("backup", backup), zap.Error(err))
		return
	}
	e.logger.Warn("state_backed_up", zap.String("backup", backup))
}
