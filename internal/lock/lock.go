package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"clipcast/internal/logging"
	"clipcast/internal/textutil"
)

// Manager hands out per-item posting locks backed by lock files. A lock older
// than the validity window counts as abandoned and is cleared by the next
// caller, which keeps a crashed worker from blocking its item forever.
type Manager struct {
	dir      string
	validity time.Duration
	logger   *slog.Logger
}

// NewManager creates a lock manager rooted at dir.
func NewManager(dir string, validity time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{dir: dir, validity: validity, logger: logger}
}

// Path returns the lock file location for an item. The entire lock contract
// is the file's existence plus its modification time.
func (m *Manager) Path(account, itemKey string) string {
	name := textutil.SanitizeToken(account) + "__" + textutil.SanitizeToken(itemKey) + ".lock"
	return filepath.Join(m.dir, name)
}

// Check reports whether a live lock exists for the item and its age. A lock
// past the validity window is removed as a side effect and reported absent.
func (m *Manager) Check(account, itemKey string) (bool, time.Duration, error) {
	path := m.Path(account, itemKey)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("stat lock %s: %w", path, err)
	}

	age := time.Since(info.ModTime())
	if age > m.validity {
		// Stale cleanup is best-effort; acquisition will surface a real error.
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			m.logger.Warn("failed to remove stale lock",
				logging.String("path", path),
				logging.Duration("age", age),
				logging.Error(removeErr),
			)
		} else {
			m.logger.Info("removed stale lock",
				logging.String("path", path),
				logging.Duration("age", age),
			)
		}
		return false, 0, nil
	}
	return true, age, nil
}

// Acquire takes the item lock. It returns false when a live lock is already
// held. Creation uses O_EXCL so two concurrent callers on the same filesystem
// can never both win.
func (m *Manager) Acquire(account, itemKey string) (bool, error) {
	if _, _, err := m.Check(account, itemKey); err != nil {
		return false, err
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return false, fmt.Errorf("ensure lock directory: %w", err)
	}

	path := m.Path(account, itemKey)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock %s: %w", path, err)
	}
	defer file.Close()

	// Contents are informational only.
	_, _ = file.WriteString(strconv.Itoa(os.Getpid()) + " " + time.Now().UTC().Format(time.RFC3339) + "\n")
	return true, nil
}

// Release removes the item lock. A missing lock is not an error.
func (m *Manager) Release(account, itemKey string) error {
	path := m.Path(account, itemKey)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", path, err)
	}
	return nil
}

// Validity returns the configured staleness window.
func (m *Manager) Validity() time.Duration {
	return m.validity
}
