package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"clipcast/internal/config"
	"clipcast/internal/logging"
	"clipcast/internal/planner"
	"clipcast/internal/store"
)

// Status is the daemon's runtime snapshot, served over IPC.
type Status struct {
	Running      bool
	PID          int
	SessionID    string
	Accounts     []string
	QueueStats   map[string]int
	LockDir      string
	DatabasePath string
	LockFilePath string
}

// Status reports the current daemon state. Queue stats failures degrade to an
// empty map rather than failing the whole status call.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("queue stats unavailable", logging.Error(err))
		stats = map[string]int{}
	}
	accounts := d.WorkerAccounts()
	sort.Strings(accounts)
	cfg := d.config()
	return Status{
		Running:      d.Running(),
		PID:          os.Getpid(),
		SessionID:    d.sessionID,
		Accounts:     accounts,
		QueueStats:   stats,
		LockDir:      cfg.LockDir(),
		DatabasePath: cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return d.config().LogFilePath()
}

// ListItems returns an account's items filtered by optional statuses.
func (d *Daemon) ListItems(ctx context.Context, account string, statuses ...store.Status) ([]*store.Item, error) {
	return d.store.ListForAccount(ctx, account, statuses...)
}

// AddFile registers a local video file as a pending item for an account.
func (d *Daemon) AddFile(ctx context.Context, account, sourcePath string) (*store.Item, error) {
	trimmed := strings.TrimSpace(sourcePath)
	if trimmed == "" {
		return nil, errors.New("source path is required")
	}
	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source path %q is a directory", absPath)
	}
	item, err := d.store.NewItem(ctx, account, absPath, "", "")
	if err != nil {
		return nil, err
	}
	d.logger.Info("file queued",
		logging.String(logging.FieldAccount, account),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("source", absPath))
	return item, nil
}

// Plan runs a one-shot planning pass for one account.
func (d *Daemon) Plan(ctx context.Context, account string) (*planner.PlanResult, error) {
	result, err := d.planner.PlanAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if _, err := d.planner.ReallocateMissedSlots(ctx, account); err != nil {
		return nil, err
	}
	return result, nil
}

// Reload re-reads the config file and forces an immediate reconcile. Workers
// started after a reload pick up the new settings; running workers keep their
// old ones until the registry cycles them.
func (d *Daemon) Reload(ctx context.Context) error {
	if d.cfgPath != "" {
		cfg, _, exists, err := config.Load(d.cfgPath)
		if err != nil {
			return fmt.Errorf("reload config: %w", err)
		}
		if exists {
			d.mu.Lock()
			d.cfg = cfg
			d.mu.Unlock()
			d.logger.Info("configuration reloaded", logging.String("path", d.cfgPath))
		}
	}
	d.Kick()
	return nil
}
