package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"clipcast/internal/config"
	"clipcast/internal/lock"
	"clipcast/internal/logging"
	"clipcast/internal/planner"
	"clipcast/internal/registry"
	"clipcast/internal/store"
	"clipcast/internal/uploader"
	"clipcast/internal/verifier"
	"clipcast/internal/watcher"
	"clipcast/internal/worker"
)

// joinTimeout bounds how long Stop waits for each worker to finish its cycle.
const joinTimeout = 10 * time.Second

// Daemon owns the per-account posting workers and keeps them reconciled
// against the account registry. It also runs the periodic planning passes and
// the inbox watcher, and enforces single-instance execution via a flock.
type Daemon struct {
	cfg      *config.Config
	cfgPath  string
	store    *store.Store
	logger   *slog.Logger
	locks    *lock.Manager
	uploader uploader.Uploader
	verifier *verifier.Verifier
	registry registry.Registry
	planner  *planner.Planner
	watcher  *watcher.Watcher

	sessionID string
	lockPath  string
	lock      *flock.Flock

	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	workers map[string]*worker.Worker
	cron    *cron.Cron
	kick    chan struct{}
}

// Deps bundles the daemon's collaborators.
type Deps struct {
	Store    *store.Store
	Locks    *lock.Manager
	Uploader uploader.Uploader
	Verifier *verifier.Verifier
	Registry registry.Registry
	Planner  *planner.Planner
	Watcher  *watcher.Watcher
}

// New constructs a daemon. ConfigPath is remembered for Reload; it may be
// empty when reload is not needed (tests).
func New(cfg *config.Config, cfgPath string, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Locks == nil || deps.Uploader == nil || deps.Registry == nil || deps.Planner == nil {
		return nil, errors.New("daemon requires config, store, locks, uploader, registry, and planner")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "clipcastd.lock")
	return &Daemon{
		cfg:          cfg,
		cfgPath:      cfgPath,
		store:        deps.Store,
		logger:       logging.WithComponent(logger, "daemon"),
		locks:        deps.Locks,
		uploader:     deps.Uploader,
		verifier:     deps.Verifier,
		registry:     deps.Registry,
		planner:      deps.Planner,
		watcher:      deps.Watcher,
		sessionID:    uuid.NewString(),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
		pollInterval: time.Duration(cfg.Scheduler.PollInterval) * time.Second,
		workers:      make(map[string]*worker.Worker),
		kick:         make(chan struct{}, 1),
	}, nil
}

// SessionID returns the identifier stamped on this daemon run.
func (d *Daemon) SessionID() string {
	return d.sessionID
}

// Start acquires the singleton lock, runs one immediate reconcile and
// planning pass, and launches the poll loop. Starting a running daemon is a
// no-op; a second daemon process fails on the flock.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		d.logger.Info("daemon already running, ignoring start")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("prepare lock dir: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !ok {
		return errors.New("another clipcast daemon is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true

	c := cron.New()
	if _, err := c.AddFunc(d.cfg.Scheduler.PlanSchedule, func() {
		d.planPass(runCtx)
	}); err != nil {
		d.teardownLocked()
		_ = d.lock.Unlock()
		return fmt.Errorf("invalid plan schedule %q: %w", d.cfg.Scheduler.PlanSchedule, err)
	}
	c.Start()
	d.cron = c

	if d.watcher != nil {
		if err := d.watcher.Start(runCtx); err != nil {
			d.logger.Error("inbox watcher failed to start", logging.Error(err))
		}
	}

	d.wg.Add(1)
	go d.run(runCtx)

	d.logger.Info("daemon started",
		logging.String(logging.FieldSessionID, d.sessionID),
		logging.String("lock", d.lockPath),
		logging.Duration("poll_interval", d.pollInterval))
	return nil
}

// Stop halts the poll loop, the planner cron, the watcher, and every worker.
// It is idempotent.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.teardownLocked()
	workers := d.drainWorkersLocked()
	d.mu.Unlock()

	d.wg.Wait()
	for _, w := range workers {
		w.Stop()
	}
	for _, w := range workers {
		w.Join(joinTimeout)
	}
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("daemon lock release failed", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// teardownLocked cancels the run context and stops the cron. Caller holds mu.
func (d *Daemon) teardownLocked() {
	d.running = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.cron != nil {
		d.cron.Stop()
		d.cron = nil
	}
}

func (d *Daemon) drainWorkersLocked() []*worker.Worker {
	workers := make([]*worker.Worker, 0, len(d.workers))
	for account, w := range d.workers {
		workers = append(workers, w)
		delete(d.workers, account)
	}
	return workers
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// config returns the current configuration. Reload swaps the pointer under
// d.mu, so every read outside the mutex goes through here.
func (d *Daemon) config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	d.Reconcile(ctx)
	d.planPass(ctx)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.kick:
		}
		d.Reconcile(ctx)
	}
}

// Kick requests an immediate reconcile without waiting for the next poll.
func (d *Daemon) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Daemon) planPass(ctx context.Context) {
	accounts, err := d.registry.ListActiveAccounts(ctx)
	if err != nil {
		d.logger.Warn("planning pass skipped, registry unavailable", logging.Error(err))
		return
	}
	for _, account := range accounts {
		if result, err := d.planner.PlanAccount(ctx, account); err != nil {
			d.logger.Error("planning pass failed",
				logging.String(logging.FieldAccount, account), logging.Error(err))
		} else if result.Scheduled > 0 || result.Waitlisted > 0 {
			d.logger.Info("planning pass",
				logging.String(logging.FieldAccount, account),
				logging.Int("scheduled", result.Scheduled),
				logging.Int("waitlisted", result.Waitlisted))
		}
		if result, err := d.planner.ReallocateMissedSlots(ctx, account); err != nil {
			d.logger.Error("missed-slot reallocation failed",
				logging.String(logging.FieldAccount, account), logging.Error(err))
		} else if result.Changed > 0 {
			d.logger.Info("reallocated missed slots",
				logging.String(logging.FieldAccount, account),
				logging.Int("moved", result.Changed))
		}
	}
}
