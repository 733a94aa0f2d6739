package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/lock"
	"clipcast/internal/logging"
	"clipcast/internal/store"
	"clipcast/internal/uploader"
	"clipcast/internal/verifier"
)

// Worker runs the posting loop for a single account. Each cycle it looks for
// the earliest due item, takes the duplicate-protection lock, posts, and
// records the outcome. The lock is always released before the next cycle.
type Worker struct {
	account  string
	store    *store.Store
	locks    *lock.Manager
	uploader uploader.Uploader
	verifier *verifier.Verifier
	logger   *slog.Logger

	checkInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures optional Worker behavior.
type Option func(*Worker)

// WithNow overrides the clock, used by tests.
func WithNow(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// New constructs a posting worker for one account.
func New(cfg *config.Config, account string, st *store.Store, locks *lock.Manager, up uploader.Uploader, vf *verifier.Verifier, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		account:       account,
		store:         st,
		locks:         locks,
		uploader:      up,
		verifier:      vf,
		logger:        logging.WithAccount(logging.WithComponent(logger, "worker"), account),
		checkInterval: time.Duration(cfg.Scheduler.CheckInterval) * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Account returns the account this worker posts for.
func (w *Worker) Account() string {
	return w.account
}

// Start launches the posting loop. Calling Start on a running worker is an
// error; a stopped worker may be restarted.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("worker %s already running", w.account)
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(runCtx, w.done)
	return nil
}

// Stop signals the loop to exit. It does not wait; use Join.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	w.cancel()
	w.cancel = nil
}

// Join waits up to timeout for the loop goroutine to exit. An overrunning
// cycle is logged and left to finish on its own.
func (w *Worker) Join(timeout time.Duration) bool {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		w.logger.Warn("worker did not stop in time; letting cycle finish",
			logging.Duration("timeout", timeout))
		return false
	}
}

// Running reports whether the loop has been started and not yet stopped.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	w.logger.Info("posting loop started",
		logging.Duration("check_interval", w.checkInterval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("posting loop stopped")
			return
		case <-time.After(w.checkInterval):
		}

		if err := w.ProcessDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("posting cycle failed", logging.Error(err))
		}
	}
}

// ProcessDue performs a single posting cycle: find the earliest due item and
// post it if the duplicate-protection lock can be taken. A cycle with no due
// item is a no-op.
func (w *Worker) ProcessDue(ctx context.Context) error {
	item, err := w.store.DueItem(ctx, w.account, w.now())
	if err != nil {
		return fmt.Errorf("find due item: %w", err)
	}
	if item == nil {
		return nil
	}

	acquired, err := w.locks.Acquire(w.account, item.ItemKey)
	if err != nil {
		return fmt.Errorf("acquire lock for %s: %w", item.ItemKey, err)
	}
	if !acquired {
		w.logger.Info("item locked by another publisher, skipping cycle",
			logging.String(logging.FieldItemKey, item.ItemKey))
		return nil
	}
	defer func() {
		if err := w.locks.Release(w.account, item.ItemKey); err != nil {
			w.logger.Warn("lock release failed",
				logging.String(logging.FieldItemKey, item.ItemKey),
				logging.Error(err))
		}
	}()

	return w.post(ctx, item)
}

func (w *Worker) post(ctx context.Context, item *store.Item) error {
	logger := w.logger.With(
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldItemKey, item.ItemKey))
	logger.Info("posting item", logging.String("title", item.Title))

	if err := w.uploader.PostItem(ctx, item); err != nil {
		if store.IsTransient(err) {
			// The item keeps its slot; the next cycle finds it due again.
			logger.Warn("upload failed, retrying next cycle", logging.Error(err))
			return nil
		}
		item.SetFailed(err.Error())
		if updateErr := w.store.Update(ctx, item); updateErr != nil {
			return fmt.Errorf("record failure for %s: %w", item.ItemKey, updateErr)
		}
		logger.Error("upload failed", logging.Error(err),
			logging.String("error_kind", errorKind(err)))
		return nil
	}

	// The uploader's word is final. Verification is advisory: a negative
	// result after a successful upload is logged, never acted on.
	if w.verifier != nil && !w.verifier.Confirm(ctx, item) {
		logger.Warn("post not confirmed on listing within timeout")
	}

	item.SetPosted(w.now())
	if err := w.store.Update(ctx, item); err != nil {
		return fmt.Errorf("record post for %s: %w", item.ItemKey, err)
	}
	logger.Info("item posted")
	return nil
}

func errorKind(err error) string {
	var classified store.ErrorClassifier
	if errors.As(err, &classified) {
		return classified.ErrorKind()
	}
	return "upload"
}
