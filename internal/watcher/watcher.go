package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"clipcast/internal/config"
	"clipcast/internal/logging"
	"clipcast/internal/store"
)

// settleDelay is how long a file must sit quiet before it is registered.
// Upload pipelines write large videos in chunks; acting on the first write
// event would register half a file.
const settleDelay = 500 * time.Millisecond

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
}

// Watcher turns files dropped into per-account inbox directories into pending
// items. The inbox root contains one subdirectory per account; a video file
// appearing inside one is registered under that account.
type Watcher struct {
	inboxDir string
	store    *store.Store
	logger   *slog.Logger

	settle time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	fsw     *fsnotify.Watcher
	timers  map[string]*time.Timer
	wg      sync.WaitGroup
}

// Option configures optional Watcher behavior.
type Option func(*Watcher)

// WithSettle overrides the settle delay, used by tests.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New constructs an inbox watcher. The inbox directory is created if missing.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		inboxDir: cfg.Paths.InboxDir,
		store:    st,
		logger:   logging.WithComponent(logger, "watcher"),
		settle:   settleDelay,
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start scans the inbox for files already present, then begins watching for
// new ones. Calling Start on a running watcher is an error.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("inbox watcher already running")
	}
	if err := os.MkdirAll(w.inboxDir, 0o755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.inboxDir); err != nil {
		fsw.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.running = true

	// Account directories that already exist must be watched before the
	// initial scan so nothing dropped in between is missed.
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		w.running = false
		cancel()
		fsw.Close()
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := fsw.Add(filepath.Join(w.inboxDir, entry.Name())); err != nil {
				w.logger.Warn("watch account inbox failed",
					logging.String(logging.FieldAccount, entry.Name()),
					logging.Error(err))
			}
		}
	}

	w.wg.Add(1)
	go w.loop(runCtx, fsw)

	go w.scanExisting(runCtx)
	return nil
}

// Stop ends watching and waits for the event loop to exit. Pending settle
// timers are cancelled; their files are picked up by the next Start scan.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	w.cancel = nil
	fsw := w.fsw
	w.fsw = nil
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	cancel()
	fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// A new account inbox appeared.
		if filepath.Dir(event.Name) == w.inboxDir {
			if err := fsw.Add(event.Name); err != nil {
				w.logger.Warn("watch account inbox failed",
					logging.String("path", event.Name), logging.Error(err))
			}
		}
		return
	}

	account, ok := w.accountFor(event.Name)
	if !ok || !videoExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}
	w.scheduleRegister(ctx, account, event.Name)
}

// scheduleRegister debounces write bursts: each event resets the file's settle
// timer, and registration happens only once the file has been quiet.
func (w *Watcher) scheduleRegister(ctx context.Context, account, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.register(ctx, account, path)
	})
}

func (w *Watcher) scanExisting(ctx context.Context) {
	err := filepath.WalkDir(w.inboxDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if account, ok := w.accountFor(path); ok {
			w.register(ctx, account, path)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("inbox scan failed", logging.Error(err))
	}
}

// accountFor maps an inbox path to its account: the first directory below the
// inbox root. Files dropped at the root itself have no account and are ignored.
func (w *Watcher) accountFor(path string) (string, bool) {
	rel, err := filepath.Rel(w.inboxDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		return "", false
	}
	return parts[0], true
}

func (w *Watcher) register(ctx context.Context, account, path string) {
	// NewItem is idempotent per account and item key, so re-seeing a file
	// after a restart or a duplicate event never creates a second item.
	item, err := w.store.NewItem(ctx, account, path, "", "")
	if err != nil {
		w.logger.Error("register inbox file failed",
			logging.String(logging.FieldAccount, account),
			logging.String("path", path),
			logging.Error(err))
		return
	}
	w.logger.Info("registered inbox file",
		logging.String(logging.FieldAccount, account),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldItemKey, item.ItemKey))
}
