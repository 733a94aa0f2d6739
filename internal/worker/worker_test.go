package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/lock"
	"clipcast/internal/logging"
	"clipcast/internal/store"
	"clipcast/internal/testsupport"
	"clipcast/internal/worker"
)

type fakeUploader struct {
	mu     sync.Mutex
	err    error
	posted []string
}

func (f *fakeUploader) PostItem(_ context.Context, item *store.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.posted = append(f.posted, item.ItemKey)
	return nil
}

func (f *fakeUploader) postedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posted...)
}

func newWorkerFixture(t *testing.T, cfg *config.Config, up *fakeUploader) (*worker.Worker, *store.Store, *lock.Manager) {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	locks := lock.NewManager(cfg.LockDir(), time.Duration(cfg.Locks.ValiditySeconds)*time.Second, logging.NewNop())
	w := worker.New(cfg, "alpha", st, locks, up, nil, logging.NewNop())
	return w, st, locks
}

func scheduleItem(t *testing.T, st *store.Store, item *store.Item, at time.Time) {
	t.Helper()
	item.Status = store.StatusScheduled
	item.ScheduledAt = &at
	if err := st.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestProcessDuePostsScheduledItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	up := &fakeUploader{}
	w, st, _ := newWorkerFixture(t, cfg, up)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "alpha", "/videos/clip one.mp4", "Clip One", "first clip of the season")
	scheduleItem(t, st, item, time.Now().Add(-time.Minute))

	if err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	got, err := st.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != store.StatusPosted {
		t.Fatalf("expected posted, got %s", got.Status)
	}
	if got.PostedAt == nil {
		t.Fatal("expected posted_at to be set")
	}
	if keys := up.postedKeys(); len(keys) != 1 {
		t.Fatalf("expected one upload, got %v", keys)
	}
}

func TestProcessDueNoDueItemIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	up := &fakeUploader{}
	w, st, _ := newWorkerFixture(t, cfg, up)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "alpha", "/videos/future.mp4", "Future", "")
	scheduleItem(t, st, item, time.Now().Add(time.Hour))

	if err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if keys := up.postedKeys(); len(keys) != 0 {
		t.Fatalf("expected no uploads, got %v", keys)
	}
}

func TestProcessDueUploadErrorMarksFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	up := &fakeUploader{err: errors.New("endpoint rejected payload")}
	w, st, _ := newWorkerFixture(t, cfg, up)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "alpha", "/videos/broken.mp4", "Broken", "")
	scheduleItem(t, st, item, time.Now().Add(-time.Minute))

	if err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	got, err := st.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != store.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected error message to be recorded")
	}
}

type retryableErr struct{ msg string }

func (e retryableErr) Error() string { return e.msg }

func (e retryableErr) ErrorKind() string { return "transient" }

func TestProcessDueTransientErrorKeepsItemScheduled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	up := &fakeUploader{err: retryableErr{msg: "endpoint unreachable"}}
	w, st, locks := newWorkerFixture(t, cfg, up)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "alpha", "/videos/flaky.mp4", "Flaky", "")
	scheduleItem(t, st, item, time.Now().Add(-time.Minute))

	if err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	got, err := st.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != store.StatusScheduled {
		t.Fatalf("transient failure must leave item scheduled, got %s", got.Status)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("transient failure must not be recorded on the item, got %q", got.ErrorMessage)
	}

	held, _, err := locks.Check("alpha", item.ItemKey)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if held {
		t.Fatal("expected lock released after a transient failure")
	}
}

func TestProcessDueSkipsWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	up := &fakeUploader{}
	w, st, locks := newWorkerFixture(t, cfg, up)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "alpha", "/videos/held.mp4", "Held", "")
	scheduleItem(t, st, item, time.Now().Add(-time.Minute))

	acquired, err := locks.Acquire("alpha", item.ItemKey)
	if err != nil || !acquired {
		t.Fatalf("pre-acquire lock: acquired=%v err=%v", acquired, err)
	}

	if err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if keys := up.postedKeys(); len(keys) != 0 {
		t.Fatalf("expected no uploads while locked, got %v", keys)
	}

	got, err := st.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != store.StatusScheduled {
		t.Fatalf("expected item to stay scheduled, got %s", got.Status)
	}
}

func TestProcessDueReleasesLockAfterFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	up := &fakeUploader{err: errors.New("boom")}
	w, st, locks := newWorkerFixture(t, cfg, up)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "alpha", "/videos/release.mp4", "Release", "")
	scheduleItem(t, st, item, time.Now().Add(-time.Minute))

	if err := w.ProcessDue(ctx); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	held, _, err := locks.Check("alpha", item.ItemKey)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if held {
		t.Fatal("expected lock to be released after a failed upload")
	}
}

func TestStartStopJoin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scheduler.CheckInterval = 1
	up := &fakeUploader{}
	w, st, _ := newWorkerFixture(t, cfg, up)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "alpha", "/videos/looped.mp4", "Looped", "")
	scheduleItem(t, st, item, time.Now().Add(-time.Minute))

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(up.postedKeys()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never posted the due item")
		}
		time.Sleep(20 * time.Millisecond)
	}

	w.Stop()
	if !w.Join(2 * time.Second) {
		t.Fatal("worker did not stop in time")
	}
	if w.Running() {
		t.Fatal("worker reports running after Stop")
	}
}
