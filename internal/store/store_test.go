package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"clipcast/internal/store"
	"clipcast/internal/testsupport"
)

func TestNewItemAssignsKeyAndDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item, err := st.NewItem(ctx, "acc1", "/videos/My Clip_final.mp4", "", "a description")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID")
	}
	if item.Status != store.StatusPending {
		t.Fatalf("expected pending, got %s", item.Status)
	}
	if item.ScheduledAt != nil {
		t.Fatal("new items must not carry a slot")
	}
	if item.ItemKey != "my_clip_final" {
		t.Fatalf("unexpected item key %q", item.ItemKey)
	}
	if item.Title != "My Clip final" {
		t.Fatalf("unexpected inferred title %q", item.Title)
	}
}

func TestNewItemIsIdempotentPerFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := st.NewItem(ctx, "acc1", "/videos/clip.mp4", "", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	second, err := st.NewItem(ctx, "acc1", "/videos/clip.mp4", "", "")
	if err != nil {
		t.Fatalf("second NewItem: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same record, got %d and %d", first.ID, second.ID)
	}

	other, err := st.NewItem(ctx, "acc2", "/videos/clip.mp4", "", "")
	if err != nil {
		t.Fatalf("NewItem for second account: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("same file under another account must be a distinct item")
	}
}

func TestUpdateReplacesWholeRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "acc1", "/videos/clip.mp4", "Clip", "desc")
	slot := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	item.Status = store.StatusScheduled
	item.ScheduledAt = &slot
	if err := st.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := st.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != store.StatusScheduled {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.ScheduledAt == nil || !got.ScheduledAt.Equal(slot) {
		t.Fatalf("unexpected slot %v", got.ScheduledAt)
	}

	got.Status = store.StatusPosted
	posted := time.Now().UTC()
	got.PostedAt = &posted
	got.ScheduledAt = &slot
	if err := st.Update(ctx, got); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	final, _ := st.GetByID(ctx, item.ID)
	if final.PostedAt == nil {
		t.Fatal("expected posted_at persisted")
	}
}

func TestDueItemReturnsEarliestArrivedSlot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	schedule := func(path string, at time.Time) *store.Item {
		item := testsupport.NewItem(t, st, "acc1", path, "", "")
		item.Status = store.StatusScheduled
		item.ScheduledAt = &at
		if err := st.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
		return item
	}

	later := schedule("/videos/later.mp4", now.Add(-time.Hour))
	earliest := schedule("/videos/earliest.mp4", now.Add(-2*time.Hour))
	schedule("/videos/future.mp4", now.Add(time.Hour))

	due, err := st.DueItem(ctx, "acc1", now)
	if err != nil {
		t.Fatalf("DueItem: %v", err)
	}
	if due == nil || due.ID != earliest.ID {
		t.Fatalf("expected earliest due item %d, got %+v", earliest.ID, due)
	}
	_ = later

	none, err := st.DueItem(ctx, "acc2", now)
	if err != nil {
		t.Fatalf("DueItem acc2: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no due item for empty account, got %+v", none)
	}
}

func TestStatusTransitions(t *testing.T) {
	allowed := [][2]store.Status{
		{store.StatusPending, store.StatusScheduled},
		{store.StatusPending, store.StatusWaitlisted},
		{store.StatusScheduled, store.StatusPosted},
		{store.StatusScheduled, store.StatusFailed},
		{store.StatusWaitlisted, store.StatusScheduled},
	}
	for _, pair := range allowed {
		if !store.CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]store.Status{
		{store.StatusPosted, store.StatusPending},
		{store.StatusFailed, store.StatusScheduled},
		{store.StatusWaitlisted, store.StatusPosted},
	}
	for _, pair := range denied {
		if store.CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
}

func TestAccountsUpsertAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewAccount(t, st, "beta", true)
	testsupport.NewAccount(t, st, "alpha", true)

	if _, err := st.UpsertAccount(ctx, "beta", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, err := st.ListAccounts(ctx, true)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(active) != 1 || active[0].Name != "alpha" {
		t.Fatalf("unexpected active accounts: %+v", active)
	}

	all, err := st.ListAccounts(ctx, false)
	if err != nil {
		t.Fatalf("ListAccounts all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(all))
	}
}

func TestStatsGroupsByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewItem(t, st, "acc1", "/videos/a.mp4", "", "")
	item := testsupport.NewItem(t, st, "acc1", "/videos/b.mp4", "", "")
	item.SetFailed("upload refused")
	if err := st.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["pending"] != 1 || stats["failed"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestListForAccountSkipsMalformedRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewItem(t, st, "acc1", "/videos/good.mp4", "", "")
	insertRawItem(t, cfg.DatabasePath(), "acc1", "bad_status", "uploading", "2026-03-10T08:00:00Z")
	insertRawItem(t, cfg.DatabasePath(), "acc1", "bad_timestamp", "pending", "yesterday-ish")

	items, skipped, err := st.ListForAccountWithSkips(ctx, "acc1")
	if err != nil {
		t.Fatalf("ListForAccountWithSkips: %v", err)
	}
	if skipped != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", skipped)
	}
	if len(items) != 1 || items[0].ItemKey != "good" {
		t.Fatalf("expected only the intact item, got %v", items)
	}
}

// insertRawItem writes a row directly, bypassing the store so corrupt values
// can land in the table.
func insertRawItem(t *testing.T, dbPath, account, key, status, createdAt string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	_, err = db.Exec(
		`INSERT INTO items (account, item_key, source_path, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		account, key, "/videos/"+key+".mp4", status, createdAt, createdAt,
	)
	if err != nil {
		t.Fatalf("insert raw item: %v", err)
	}
}
