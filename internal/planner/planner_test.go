package planner_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/planner"
	"clipcast/internal/store"
	"clipcast/internal/testsupport"
)

// fixedNow is a morning instant so the current day's slots are still ahead.
var fixedNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newPlanner(t *testing.T, cfg *config.Config, st *store.Store) *planner.Planner {
	t.Helper()
	return planner.New(cfg, st, nil).WithNow(func() time.Time { return fixedNow })
}

func TestPlanAccountAssignsDistinctFutureSlots(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(3, "10:00", "22:00"),
		testsupport.WithHorizon(2),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		testsupport.NewItem(t, st, "acc1", fmt.Sprintf("/videos/clip-%02d.mp4", i), "", "")
	}

	result, err := p.PlanAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}
	if result.Scheduled != 4 || result.Waitlisted != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	items, err := st.ListForAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("ListForAccount: %v", err)
	}
	seen := make(map[int64]string)
	var previous time.Time
	for _, item := range items {
		if item.Status != store.StatusScheduled || item.ScheduledAt == nil {
			t.Fatalf("expected item %s scheduled, got %s", item.ItemKey, item.Status)
		}
		if !item.ScheduledAt.After(fixedNow) {
			t.Fatalf("slot %v is not in the future", item.ScheduledAt)
		}
		if holder, dup := seen[item.ScheduledAt.Unix()]; dup {
			t.Fatalf("slot shared by %s and %s", holder, item.ItemKey)
		}
		seen[item.ScheduledAt.Unix()] = item.ItemKey
		// Items come back oldest first; earliest-created must hold the
		// earliest slot.
		if !previous.IsZero() && item.ScheduledAt.Before(previous) {
			t.Fatalf("slot order does not follow creation order")
		}
		previous = *item.ScheduledAt
	}
}

func TestPlanAccountWaitlistsBeyondCapacity(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(1, "10:00", "11:00"),
		testsupport.WithHorizon(2),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		testsupport.NewItem(t, st, "acc1", fmt.Sprintf("/videos/clip-%02d.mp4", i), "", "")
	}

	result, err := p.PlanAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}
	if result.Scheduled != 2 {
		t.Fatalf("expected 2 scheduled, got %d", result.Scheduled)
	}
	if result.Waitlisted != 3 {
		t.Fatalf("expected 3 waitlisted, got %d", result.Waitlisted)
	}

	waitlisted, err := st.ListForAccount(ctx, "acc1", store.StatusWaitlisted)
	if err != nil {
		t.Fatalf("ListForAccount: %v", err)
	}
	for _, item := range waitlisted {
		if item.ScheduledAt != nil {
			t.Fatalf("waitlisted item %s still has a slot", item.ItemKey)
		}
		if item.WaitlistReason != "capacity_exceeded_2d" {
			t.Fatalf("unexpected waitlist reason %q", item.WaitlistReason)
		}
	}
}

func TestPlanAccountScenarioOneFreeSlot(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(1, "10:00", "11:00"),
		testsupport.WithHorizon(7),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	// Fill all horizon slots but one with previously planned items.
	for i := 0; i < 6; i++ {
		testsupport.NewItem(t, st, "acc1", fmt.Sprintf("/videos/filler-%02d.mp4", i), "", "")
	}
	if _, err := p.PlanAccount(ctx, "acc1"); err != nil {
		t.Fatalf("initial PlanAccount: %v", err)
	}

	first := testsupport.NewItem(t, st, "acc1", "/videos/new-a.mp4", "", "")
	second := testsupport.NewItem(t, st, "acc1", "/videos/new-b.mp4", "", "")

	result, err := p.PlanAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}
	if result.Scheduled != 1 || result.Waitlisted != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	gotFirst, _ := st.GetByID(ctx, first.ID)
	gotSecond, _ := st.GetByID(ctx, second.ID)
	if gotFirst.Status != store.StatusScheduled || gotFirst.ScheduledAt == nil {
		t.Fatalf("expected oldest new item scheduled, got %s", gotFirst.Status)
	}
	if gotSecond.Status != store.StatusWaitlisted {
		t.Fatalf("expected newest item waitlisted, got %s", gotSecond.Status)
	}
	if gotSecond.WaitlistReason != "capacity_exceeded_7d" {
		t.Fatalf("unexpected reason %q", gotSecond.WaitlistReason)
	}
}

func TestPlanAccountZeroFreeSlotsWaitlistsEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(1, "06:00", "07:00"),
		testsupport.WithHorizon(1),
	)
	st := testsupport.MustOpenStore(t, cfg)
	// 08:00 is past the sole slot of the single-day horizon.
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	testsupport.NewItem(t, st, "acc1", "/videos/clip-00.mp4", "", "")
	result, err := p.PlanAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}
	if result.Scheduled != 0 || result.Waitlisted != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPlanAccountEmptyAccountIsNoOp(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTimezone("UTC"))
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)

	result, err := p.PlanAccount(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}
	if result.Scheduled != 0 || result.Waitlisted != 0 || result.Kept != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPlanAccountRejectsInvertedWindow(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(1, "22:00", "10:00"),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)

	_, err := p.PlanAccount(context.Background(), "acc1")
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !store.IsConfiguration(err) {
		t.Fatalf("expected configuration classification, got %v", err)
	}
}

func TestPlanAccountSkipsMalformedRows(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(3, "10:00", "22:00"),
		testsupport.WithHorizon(2),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	testsupport.NewItem(t, st, "acc1", "/videos/clip-a.mp4", "", "")
	testsupport.NewItem(t, st, "acc1", "/videos/clip-b.mp4", "", "")

	// A row the store cannot decode must not abort the pass.
	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(
		`INSERT INTO items (account, item_key, source_path, status, created_at, updated_at)
         VALUES ('acc1', 'corrupt', '/videos/corrupt.mp4', 'uploading', '2026-03-10T07:00:00Z', '2026-03-10T07:00:00Z')`,
	); err != nil {
		t.Fatalf("insert raw item: %v", err)
	}

	result, err := p.PlanAccount(ctx, "acc1")
	if err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", result.Skipped)
	}
	if result.Scheduled != 2 {
		t.Fatalf("expected both intact items scheduled, got %d", result.Scheduled)
	}
}

func TestPlanAccountRejectsOvercrowdedWindow(t *testing.T) {
	// Four slots cannot fit a two-minute window without collapsing onto the
	// same instant.
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(4, "10:00", "10:02"),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)

	_, err := p.PlanAccount(context.Background(), "acc1")
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !store.IsConfiguration(err) {
		t.Fatalf("expected configuration classification, got %v", err)
	}
}

func TestReallocateMissedSlotsCatchUp(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTimezone("UTC"), testsupport.WithCatchUp())
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "acc1", "/videos/late.mp4", "", "")
	past := fixedNow.Add(-24 * time.Hour)
	item.Status = store.StatusScheduled
	item.ScheduledAt = &past
	if err := st.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	result, err := p.ReallocateMissedSlots(ctx, "acc1")
	if err != nil {
		t.Fatalf("ReallocateMissedSlots: %v", err)
	}
	if result.Changed != 0 || !result.CatchUp {
		t.Fatalf("expected {changed:0, catch_up:true}, got %+v", result)
	}

	got, _ := st.GetByID(ctx, item.ID)
	if !got.ScheduledAt.Equal(past) {
		t.Fatalf("catch-up must leave past-due item untouched, got %v", got.ScheduledAt)
	}
}

func TestReallocateMissedSlotsMovesToFutureSlot(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(2, "10:00", "20:00"),
		testsupport.WithHorizon(2),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "acc1", "/videos/late.mp4", "", "")
	past := fixedNow.Add(-24 * time.Hour)
	item.Status = store.StatusScheduled
	item.ScheduledAt = &past
	if err := st.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	result, err := p.ReallocateMissedSlots(ctx, "acc1")
	if err != nil {
		t.Fatalf("ReallocateMissedSlots: %v", err)
	}
	if result.Changed != 1 || result.CatchUp {
		t.Fatalf("unexpected result: %+v", result)
	}

	got, _ := st.GetByID(ctx, item.ID)
	if got.ScheduledAt == nil || !got.ScheduledAt.After(fixedNow) {
		t.Fatalf("expected future slot, got %v", got.ScheduledAt)
	}
	if got.Status != store.StatusScheduled {
		t.Fatalf("expected item to stay scheduled, got %s", got.Status)
	}
}

func TestPreviewScheduleDoesNotMutate(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(2, "10:00", "20:00"),
		testsupport.WithHorizon(1),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	item := testsupport.NewItem(t, st, "acc1", "/videos/clip.mp4", "Clip", "")
	if _, err := p.PlanAccount(ctx, "acc1"); err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}

	preview, err := p.PreviewSchedule(ctx, "acc1")
	if err != nil {
		t.Fatalf("PreviewSchedule: %v", err)
	}
	if preview.Timezone != "UTC" {
		t.Fatalf("unexpected timezone %q", preview.Timezone)
	}
	if len(preview.Slots) != 2 {
		t.Fatalf("expected 2 preview slots, got %d", len(preview.Slots))
	}
	occupied := 0
	for _, slot := range preview.Slots {
		if slot.ItemKey != "" {
			occupied++
		}
	}
	if occupied != 1 {
		t.Fatalf("expected one occupied slot, got %d", occupied)
	}

	before, _ := st.GetByID(ctx, item.ID)
	if _, err := p.PreviewSchedule(ctx, "acc1"); err != nil {
		t.Fatalf("second PreviewSchedule: %v", err)
	}
	after, _ := st.GetByID(ctx, item.ID)
	if !before.UpdatedAt.Equal(after.UpdatedAt) {
		t.Fatal("preview mutated item state")
	}
}

func TestPlanAccountWritesIndex(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithTimezone("UTC"),
		testsupport.WithSlots(1, "10:00", "11:00"),
		testsupport.WithHorizon(2),
	)
	st := testsupport.MustOpenStore(t, cfg)
	p := newPlanner(t, cfg, st)
	ctx := context.Background()

	testsupport.NewItem(t, st, "acc1", "/videos/clip.mp4", "Clip", "")
	if _, err := p.PlanAccount(ctx, "acc1"); err != nil {
		t.Fatalf("PlanAccount: %v", err)
	}

	index, err := p.ReadIndex("acc1")
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if index.Account != "acc1" || index.Timezone != "UTC" {
		t.Fatalf("unexpected index header: %+v", index)
	}
	if len(index.Entries) != 1 || index.Entries[0].ItemKey != "clip" {
		t.Fatalf("unexpected index entries: %+v", index.Entries)
	}
	if index.SessionID == "" {
		t.Fatal("expected session id in index")
	}
}
