package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/logging"
	"clipcast/internal/store"
)

// Planner assigns unscheduled items to posting slots within the rolling
// horizon and maintains the per-account schedule index.
type Planner struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

// PlanResult summarizes one planning pass over an account.
type PlanResult struct {
	Account    string
	Scheduled  int
	Waitlisted int
	Kept       int
	Skipped    int
}

// ReallocationResult summarizes a missed-slot reallocation pass.
type ReallocationResult struct {
	Account string
	Changed int
	CatchUp bool
}

// New constructs a planner.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Planner{
		cfg:    cfg,
		store:  st,
		logger: logging.WithComponent(logger, "planner"),
		now:    time.Now,
	}
}

// WithNow overrides the planner's clock. Used in tests.
func (p *Planner) WithNow(now func() time.Time) *Planner {
	p.now = now
	return p
}

// PlanAccount assigns every unscheduled item of the account to the earliest
// free slot within the horizon, waitlisting items beyond capacity, then
// regenerates the account's schedule index.
func (p *Planner) PlanAccount(ctx context.Context, account string) (*PlanResult, error) {
	logger := logging.WithAccount(p.logger, account)

	window, err := p.window()
	if err != nil {
		return nil, err
	}

	items, skipped, err := p.store.ListForAccountWithSkips(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("load items for %s: %w", account, err)
	}
	if skipped > 0 {
		logger.Warn("skipping malformed item records", logging.Int("count", skipped))
	}

	result := &PlanResult{Account: account, Skipped: skipped}
	if len(items) == 0 {
		return result, p.writeIndex(account, window, nil)
	}

	now := p.now()
	free, occupied := p.freeSlots(window, now, items, 0)

	var unscheduled []*store.Item
	for _, item := range items {
		switch {
		case item.Status == store.StatusScheduled && item.ScheduledAt != nil:
			result.Kept++
		case item.Status == store.StatusPending && item.ScheduledAt == nil,
			item.Status == store.StatusWaitlisted:
			unscheduled = append(unscheduled, item)
		}
	}

	// Items already come back oldest-created-first, which is the priority
	// order for competing items.
	for _, item := range unscheduled {
		if len(free) > 0 {
			slot := free[0]
			free = free[1:]
			item.Status = store.StatusScheduled
			item.ScheduledAt = &slot
			item.WaitlistReason = ""
			if err := p.store.Update(ctx, item); err != nil {
				return nil, fmt.Errorf("persist slot assignment: %w", err)
			}
			occupied[slot.Unix()] = item.ItemKey
			result.Scheduled++
			logger.Info("item scheduled",
				logging.String(logging.FieldItemKey, item.ItemKey),
				logging.Time(logging.FieldSlot, slot),
			)
			continue
		}

		reason := fmt.Sprintf("capacity_exceeded_%dd", p.cfg.Scheduler.HorizonDays)
		if item.Status == store.StatusWaitlisted && item.WaitlistReason == reason {
			result.Waitlisted++
			continue
		}
		item.Status = store.StatusWaitlisted
		item.ScheduledAt = nil
		item.WaitlistReason = reason
		if err := p.store.Update(ctx, item); err != nil {
			return nil, fmt.Errorf("persist waitlist: %w", err)
		}
		result.Waitlisted++
		logger.Info("item waitlisted",
			logging.String(logging.FieldItemKey, item.ItemKey),
			logging.String("reason", reason),
		)
	}

	if err := p.writeIndex(account, window, items); err != nil {
		return nil, err
	}
	return result, nil
}

// ReallocateMissedSlots moves items whose slot passed without a post onto the
// next free future slot. With catch-up enabled the pass is an explicit no-op:
// past-due items keep their original slot and are posted late instead.
func (p *Planner) ReallocateMissedSlots(ctx context.Context, account string) (*ReallocationResult, error) {
	if p.cfg.Scheduler.CatchUp {
		return &ReallocationResult{Account: account, Changed: 0, CatchUp: true}, nil
	}

	logger := logging.WithAccount(p.logger, account)

	window, err := p.window()
	if err != nil {
		return nil, err
	}

	items, skipped, err := p.store.ListForAccountWithSkips(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("load items for %s: %w", account, err)
	}
	if skipped > 0 {
		logger.Warn("skipping malformed item records", logging.Int("count", skipped))
	}

	now := p.now()
	result := &ReallocationResult{Account: account}
	free, _ := p.freeSlots(window, now, items, 0)

	for _, item := range items {
		if item.Status != store.StatusScheduled || !item.MissedSlot(now) {
			continue
		}
		if len(free) == 0 {
			// Past slots are never candidates; the item stays put until a
			// future slot frees up.
			logger.Warn("no future slot available for missed item",
				logging.String(logging.FieldItemKey, item.ItemKey),
			)
			continue
		}
		slot := free[0]
		free = free[1:]
		previous := *item.ScheduledAt
		item.ScheduledAt = &slot
		if err := p.store.Update(ctx, item); err != nil {
			return nil, fmt.Errorf("persist reallocation: %w", err)
		}
		result.Changed++
		logger.Info("missed slot reallocated",
			logging.String(logging.FieldItemKey, item.ItemKey),
			logging.Time("from", previous),
			logging.Time(logging.FieldSlot, slot),
		)
	}

	if result.Changed > 0 {
		if err := p.writeIndex(account, window, items); err != nil {
			return nil, err
		}
	}
	return result, nil
}
