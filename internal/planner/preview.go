package planner

import (
	"context"
	"fmt"
	"time"

	"clipcast/internal/store"
)

// Preview is a read-only projection of the slot grid for display.
type Preview struct {
	Account  string
	Timezone string
	Slots    []PreviewSlot
}

// PreviewSlot is one slot in the preview grid; ItemKey is empty for free slots.
type PreviewSlot struct {
	Time    time.Time
	ItemKey string
	Title   string
}

// PreviewSchedule projects the current slot occupancy without mutating any
// item state.
func (p *Planner) PreviewSchedule(ctx context.Context, account string) (*Preview, error) {
	window, err := p.window()
	if err != nil {
		return nil, err
	}

	items, _, err := p.store.ListForAccountWithSkips(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("load items for %s: %w", account, err)
	}

	byUnix := make(map[int64]*store.Item)
	for _, item := range items {
		if item.Status == store.StatusScheduled && item.ScheduledAt != nil {
			byUnix[item.ScheduledAt.Unix()] = item
		}
	}

	preview := &Preview{Account: account, Timezone: window.location.String()}
	for _, slot := range window.slotTimes(p.now()) {
		entry := PreviewSlot{Time: slot.In(window.location)}
		if item, ok := byUnix[slot.Unix()]; ok {
			entry.ItemKey = item.ItemKey
			entry.Title = item.Title
		}
		preview.Slots = append(preview.Slots, entry)
	}
	return preview, nil
}
