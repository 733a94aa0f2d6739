package planner

import (
	"fmt"
	"time"

	"clipcast/internal/config"
	"clipcast/internal/store"
)

// slotWindow captures the validated slot grid parameters for one pass.
type slotWindow struct {
	location    *time.Location
	start       config.Clock
	end         config.Clock
	slotsPerDay int
	horizonDays int
}

type configurationError struct {
	err error
}

func (e *configurationError) Error() string { return e.err.Error() }

func (e *configurationError) Unwrap() error { return e.err }

func (e *configurationError) ErrorKind() string { return "configuration" }

// window validates the configured slot parameters. Failures are
// configuration errors: fatal for the account's pass, harmless to the daemon.
func (p *Planner) window() (*slotWindow, error) {
	sched := p.cfg.Scheduler

	start, err := config.ParseClock(sched.SlotStart)
	if err != nil {
		return nil, &configurationError{err: fmt.Errorf("slot_start: %w", err)}
	}
	end, err := config.ParseClock(sched.SlotEnd)
	if err != nil {
		return nil, &configurationError{err: fmt.Errorf("slot_end: %w", err)}
	}
	if !start.Before(end) {
		return nil, &configurationError{err: fmt.Errorf("slot window %s..%s is empty", sched.SlotStart, sched.SlotEnd)}
	}
	if span := end.MinuteOfDay() - start.MinuteOfDay(); sched.SlotsPerDay > span {
		return nil, &configurationError{err: fmt.Errorf("%d slots do not fit the %d-minute window %s..%s",
			sched.SlotsPerDay, span, sched.SlotStart, sched.SlotEnd)}
	}
	location, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		return nil, &configurationError{err: fmt.Errorf("timezone %q: %w", sched.Timezone, err)}
	}

	return &slotWindow{
		location:    location,
		start:       start,
		end:         end,
		slotsPerDay: sched.SlotsPerDay,
		horizonDays: sched.HorizonDays,
	}, nil
}

// slotTimes generates every slot instant from now through the horizon,
// strictly in the future, ascending. Each day's window is subdivided into
// slotsPerDay evenly spaced slots starting at the window start.
func (w *slotWindow) slotTimes(now time.Time) []time.Time {
	local := now.In(w.location)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, w.location)

	spanMinutes := w.end.MinuteOfDay() - w.start.MinuteOfDay()
	stepMinutes := spanMinutes / w.slotsPerDay

	slots := make([]time.Time, 0, w.horizonDays*w.slotsPerDay)
	for day := 0; day < w.horizonDays; day++ {
		date := startOfDay.AddDate(0, 0, day)
		for i := 0; i < w.slotsPerDay; i++ {
			offset := w.start.MinuteOfDay() + i*stepMinutes
			slot := date.Add(time.Duration(offset) * time.Minute)
			if !slot.After(now) {
				continue
			}
			slots = append(slots, slot)
		}
	}
	return slots
}

// freeSlots returns the ascending future slots not occupied by a scheduled
// item, plus the occupancy map keyed by slot unix time. excludeID removes one
// item from occupancy so its own slot can be reassigned.
func (p *Planner) freeSlots(window *slotWindow, now time.Time, items []*store.Item, excludeID int64) ([]time.Time, map[int64]string) {
	occupied := make(map[int64]string)
	for _, item := range items {
		if item.ID == excludeID {
			continue
		}
		if item.Status != store.StatusScheduled || item.ScheduledAt == nil {
			continue
		}
		occupied[item.ScheduledAt.Unix()] = item.ItemKey
	}

	var free []time.Time
	for _, slot := range window.slotTimes(now) {
		if _, taken := occupied[slot.Unix()]; taken {
			continue
		}
		free = append(free, slot)
	}
	return free, occupied
}
