package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validatePublisher(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.InboxDir) == "" {
		return errors.New("paths.inbox_dir must be set")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.HorizonDays <= 0 {
		return errors.New("scheduler.horizon_days must be positive")
	}
	if c.Scheduler.SlotsPerDay <= 0 {
		return errors.New("scheduler.slots_per_day must be positive")
	}
	start, err := ParseClock(c.Scheduler.SlotStart)
	if err != nil {
		return fmt.Errorf("scheduler.slot_start: %w", err)
	}
	end, err := ParseClock(c.Scheduler.SlotEnd)
	if err != nil {
		return fmt.Errorf("scheduler.slot_end: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("scheduler.slot_start %q must be before slot_end %q", c.Scheduler.SlotStart, c.Scheduler.SlotEnd)
	}
	if span := end.MinuteOfDay() - start.MinuteOfDay(); c.Scheduler.SlotsPerDay > span {
		return fmt.Errorf("scheduler.slots_per_day %d exceeds the %d-minute window %s..%s",
			c.Scheduler.SlotsPerDay, span, c.Scheduler.SlotStart, c.Scheduler.SlotEnd)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone %q: %w", c.Scheduler.Timezone, err)
	}
	return nil
}

func (c *Config) validatePublisher() error {
	if c.Publisher.RequestsPerMinute <= 0 {
		return errors.New("publisher.requests_per_minute must be positive")
	}
	if c.Publisher.RequestTimeout <= 0 {
		return errors.New("publisher.request_timeout must be positive")
	}
	return nil
}

// Clock is a time of day within a posting window.
type Clock struct {
	Hour   int
	Minute int
}

// Before reports whether c is earlier in the day than other.
func (c Clock) Before(other Clock) bool {
	if c.Hour != other.Hour {
		return c.Hour < other.Hour
	}
	return c.Minute < other.Minute
}

// MinuteOfDay returns the clock position as minutes since midnight.
func (c Clock) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

// ParseClock parses an HH:MM string into a Clock.
func ParseClock(value string) (Clock, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := time.Parse("15:04", trimmed)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid HH:MM value %q", value)
	}
	return Clock{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}
