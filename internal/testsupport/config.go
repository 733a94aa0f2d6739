package testsupport

import (
	"path/filepath"
	"testing"

	"clipcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scheduler.CheckInterval = 1
	cfg.Verifier.RetryIntervalSeconds = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCatchUp enables catch-up mode on the test config.
func WithCatchUp() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.CatchUp = true
	}
}

// WithSlots overrides the slot grid on the test config.
func WithSlots(perDay int, start, end string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.SlotsPerDay = perDay
		cfg.Scheduler.SlotStart = start
		cfg.Scheduler.SlotEnd = end
	}
}

// WithHorizon overrides the horizon on the test config.
func WithHorizon(days int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.HorizonDays = days
	}
}

// WithTimezone overrides the timezone on the test config.
func WithTimezone(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.Timezone = name
	}
}
