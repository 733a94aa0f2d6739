package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variable overrides recognized at load time.
const (
	EnvLockValiditySeconds = "CLIPCAST_LOCK_VALIDITY_SECONDS"
	EnvPollInterval        = "CLIPCAST_POLL_INTERVAL"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScheduler()
	c.normalizeLocks()
	c.normalizeVerifier()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScheduler() {
	if v, ok := envInt(EnvPollInterval); ok {
		c.Scheduler.PollInterval = v
	}
	if c.Scheduler.PollInterval < MinPollInterval {
		c.Scheduler.PollInterval = MinPollInterval
	}
	if c.Scheduler.CheckInterval <= 0 {
		c.Scheduler.CheckInterval = defaultCheckInterval
	}
	if strings.TrimSpace(c.Scheduler.Timezone) == "" {
		c.Scheduler.Timezone = defaultTimezone
	}
	if strings.TrimSpace(c.Scheduler.PlanSchedule) == "" {
		c.Scheduler.PlanSchedule = defaultPlanSchedule
	}
	c.Scheduler.SlotStart = strings.TrimSpace(c.Scheduler.SlotStart)
	c.Scheduler.SlotEnd = strings.TrimSpace(c.Scheduler.SlotEnd)
}

func (c *Config) normalizeLocks() {
	if v, ok := envInt(EnvLockValiditySeconds); ok {
		c.Locks.ValiditySeconds = v
	}
	if c.Locks.ValiditySeconds <= 0 {
		c.Locks.ValiditySeconds = defaultLockValiditySeconds
	}
}

func (c *Config) normalizeVerifier() {
	if c.Verifier.TimeoutSeconds < MinVerifierTimeout {
		c.Verifier.TimeoutSeconds = MinVerifierTimeout
	}
	if c.Verifier.RetryIntervalSeconds <= 0 {
		c.Verifier.RetryIntervalSeconds = defaultVerifierRetrySeconds
	}
	if c.Verifier.MaxCandidates <= 0 {
		c.Verifier.MaxCandidates = defaultVerifierMaxCandidates
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func envInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
