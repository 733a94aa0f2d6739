package config

const (
	defaultDataDir  = "~/.local/share/clipcast"
	defaultInboxDir = "~/.local/share/clipcast/inbox"
	defaultLogDir   = "~/.local/share/clipcast/logs"

	defaultPollInterval  = 60
	defaultCheckInterval = 30
	defaultHorizonDays   = 7
	defaultSlotsPerDay   = 3
	defaultSlotStart     = "10:00"
	defaultSlotEnd       = "22:00"
	defaultTimezone      = "Europe/Berlin"
	defaultPlanSchedule  = "@hourly"

	defaultLockValiditySeconds = 45

	defaultRequestsPerMinute = 6
	defaultRequestTimeout    = 120

	defaultVerifierTimeoutSeconds = 60
	defaultVerifierRetrySeconds   = 5
	defaultVerifierMaxCandidates  = 20

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	// MinPollInterval is the floor applied to scheduler.poll_interval.
	MinPollInterval = 10
	// MinVerifierTimeout is the floor applied to verifier.timeout_seconds.
	MinVerifierTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			InboxDir: defaultInboxDir,
			LogDir:   defaultLogDir,
		},
		Scheduler: Scheduler{
			PollInterval:  defaultPollInterval,
			CheckInterval: defaultCheckInterval,
			HorizonDays:   defaultHorizonDays,
			SlotsPerDay:   defaultSlotsPerDay,
			SlotStart:     defaultSlotStart,
			SlotEnd:       defaultSlotEnd,
			Timezone:      defaultTimezone,
			PlanSchedule:  defaultPlanSchedule,
		},
		Locks: Locks{
			ValiditySeconds: defaultLockValiditySeconds,
		},
		Publisher: Publisher{
			RequestsPerMinute: defaultRequestsPerMinute,
			RequestTimeout:    defaultRequestTimeout,
		},
		Verifier: Verifier{
			TimeoutSeconds:       defaultVerifierTimeoutSeconds,
			RetryIntervalSeconds: defaultVerifierRetrySeconds,
			MaxCandidates:        defaultVerifierMaxCandidates,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
