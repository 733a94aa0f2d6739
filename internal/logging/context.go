package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAccount is the standardized structured logging key for account names.
	FieldAccount = "account"
	// FieldItemID is the standardized structured logging key for item identifiers.
	FieldItemID = "item_id"
	// FieldItemKey is the standardized structured logging key for filename-derived item keys.
	FieldItemKey = "item_key"
	// FieldSlot is the standardized structured logging key for slot timestamps.
	FieldSlot = "slot"
	// FieldSessionID is the standardized structured logging key for daemon run identifiers.
	FieldSessionID = "session_id"
)

// WithComponent returns a child logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// WithAccount returns a child logger tagged with an account name.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldAccount, account))
}
