// Package logging builds the slog loggers used across clipcast and provides
// the attribute helpers and standardized field names shared by all components.
package logging
