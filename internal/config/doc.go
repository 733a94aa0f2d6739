// Package config loads, normalizes, and validates clipcast's TOML
// configuration and resolves the runtime directory layout.
package config
