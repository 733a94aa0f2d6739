// Package logs reads the daemon log file for the CLI's logs command, with
// offset-based resume and bounded follow waits.
package logs
