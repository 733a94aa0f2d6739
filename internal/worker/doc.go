// Package worker runs the per-account posting loops. One Worker goroutine
// exists per active account; the daemon starts and stops them as the account
// registry changes.
package worker
