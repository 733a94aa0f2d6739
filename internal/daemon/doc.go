// Package daemon hosts the long-running scheduler: it reconciles per-account
// posting workers against the account registry, runs periodic planning
// passes, and enforces single-instance execution.
package daemon
