// Command clipcast is the operator CLI: it manages the daemon over IPC and
// provides queue, planning, schedule, account, and configuration tooling.
package main
