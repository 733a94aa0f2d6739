// Package ipc carries control traffic between the CLI and the daemon over a
// unix socket using JSON-RPC.
package ipc
