// Package watcher registers video files dropped into per-account inbox
// directories as pending items. It is the boundary between the external
// upload pipeline and the scheduling queue.
package watcher
