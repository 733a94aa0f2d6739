// Package store persists item metadata and the account registry in SQLite.
//
// Items are the authoritative scheduling record: slot occupancy is always
// recomputed from the scheduled_at column, never from derived files. All item
// writes are whole-record replacements.
package store
