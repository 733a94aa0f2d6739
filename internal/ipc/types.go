package ipc

import (
	"time"

	"clipcast/internal/store"
)

// QueueItem is the wire representation of a queued publishing item.
type QueueItem struct {
	ID             int64  `json:"id"`
	Account        string `json:"account"`
	ItemKey        string `json:"item_key"`
	SourcePath     string `json:"source_path"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	ScheduledAt    string `json:"scheduled_at,omitempty"`
	WaitlistReason string `json:"waitlist_reason,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	PostedAt       string `json:"posted_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func queueItemFromStore(item *store.Item) QueueItem {
	qi := QueueItem{
		ID:             item.ID,
		Account:        item.Account,
		ItemKey:        item.ItemKey,
		SourcePath:     item.SourcePath,
		Title:          item.Title,
		Status:         string(item.Status),
		WaitlistReason: item.WaitlistReason,
		ErrorMessage:   item.ErrorMessage,
		CreatedAt:      item.CreatedAt.Format(time.RFC3339),
	}
	if item.ScheduledAt != nil {
		qi.ScheduledAt = item.ScheduledAt.Format(time.RFC3339)
	}
	if item.PostedAt != nil {
		qi.PostedAt = item.PostedAt.Format(time.RFC3339)
	}
	return qi
}

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse reports daemon runtime state.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	SessionID    string         `json:"session_id"`
	Accounts     []string       `json:"accounts"`
	QueueStats   map[string]int `json:"queue_stats"`
	LockDir      string         `json:"lock_dir"`
	DatabasePath string         `json:"database_path"`
	LockFilePath string         `json:"lock_file_path"`
}

// ReloadRequest re-reads configuration and forces a reconcile.
type ReloadRequest struct{}

// ReloadResponse reports reload outcome.
type ReloadResponse struct {
	Reloaded bool   `json:"reloaded"`
	Message  string `json:"message"`
}

// QueueListRequest lists an account's items, optionally filtered by status.
type QueueListRequest struct {
	Account  string   `json:"account"`
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueAddRequest registers a local file as a pending item.
type QueueAddRequest struct {
	Account    string `json:"account"`
	SourcePath string `json:"source_path"`
}

// QueueAddResponse contains the registered item.
type QueueAddResponse struct {
	Item QueueItem `json:"item"`
}

// LogTailRequest fetches daemon log lines by offset. A negative offset means
// the last Limit lines.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// PlanRequest runs a one-shot planning pass for an account.
type PlanRequest struct {
	Account string `json:"account"`
}

// PlanResponse summarizes the planning pass.
type PlanResponse struct {
	Account    string `json:"account"`
	Scheduled  int    `json:"scheduled"`
	Waitlisted int    `json:"waitlisted"`
	Kept       int    `json:"kept"`
	Skipped    int    `json:"skipped"`
}
