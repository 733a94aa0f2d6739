package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusWaitlisted Status = "waitlisted"
	StatusPosted     Status = "posted"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusScheduled,
	StatusWaitlisted,
	StatusPosted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// validTransitions enumerates the allowed status changes. Items are never
// deleted; posted and failed are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusScheduled, StatusWaitlisted, StatusFailed},
	StatusScheduled:  {StatusPending, StatusScheduled, StatusPosted, StatusFailed},
	StatusWaitlisted: {StatusScheduled, StatusPending},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Item is a single schedulable unit of content.
type Item struct {
	ID             int64
	Account        string
	ItemKey        string
	SourcePath     string
	Title          string
	Description    string
	Tags           string
	Status         Status
	ScheduledAt    *time.Time
	WaitlistReason string
	ErrorMessage   string
	PostedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status ends the item's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusPosted || s == StatusFailed
}

// Due reports whether the item's scheduled time has arrived.
func (i Item) Due(now time.Time) bool {
	return i.Status == StatusScheduled && i.ScheduledAt != nil && !i.ScheduledAt.After(now)
}

// MissedSlot reports whether the item's slot is strictly in the past while
// the item was never posted.
func (i Item) MissedSlot(now time.Time) bool {
	if i.ScheduledAt == nil || i.Status.IsTerminal() {
		return false
	}
	return i.ScheduledAt.Before(now)
}

// VerificationText returns the text the publish verifier should match against:
// the description when present, otherwise the title.
func (i Item) VerificationText() string {
	if strings.TrimSpace(i.Description) != "" {
		return i.Description
	}
	return i.Title
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
}

// SetPosted marks the item as posted at the given time.
func (i *Item) SetPosted(at time.Time) {
	i.Status = StatusPosted
	posted := at.UTC()
	i.PostedAt = &posted
	i.ErrorMessage = ""
}
