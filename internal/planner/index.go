package planner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipcast/internal/store"
)

// ScheduleIndex is the per-account slot grid written after each planning run.
// It exists for inspection only: item metadata stays authoritative and the
// index is rebuilt from it on every pass.
type ScheduleIndex struct {
	Account     string       `json:"account"`
	SessionID   string       `json:"session_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Timezone    string       `json:"timezone"`
	Entries     []IndexEntry `json:"entries"`
}

// IndexEntry maps one slot to the item occupying it.
type IndexEntry struct {
	Slot    time.Time `json:"slot"`
	ItemKey string    `json:"item_key"`
	Title   string    `json:"title,omitempty"`
}

func (p *Planner) indexPath(account string) string {
	return filepath.Join(p.cfg.IndexDir(), account+".json")
}

func (p *Planner) writeIndex(account string, window *slotWindow, items []*store.Item) error {
	index := ScheduleIndex{
		Account:     account,
		SessionID:   uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Timezone:    window.location.String(),
	}
	for _, item := range items {
		if item.Status != store.StatusScheduled || item.ScheduledAt == nil {
			continue
		}
		index.Entries = append(index.Entries, IndexEntry{
			Slot:    item.ScheduledAt.In(window.location),
			ItemKey: item.ItemKey,
			Title:   item.Title,
		})
	}

	payload, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedule index: %w", err)
	}

	path := p.indexPath(account)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure index directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write schedule index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace schedule index: %w", err)
	}
	return nil
}

// ReadIndex loads a previously written schedule index.
func (p *Planner) ReadIndex(account string) (*ScheduleIndex, error) {
	payload, err := os.ReadFile(p.indexPath(account))
	if err != nil {
		return nil, fmt.Errorf("read schedule index: %w", err)
	}
	var index ScheduleIndex
	if err := json.Unmarshal(payload, &index); err != nil {
		return nil, fmt.Errorf("decode schedule index: %w", err)
	}
	return &index, nil
}
