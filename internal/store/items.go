package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"clipcast/internal/textutil"
)

const itemColumns = `id, account, item_key, source_path, title, description, tags,
    status, scheduled_at, waitlist_reason, error_message, posted_at, created_at, updated_at`

// NewItem registers a pending item for an account. The item key is derived
// from the source filename; registering the same file twice returns the
// existing record.
func (s *Store) NewItem(ctx context.Context, account, sourcePath, title, description string) (*Item, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, errors.New("account is required")
	}
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return nil, errors.New("source path is required")
	}

	key := ItemKeyFromPath(sourcePath)
	if existing, err := s.GetByKey(ctx, account, key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	if strings.TrimSpace(title) == "" {
		title = inferTitleFromPath(sourcePath)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO items (
            account, item_key, source_path, title, description, tags,
            status, scheduled_at, waitlist_reason, error_message, posted_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, '', ?, NULL, NULL, '', NULL, ?, ?)`,
		account,
		key,
		sourcePath,
		title,
		description,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches an item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetByKey fetches an item by account and filename-derived key.
func (s *Store) GetByKey(ctx context.Context, account, key string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM items WHERE account = ? AND item_key = ?`,
		account, key,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item by key: %w", err)
	}
	return item, nil
}

// ListForAccount returns all items for an account, oldest created first,
// optionally filtered by status.
func (s *Store) ListForAccount(ctx context.Context, account string, statuses ...Status) ([]*Item, error) {
	items, _, err := s.ListForAccountWithSkips(ctx, account, statuses...)
	return items, err
}

// ListForAccountWithSkips is ListForAccount plus a count of rows that could
// not be decoded. Malformed records are excluded instead of aborting the
// read, so one corrupt row cannot block an account's planning pass.
func (s *Store) ListForAccountWithSkips(ctx context.Context, account string, statuses ...Status) ([]*Item, int, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE account = ?`
	args := []any{account}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// DueItem returns the earliest scheduled item for the account whose slot has
// arrived, or nil when nothing is due.
func (s *Store) DueItem(ctx context.Context, account string, now time.Time) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM items
         WHERE account = ? AND status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?
         ORDER BY scheduled_at ASC, id ASC LIMIT 1`,
		account,
		StatusScheduled,
		now.UTC().Format(time.RFC3339Nano),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("due item: %w", err)
	}
	return item, nil
}

// Update persists the full item record. Writes are whole-record replacements
// so a partially mutated struct can never leave a mixed row behind.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE items SET
            account = ?, item_key = ?, source_path = ?, title = ?, description = ?, tags = ?,
            status = ?, scheduled_at = ?, waitlist_reason = ?, error_message = ?, posted_at = ?,
            updated_at = ?
         WHERE id = ?`,
		item.Account,
		item.ItemKey,
		item.SourcePath,
		item.Title,
		item.Description,
		item.Tags,
		item.Status,
		nullableTime(item.ScheduledAt),
		nullableString(item.WaitlistReason),
		item.ErrorMessage,
		nullableTime(item.PostedAt),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %d not found", item.ID)
	}
	return nil
}

// Stats returns item counts grouped by status across all accounts.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ItemKeyFromPath derives the stable item identifier from a source filename.
func ItemKeyFromPath(sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return textutil.SanitizeToken(base)
}

func inferTitleFromPath(sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", ".", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item           Item
		status         string
		scheduledAt    sql.NullString
		waitlistReason sql.NullString
		postedAt       sql.NullString
		createdAt      string
		updatedAt      string
	)
	err := row.Scan(
		&item.ID,
		&item.Account,
		&item.ItemKey,
		&item.SourcePath,
		&item.Title,
		&item.Description,
		&item.Tags,
		&status,
		&scheduledAt,
		&waitlistReason,
		&item.ErrorMessage,
		&postedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown item status %q", status)
	}
	item.Status = parsed
	item.WaitlistReason = waitlistReason.String

	if item.ScheduledAt, err = parseNullableTime(scheduledAt); err != nil {
		return nil, fmt.Errorf("parse scheduled_at: %w", err)
	}
	if item.PostedAt, err = parseNullableTime(postedAt); err != nil {
		return nil, fmt.Errorf("parse posted_at: %w", err)
	}
	if item.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*Item, int, error) {
	var items []*Item
	skipped := 0
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, rows.Err()
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func parseNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || strings.TrimSpace(value.String) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Timestamps are stored in UTC so the lexicographic comparisons in
// DueItem stay consistent with chronological order.
func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
