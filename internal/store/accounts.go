package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Account is a publishing destination with its own posting loop.
type Account struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
}

// UpsertAccount registers an account or updates its active flag.
func (s *Store) UpsertAccount(ctx context.Context, name string, active bool) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("account name is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO accounts (name, active, created_at) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET active = excluded.active`,
		name,
		boolToInt(active),
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return s.GetAccount(ctx, name)
}

// GetAccount fetches an account by name.
func (s *Store) GetAccount(ctx context.Context, name string) (*Account, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT id, name, active, created_at FROM accounts WHERE name = ?`,
		name,
	)
	var (
		account   Account
		active    int
		createdAt string
	)
	if err := row.Scan(&account.ID, &account.Name, &active, &createdAt); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	account.Active = active != 0
	parsed, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse account created_at: %w", err)
	}
	account.CreatedAt = parsed
	return &account, nil
}

// ListAccounts returns all accounts ordered by name. When activeOnly is set,
// inactive accounts are excluded.
func (s *Store) ListAccounts(ctx context.Context, activeOnly bool) ([]*Account, error) {
	query := `SELECT id, name, active, created_at FROM accounts`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ensureContext(ctx), query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		var (
			account   Account
			active    int
			createdAt string
		)
		if err := rows.Scan(&account.ID, &account.Name, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		account.Active = active != 0
		parsed, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse account created_at: %w", err)
		}
		account.CreatedAt = parsed
		accounts = append(accounts, &account)
	}
	return accounts, rows.Err()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
