// Package registry reports which accounts should currently have a running
// posting loop. The daemon reconciles its workers against this set each poll.
package registry

import (
	"context"
	"fmt"

	"clipcast/internal/store"
)

// Registry lists the accounts that are currently active. A failure is treated
// by the daemon as "no active accounts for this poll", never as fatal.
type Registry interface {
	ListActiveAccounts(ctx context.Context) ([]string, error)
}

// StoreRegistry backs the registry with the accounts table.
type StoreRegistry struct {
	store *store.Store
}

// NewStoreRegistry wraps the metadata store as a registry.
func NewStoreRegistry(st *store.Store) *StoreRegistry {
	return &StoreRegistry{store: st}
}

// ListActiveAccounts implements Registry.
func (r *StoreRegistry) ListActiveAccounts(ctx context.Context) ([]string, error) {
	accounts, err := r.store.ListAccounts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	names := make([]string, 0, len(accounts))
	for _, account := range accounts {
		names = append(names, account.Name)
	}
	return names, nil
}
