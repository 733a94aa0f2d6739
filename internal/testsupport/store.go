package testsupport

import (
	"context"
	"testing"

	"clipcast/internal/config"
	"clipcast/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewItem registers a pending item for tests using the provided store.
func NewItem(t testing.TB, st *store.Store, account, sourcePath, title, description string) *store.Item {
	t.Helper()

	item, err := st.NewItem(context.Background(), account, sourcePath, title, description)
	if err != nil {
		t.Fatalf("store.NewItem: %v", err)
	}
	return item
}

// NewAccount registers an account for tests.
func NewAccount(t testing.TB, st *store.Store, name string, active bool) *store.Account {
	t.Helper()

	account, err := st.UpsertAccount(context.Background(), name, active)
	if err != nil {
		t.Fatalf("store.UpsertAccount: %v", err)
	}
	return account
}
