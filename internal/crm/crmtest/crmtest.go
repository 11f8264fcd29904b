// Package crmtest provides an in-memory crm.GormStore for tests.
package crmtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/isometry/calendly-webhook/internal/crm"
)

// NewStore opens a migrated sqlite store private to t and closes it on cleanup.
func NewStore(t testing.TB) *crm.GormStore {
	t.Helper()
	store, err := crm.Open(crm.Config{
		Driver:      "sqlite",
		DSN:         "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
