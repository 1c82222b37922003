package testutil

import (
	"testing"

	"github.com/nhle/storefront/internal/store"
)

// NewTestDeviceStore creates an in-memory DeviceStore with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestDeviceStore(t *testing.T) *store.DeviceStore {
	t.Helper()

	s, err := store.NewDeviceStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
