package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a key that was never set or was removed.
var ErrNotFound = errors.New("store: key not found")

// Well-known device keys.
const (
	KeyUserID             = "userId"
	KeyUserName           = "userName"
	KeyUserEmail          = "userEmail"
	KeyNotificationFilter = "notificationFilter"
)

// KV is simple persistent device storage: get, set and remove by key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}
