package persistence

import (
	"context"
	"time"
)

// Store is the backing key/value transport for persisted session records.
// Implementing this interface is enough to plug a backend into the
// persistence.Manager, which handles the session ticket details.
//
// Load must return sessions.ErrNotFound for a missing key and wrap
// sessions.ErrBackendUnavailable when the backend cannot be reached.
type Store interface {
	Save(ctx context.Context, key string, value []byte, exp time.Duration) error
	Load(ctx context.Context, key string) ([]byte, error)
	Clear(ctx context.Context, key string) error
	VerifyConnection(ctx context.Context) error
}
