package ports

import (
	"context"
	"errors"
	"time"
)

// ErrStateNotFound is returned by StateStore.Get and Consume when no live entry exists for a key.
var ErrStateNotFound = errors.New("oauth state not found")

// StateStore keeps the authorization nonce between initiation and callback.
// Implementations must honor the TTL and treat Delete of a missing key as success.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Consume returns the value and removes it in one step. A value is
	// returned at most once; on error it must not be returned later.
	Consume(ctx context.Context, key string) (string, error)
}
