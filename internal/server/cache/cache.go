// Package cache provides an optional read cache for profile lookups.
// Revocation state is never cached; only derived, re-fetchable data goes
// through here.
package cache

import (
	"context"
	"time"
)

// Cache is a minimal string cache. A miss is reported as ("", nil) so
// callers can fall through to the database without error handling.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
