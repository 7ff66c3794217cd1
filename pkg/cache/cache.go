// Package cache stores routed diagrams and rendered artifacts.
//
// Routing a large diagram is deterministic for a given input and router
// configuration, so results are cached by content hash. Backends:
//   - [FileCache]: one file per entry, for the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]. Route keys hash the diagram and the router
// options; artifact keys hash the routed diagram and the output format, so
// an artifact is reused whenever the routing it was drawn from is the same.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}
