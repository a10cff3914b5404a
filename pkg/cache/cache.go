// Package cache provides byte-level caching with pluggable backends.
//
// # Overview
//
// The [Cache] interface abstracts storage so callers can run against the
// filesystem, Redis, or nothing at all:
//
//   - [FileCache]: directory-backed cache for CLI usage
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: disables caching entirely
//
// Values are opaque byte slices; callers own serialization. Entries carry
// an optional TTL. A TTL of 0 means the entry never expires.
//
// # Keys
//
// Keys can be any string. Use [HTTPKey] to derive collision-safe keys for
// cached HTTP responses:
//
//	key := cache.HTTPKey("index", url)
package cache

import (
	"context"
	"time"
)

// Cache is the interface implemented by all cache backends.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 disables expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
