// Package db defines the key-value store facade backing the service caches.
package db

import (
	"context"
	"time"
)

// Store is the cache store facade. Consumers depend on the narrow
// sub-interfaces; the facade exists for wiring at the composition root.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations. SetWithTTL bounds entry
// lifetime; a driver without native expiry enforces the TTL at read time.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
