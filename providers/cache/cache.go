// Package cache defines the key/value store contract used for triage
// verdicts and other short-lived gateway state. Implementations live in
// subpackages: inmemory for tests and single-process deployments,
// sqlitecache for persistence across restarts.
//
// Callers must treat every failure as a miss: a broken cache degrades
// latency, never correctness.
package cache

import (
	"context"
	"time"
)

// Store is a TTL-aware key/value store.
type Store interface {
	// Get returns the value for key and whether it was present. Expired
	// entries count as absent. The error reports storage failures only;
	// a miss is (_, false, nil).
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores value under key for the given TTL. A non-positive TTL
	// stores the entry without expiry.
	Put(ctx context.Context, key string, value string, ttl time.Duration) error
}
