// Package cache holds short-lived in-process lookups, such as the identity a
// bearer token resolved to, so authenticated requests skip a database read.
package cache

import "time"

// Cache is a key-value store whose entries expire after a TTL.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)

	// Set stores the value. A ttl <= 0 falls back to the cache default.
	Set(key K, value V, ttl time.Duration)

	Delete(key K)

	// Len returns the number of non-expired entries.
	Len() int

	PurgeExpired()
}
