// Package cache provides the bounded keyed stores used for request memoization.
package cache

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache, overwriting any previous entry
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// DeleteFunc removes every key for which match returns true and
	// returns the number of removed entries
	DeleteFunc(match func(key string) bool) int

	// CleanExpired drops entries past their TTL and returns how many were removed
	CleanExpired() int

	// Size returns the current number of items in the cache
	Size() int
}
