// Package cache memoizes derived values for a single owner. Entries expire
// after a TTL and the least recently used entry is evicted once the cache is
// full.
package cache

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry. Owners call it when the data the entries were
	// derived from has changed.
	Purge()
	Size() int
}

var _ Cache[int] = (*LRUCache[int])(nil)
