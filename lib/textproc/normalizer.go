package textproc

import (
	cache "github.com/go-pkgz/expirable-cache/v3"
)

// DefaultCacheSize is the default number of normalized messages kept in cache
const DefaultCacheSize = 1000

// Normalizer normalizes messages with results cached in a bounded LRU cache.
// Thread-safe. Cached values never get stale as Normalize is a pure function.
type Normalizer struct {
	cache cache.Cache[string, string]
}

// NewNormalizer makes a Normalizer with cache of given size, size <= 0 disables caching
func NewNormalizer(size int) *Normalizer {
	if size <= 0 {
		return &Normalizer{}
	}
	return &Normalizer{cache: cache.NewCache[string, string]().WithMaxKeys(size).WithLRU()}
}

// Normalize returns normalized text, from cache if available
func (n *Normalizer) Normalize(text string) string {
	if n == nil || n.cache == nil {
		return Normalize(text)
	}
	if res, ok := n.cache.Get(text); ok {
		return res
	}
	res := Normalize(text)
	n.cache.Set(text, res, 0)
	return res
}

// Stat returns cache statistics, zero value if caching disabled
func (n *Normalizer) Stat() cache.Stats {
	if n == nil || n.cache == nil {
		return cache.Stats{}
	}
	return n.cache.Stat()
}
