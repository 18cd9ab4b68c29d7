// Package cache implements the fetch cache (C4): a bounded store mapping
// (matcher, time window) to rendered bytes, with LRU eviction and a
// freshness gate that refuses to store windows that may still be
// backfilled by the remote service.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/asimihsan/cwl-mount/internal/clock"
	"github.com/asimihsan/cwl-mount/internal/matcher"
	"github.com/asimihsan/cwl-mount/internal/tree"
)

// Capacity is one hour of minute-granular entries per unique matcher.
const Capacity = 60

// FreshnessWindow is how recently a window's end must have passed before
// its contents are considered stable enough to cache; a more recent
// window may still be backfilled by the remote service.
const FreshnessWindow = 5 * time.Minute

// Key identifies one cached render: a matcher plus the exact time window it
// was rendered over. Keys compare by value: two keys are equal iff both
// the matcher's source pattern/kind and the bounds are equal.
//
// Matcher is a matcher.CacheKey, not a matcher.Matcher — a Matcher embeds
// a *regexp.Regexp, and Go struct/map equality compares that pointer too,
// so two independently-compiled matchers over the same pattern would
// never compare equal as a map key. matcher.CacheKey strips that down to
// the plain comparable (pattern, kind) pair callers actually mean by
// "the same matcher" for caching purposes.
type Key struct {
	Matcher matcher.CacheKey
	Bounds  tree.Bounds
}

// Cache is a bounded, LRU-evicted store of Key -> rendered bytes.
type Cache struct {
	clock clock.Clock
	lru   *lru.Cache[Key, []byte]
}

// New builds a Cache with the given capacity (tests may want a smaller
// capacity than the production default of Capacity).
func New(clk clock.Clock, capacity int) (*Cache, error) {
	l, err := lru.New[Key, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{clock: clk, lru: l}, nil
}

// Get returns the cached bytes for key, if present, moving it to MRU.
func (c *Cache) Get(key Key) ([]byte, bool) {
	return c.lru.Get(key)
}

// Put stores value for key iff the key is insertable per the freshness
// gate: now - bounds.End > 5 minutes. A non-insertable put is silently a
// no-op; callers still return the freshly rendered bytes to their
// caller, they simply aren't cached.
func (c *Cache) Put(key Key, value []byte) {
	if !c.Insertable(key) {
		return
	}
	c.lru.Add(key, value)
}

// Insertable reports whether key's window has aged past the freshness
// gate and is therefore safe to cache.
func (c *Cache) Insertable(key Key) bool {
	return c.clock.Now().Sub(key.Bounds.End) > FreshnessWindow
}
