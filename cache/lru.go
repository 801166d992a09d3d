package cache

import (
	"sync"
	"time"

	"github.com/riverhook/hookd/cmn/debug"
	"github.com/riverhook/hookd/descriptor"
)

// entry is one cached response (§3 CacheEntry).
type entry struct {
	key       string
	desc      *descriptor.Descriptor
	size      int64
	expiresAt time.Time
}

// ResponseCache is a size-bounded, TTL-aware LRU keyed by cache key
// (§4.3). All mutations — get-with-side-effects, put, eviction — are
// serialized under a single mutex (§5 "shared-resource policy": ResponseCache
// is read on every GET/HEAD and mutated by response rendering).
type ResponseCache struct {
	mu        sync.Mutex
	sizeLimit int64
	totalSize int64
	index     map[string]*node[*entry]
	list      *List[*entry]

	hits, misses, evictions int64
}

// New returns a cache bounded to sizeLimit bytes. sizeLimit <= 0 disables
// the byte-size bound (entries are then only evicted by TTL-on-lookup).
func New(sizeLimit int64) *ResponseCache {
	return &ResponseCache{
		sizeLimit: sizeLimit,
		index:     make(map[string]*node[*entry]),
		list:      NewList[*entry](),
	}
}

// Get looks up key. A live hit moves the entry to MRU and returns its
// descriptor. An expired entry is evicted as part of the lookup and
// reported as a miss (§3 CacheEntry invariant iii, §8 boundary scenario 2).
func (c *ResponseCache) Get(key string, now time.Time) (*descriptor.Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nd, ok := c.index[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := c.list.Value(nd)
	if now.After(e.expiresAt) {
		c.removeLocked(key, nd)
		c.misses++
		return nil, false
	}
	c.list.MoveToFront(nd)
	c.hits++
	return e.desc, true
}

// Put inserts or refreshes key (§4.3 "put"). If key is already present the
// descriptor, size, and expiry are updated in place and totalSize is
// adjusted by the size delta; otherwise a new entry is linked at MRU.
// Eviction then proceeds from the LRU tail, ignoring expiry, until
// totalSize is within sizeLimit (or sizeLimit <= 0, in which case eviction
// never runs on size alone).
func (c *ResponseCache) Put(key string, desc *descriptor.Descriptor, size int64, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if nd, ok := c.index[key]; ok {
		e := c.list.Value(nd)
		c.totalSize += size - e.size
		e.desc, e.size, e.expiresAt = desc, size, expiresAt
		c.list.MoveToFront(nd)
	} else {
		e := &entry{key: key, desc: desc, size: size, expiresAt: expiresAt}
		nd := c.list.PushFront(e)
		c.index[key] = nd
		c.totalSize += size
	}

	for c.sizeLimit > 0 && c.totalSize > c.sizeLimit {
		tail := c.list.Back()
		if tail == nil {
			break
		}
		c.removeLocked(c.list.Value(tail).key, tail)
		c.evictions++
	}
	debug.Assert(c.totalSize >= 0, "cache totalSize went negative")
	debug.Assert(len(c.index) == c.list.Len(), "cache index/list length mismatch")
}

// removeLocked unlinks and de-indexes an entry. Caller holds c.mu.
func (c *ResponseCache) removeLocked(key string, nd *node[*entry]) {
	e := c.list.Value(nd)
	c.totalSize -= e.size
	c.list.Remove(nd)
	delete(c.index, key)
}

// Stats is a point-in-time snapshot for metrics export.
type Stats struct {
	Entries   int
	TotalSize int64
	Hits      int64
	Misses    int64
	Evictions int64
}

func (c *ResponseCache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   c.list.Len(),
		TotalSize: c.totalSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
