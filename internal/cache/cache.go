package cache

import (
	"container/list"
	"sync"
	"time"

	"codeberg.org/snonux/screentrans/internal/ocr"
	"codeberg.org/snonux/screentrans/internal/translation"
)

// Key identifies a cached result
type Key struct {
	Fingerprint string
	Language    string
}

// Entry is a cached recognition result with an optional translation
type Entry struct {
	Recognition *ocr.Result
	Translation *translation.Result
	InsertedAt  time.Time
	LastAccess  time.Time
}

// Complete reports whether both results are present
func (e Entry) Complete() bool {
	return e.Recognition != nil && e.Translation != nil
}

// Stats are cumulative cache counters
type Stats struct {
	Hits        int
	Misses      int
	Evictions   int
	Expirations int
	Entries     int
}

type item struct {
	key   Key
	entry Entry
}

// ResultCache is an LRU cache with a TTL. All methods are safe for
// concurrent use.
type ResultCache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List // front is most recently used
	items      map[Key]*list.Element
	stats      Stats

	now func() time.Time
}

// New creates a cache holding at most maxEntries entries for at most ttl
func New(maxEntries int, ttl time.Duration) *ResultCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ResultCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		order:      list.New(),
		items:      make(map[Key]*list.Element),
		now:        time.Now,
	}
}

// Get returns a copy of the entry for key. A hit refreshes the entry's
// last-access time and LRU position; a miss changes nothing but counters.
func (c *ResultCache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.purgeExpired(now)

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return Entry{}, false
	}

	it := el.Value.(*item)
	it.entry.LastAccess = now
	c.order.MoveToFront(el)
	c.stats.Hits++
	return it.entry, true
}

// Put stores entry under key, replacing any previous entry. InsertedAt
// and LastAccess are set to the current time.
func (c *ResultCache) Put(key Key, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.purgeExpired(now)

	entry.InsertedAt = now
	entry.LastAccess = now

	if el, ok := c.items[key]; ok {
		el.Value.(*item).entry = entry
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&item{key: key, entry: entry})
	c.evict()
}

// SetLimits changes the bounds and applies them immediately
func (c *ResultCache) SetLimits(maxEntries int, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if maxEntries < 1 {
		maxEntries = 1
	}
	c.maxEntries = maxEntries
	c.ttl = ttl
	c.purgeExpired(c.now())
	c.evict()
}

// Len returns the number of entries, including ones not yet purged
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the counters
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.order.Len()
	return s
}

// Purge removes every entry
func (c *ResultCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[Key]*list.Element)
}

// evict drops least recently used entries until within maxEntries.
// Callers hold c.mu.
func (c *ResultCache) evict() {
	for c.order.Len() > c.maxEntries {
		el := c.order.Back()
		c.remove(el)
		c.stats.Evictions++
	}
}

// purgeExpired drops entries inserted more than ttl ago. Callers hold c.mu.
func (c *ResultCache) purgeExpired(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.Sub(el.Value.(*item).entry.InsertedAt) >= c.ttl {
			c.remove(el)
			c.stats.Expirations++
		}
		el = prev
	}
}

func (c *ResultCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*item).key)
}
