package cache

import (
	"sort"
	"sync"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// MaxCacheSize is the default capacity of the result cache.
const MaxCacheSize = 500

// Entry is one cached rating.
type Entry struct {
	Identity domain.Identity `json:"identity"`
	Rating   int             `json:"rating"`
}

// EvictFunc is called, outside the lock, for every evicted entry.
type EvictFunc func(Entry)

// Priority is a fixed-capacity rating store that evicts the lowest rating
// first. It keeps an identity index and a slice sorted ascending by rating;
// both are updated under one lock so they never disagree.
type Priority struct {
	mu       sync.RWMutex
	capacity int
	index    map[domain.Identity]int
	ordered  []Entry
	onEvict  EvictFunc
}

// NewPriority creates a cache. A non-positive capacity uses MaxCacheSize.
func NewPriority(capacity int, onEvict EvictFunc) *Priority {
	if capacity <= 0 {
		capacity = MaxCacheSize
	}
	return &Priority{
		capacity: capacity,
		index:    make(map[domain.Identity]int, capacity),
		ordered:  make([]Entry, 0, capacity),
		onEvict:  onEvict,
	}
}

// lowerBound returns the first index whose rating is >= rating.
func lowerBound(arr []Entry, rating int) int {
	left, right := 0, len(arr)
	for left < right {
		mid := (left + right) / 2
		if arr[mid].Rating < rating {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}

// insertionPoint returns the slot after every entry rated <= rating, so
// equal ratings stay in insertion order and index 0 is always the oldest
// of the lowest rated entries.
func insertionPoint(arr []Entry, rating int) int {
	return lowerBound(arr, rating+1)
}

// Insert stores rating for id. An identity that is already cached is left
// untouched and Insert returns false. When the cache is full the lowest
// rated entry is evicted first, even if the new rating is lower still.
func (c *Priority) Insert(id domain.Identity, rating int) bool {
	c.mu.Lock()
	if _, ok := c.index[id]; ok {
		c.mu.Unlock()
		return false
	}

	var evicted *Entry
	if len(c.ordered) >= c.capacity {
		lowest := c.ordered[0]
		c.ordered = c.ordered[1:]
		delete(c.index, lowest.Identity)
		evicted = &lowest
	}

	pos := insertionPoint(c.ordered, rating)
	c.ordered = append(c.ordered, Entry{})
	copy(c.ordered[pos+1:], c.ordered[pos:])
	c.ordered[pos] = Entry{Identity: id, Rating: rating}
	c.index[id] = rating
	c.mu.Unlock()

	if evicted != nil && c.onEvict != nil {
		c.onEvict(*evicted)
	}
	return true
}

// Get returns the cached rating for id.
func (c *Priority) Get(id domain.Identity) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.index[id]
	return r, ok
}

// Len returns the number of cached entries.
func (c *Priority) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ordered)
}

// Capacity returns the fixed capacity.
func (c *Priority) Capacity() int {
	return c.capacity
}

// Entries returns a copy of the entries in ascending rating order.
func (c *Priority) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Stats reduces the current contents to count and average of valid ratings.
func (c *Priority) Stats() domain.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var count, sum int
	for _, rating := range c.index {
		if domain.ValidRating(rating) {
			count++
			sum += rating
		}
	}
	if count == 0 {
		return domain.Stats{}
	}
	return domain.Stats{Count: count, Average: float64(sum) / float64(count)}
}

// Select returns identities with rating >= minRating, highest rating first.
// Equal ratings keep insertion order.
func (c *Priority) Select(minRating int) []domain.Identity {
	c.mu.RLock()
	start := lowerBound(c.ordered, minRating)
	matched := make([]Entry, len(c.ordered)-start)
	copy(matched, c.ordered[start:])
	c.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Rating > matched[j].Rating
	})
	out := make([]domain.Identity, len(matched))
	for i, e := range matched {
		out[i] = e.Identity
	}
	return out
}
