package filter

import (
	"sort"
	"sync"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// MemoryFilter implements Filter using an in-memory set.
type MemoryFilter struct {
	ids map[domain.Identity]struct{}
	mu  sync.RWMutex
}

var _ Filter = (*MemoryFilter)(nil)

// NewMemoryFilter creates a new in-memory filter.
func NewMemoryFilter() *MemoryFilter {
	return &MemoryFilter{
		ids: make(map[domain.Identity]struct{}),
	}
}

// Contains checks if an identity is recorded.
func (f *MemoryFilter) Contains(id domain.Identity) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.ids[id]
	return exists
}

// Add records an identity.
func (f *MemoryFilter) Add(id domain.Identity) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.ids[id]; exists {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

// AddBatch records multiple identities.
func (f *MemoryFilter) AddBatch(ids []domain.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
}

// Remove forgets an identity.
func (f *MemoryFilter) Remove(id domain.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

// Size returns the number of recorded identities.
func (f *MemoryFilter) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Identities returns all recorded identities in sorted order.
func (f *MemoryFilter) Identities() []domain.Identity {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]domain.Identity, 0, len(f.ids))
	for id := range f.ids {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
