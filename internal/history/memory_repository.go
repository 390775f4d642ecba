package history

import (
	"context"
	"sync"
)

// DefaultCapacity keeps one day of five-minute cycles.
const DefaultCapacity = 288

// InMemoryRepository keeps the most recent entries in a fixed-size ring.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewInMemoryRepository creates a repository holding at most capacity entries.
// A non-positive capacity uses DefaultCapacity.
func NewInMemoryRepository(capacity int) *InMemoryRepository {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &InMemoryRepository{
		entries: make([]Entry, capacity),
	}
}

// Append records an entry, evicting the oldest one when full.
func (r *InMemoryRepository) Append(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// List returns up to limit entries, newest first.
func (r *InMemoryRepository) List(_ context.Context, limit int) ([]Entry, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.full {
		size = len(r.entries)
	}
	if limit > size {
		limit = size
	}

	result := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.entries)) % len(r.entries)
		result = append(result, r.entries[idx])
	}
	return result, nil
}

// Len returns the number of stored entries.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}
