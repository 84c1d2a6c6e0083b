package memory

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Store holds learning memory items, newest first.
type Store struct {
	mu    sync.Mutex
	items []Item
}

// NewStore creates a store holding items in the given order.
func NewStore(items ...Item) *Store {
	return &Store{items: slices.Clone(items)}
}

// Insert validates item and prepends it.
func (s *Store) Insert(item Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Insert(s.items, 0, item)
	return nil
}

// Retrieve returns up to min(limit, MaxRetrieve) items matching topic, ranked by
// success rate descending. A limit <= 0 means MaxRetrieve.
func (s *Store) Retrieve(topic string, limit int) []Item {
	if limit <= 0 || limit > MaxRetrieve {
		limit = MaxRetrieve
	}

	s.mu.Lock()
	matched := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if item.Matches(topic) {
			matched = append(matched, item)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(matched, func(a, b Item) int {
		return cmp.Compare(b.SuccessRate, a.SuccessRate)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Items returns a copy of all items in store order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
