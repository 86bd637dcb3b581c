package watchlist

import (
	"fmt"
	"sync"

	"github.com/vxgen/ProductCheck/internal/models"
)

// Store is an ordered, in-memory watchlist. Positions are zero-based
// indexes into the current order; URLs are unique.
type Store interface {
	Add(item models.WatchItem) bool
	List() []models.WatchItem
	Get(pos int) (models.WatchItem, error)
	Update(pos int, upd models.WatchItemUpdate) error
	UpdateByURL(url string, upd models.WatchItemUpdate) error
	RemoveAt(positions ...int) error
	Len() int
}

type memoryStore struct {
	mu    sync.RWMutex
	items []models.WatchItem
}

func NewStore() Store {
	return &memoryStore{}
}

// Add appends the item unless an item with the same URL exists. It
// reports whether the item was added.
func (s *memoryStore) Add(item models.WatchItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.URL == item.URL {
			return false
		}
	}
	s.items = append(s.items, item)
	return true
}

func (s *memoryStore) List() []models.WatchItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WatchItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *memoryStore) Get(pos int) (models.WatchItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pos < 0 || pos >= len(s.items) {
		return models.WatchItem{}, fmt.Errorf("%w: %d", models.ErrInvalidPosition, pos)
	}
	return s.items[pos], nil
}

// Update merges upd into the item at pos in one step, so readers never
// observe a half-applied update.
func (s *memoryStore) Update(pos int, upd models.WatchItemUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos < 0 || pos >= len(s.items) {
		return fmt.Errorf("%w: %d", models.ErrInvalidPosition, pos)
	}
	upd.Apply(&s.items[pos])
	return nil
}

// UpdateByURL merges upd into the item identified by url, wherever it
// sits now.
func (s *memoryStore) UpdateByURL(url string, upd models.WatchItemUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].URL == url {
			upd.Apply(&s.items[i])
			return nil
		}
	}
	return fmt.Errorf("%w: %s", models.ErrNotFound, url)
}

func (s *memoryStore) RemoveAt(positions ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(s.items) {
			return fmt.Errorf("%w: %d", models.ErrInvalidPosition, p)
		}
		drop[p] = struct{}{}
	}

	kept := s.items[:0:0]
	for i, it := range s.items {
		if _, ok := drop[i]; !ok {
			kept = append(kept, it)
		}
	}
	s.items = kept
	return nil
}

func (s *memoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// NormalizePositions validates and dedups positions, keeping the first
// occurrence order. No positions means every position.
func NormalizePositions(positions []int, n int) ([]int, error) {
	if len(positions) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	seen := make(map[int]struct{}, len(positions))
	out := make([]int, 0, len(positions))
	for _, p := range positions {
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: %d", models.ErrInvalidPosition, p)
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
