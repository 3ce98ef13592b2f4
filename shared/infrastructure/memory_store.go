package infrastructure

import (
	"sync"

	"github.com/ftgo/order-system/shared/apperrors"
	"github.com/ftgo/order-system/shared/models"
	"github.com/pkg/errors"
)

// MemoryStore keeps aggregates in process with the same contract as the
// Postgres repositories: callers get copies, inserts refuse duplicates and
// updates are version checked.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	kind    string
	items   map[models.ID]T
	clone   func(T) T
	version func(T) models.Version
}

// NewMemoryStore creates a store for aggregates of the given kind
func NewMemoryStore[T any](kind string, clone func(T) T, version func(T) models.Version) *MemoryStore[T] {
	return &MemoryStore[T]{
		kind:    kind,
		items:   make(map[models.ID]T),
		clone:   clone,
		version: version,
	}
}

// Insert stores a new aggregate
func (s *MemoryStore[T]) Insert(id models.ID, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; ok {
		return errors.Errorf("%s %s already exists", s.kind, id)
	}
	s.items[id] = s.clone(item)
	return nil
}

// Upsert stores the aggregate whether or not it exists
func (s *MemoryStore[T]) Upsert(id models.ID, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = s.clone(item)
}

// Update replaces an aggregate whose stored version is the one item was loaded at
func (s *MemoryStore[T]) Update(id models.ID, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[id]
	if !ok {
		return apperrors.NotFound(s.kind, id.String())
	}
	if s.version(stored).Value != s.version(item).Previous() {
		return errors.Wrapf(apperrors.ErrOptimisticLock, "%s %s", s.kind, id)
	}
	s.items[id] = s.clone(item)
	return nil
}

// Get returns a copy of the aggregate
func (s *MemoryStore[T]) Get(id models.ID) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, apperrors.NotFound(s.kind, id.String())
	}
	return s.clone(item), nil
}

// Len returns the number of stored aggregates
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
