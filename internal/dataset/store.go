package dataset

import (
	"sync"

	"github.com/google/uuid"

	apperrors "ecomlytics/internal/errors"
	"ecomlytics/pkg/contracts/domain"
)

// Store holds the raw record sets for the current analysis run. Each reload
// gets a fresh version identifier so memoized results keyed by the previous
// version go stale automatically.
type Store struct {
	mu      sync.RWMutex
	raw     domain.RawSets
	version string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in newly loaded raw sets and returns the new version
func (s *Store) Replace(raw domain.RawSets) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = raw
	s.version = uuid.NewString()
	return s.version
}

// Snapshot returns the current raw sets and their version. The sets are
// treated as immutable for the run's duration; callers must not mutate them.
func (s *Store) Snapshot() (domain.RawSets, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.version == "" {
		return domain.RawSets{}, "", apperrors.NewNotFoundError("raw dataset")
	}
	return s.raw, s.version, nil
}

// Version returns the current version, or the empty string before any load
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
