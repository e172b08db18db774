package store

import (
	"context"
	"sync"

	"github.com/ankittk/hardcheck/pkg/models"
)

// MemoryStore keeps the snapshot in process memory. Used by tests and by --store memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  models.Snapshot
	saves int
}

func NewMemoryStore(initial models.Snapshot) *MemoryStore {
	if initial == nil {
		initial = models.Snapshot{}
	}
	return &MemoryStore{snap: initial.Clone()}
}

func (s *MemoryStore) Load(ctx context.Context) (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }
