package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps pathways in process memory. It exists for tests and
// for running the API without a database; contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	pathways map[string]*Pathway
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pathways: make(map[string]*Pathway)}
}

// Save persists a pathway in memory.
func (s *MemoryStore) Save(ctx context.Context, p *Pathway) error {
	prepare(p)
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *p
	s.pathways[p.ID] = &stored
	return nil
}

// Get retrieves a pathway by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Pathway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pathways[id]
	if !ok {
		return nil, notFound(id)
	}
	copied := *p
	return &copied, nil
}

// List returns pathways, newest first, optionally filtered by EOI.
func (s *MemoryStore) List(ctx context.Context, eoi string, limit int) ([]*Pathway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Pathway
	for _, p := range s.pathways {
		if eoi != "" && p.EOI != eoi {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a pathway by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pathways[id]; !ok {
		return notFound(id)
	}
	delete(s.pathways, id)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
