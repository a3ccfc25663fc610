package store

import (
	"context"
	"sort"
	"sync"
)

// ProductStore is the key-value contract the CRUD layer runs on.
type ProductStore interface {
	Get(ctx context.Context, id string) (Product, error)
	Put(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
	Scan(ctx context.Context) ([]Product, error)
}

// MemoryProductStore keeps the catalog in process memory.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[string]Product)}
}

func (s *MemoryProductStore) Get(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryProductStore) Put(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *MemoryProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

func (s *MemoryProductStore) Scan(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
