package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lprior-repo/orderflow/internal/engine"
)

// MemoryExecutionStore keeps execution snapshots in process memory. Each
// Save stores an independent copy, so later engine mutations never leak
// into a persisted snapshot.
type MemoryExecutionStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemoryExecutionStore() *MemoryExecutionStore {
	return &MemoryExecutionStore{snapshots: make(map[string][]byte)}
}

func (s *MemoryExecutionStore) Save(_ context.Context, exec *engine.Execution) error {
	body, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("marshalling execution %s: %w", exec.ID, err)
	}
	s.mu.Lock()
	s.snapshots[exec.ID] = body
	s.mu.Unlock()
	return nil
}

func (s *MemoryExecutionStore) Get(_ context.Context, executionID string) (*engine.Execution, error) {
	s.mu.RLock()
	body, ok := s.snapshots[executionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var exec engine.Execution
	if err := json.Unmarshal(body, &exec); err != nil {
		return nil, fmt.Errorf("unmarshalling execution %s: %w", executionID, err)
	}
	return &exec, nil
}
