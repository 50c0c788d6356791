package intervention

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory intervention ledger for demo/development mode.
// Entries are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryStore creates a new in-memory intervention store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make([]*Entry, 0)}
}

func (m *MemoryStore) Record(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Entry, len(m.entries))
	for i, e := range m.entries {
		cp := *e
		result[i] = &cp
	}
	return result, nil
}
