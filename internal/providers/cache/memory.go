package cache

import (
	"context"
	"sync"

	"github.com/sylphlab/mediadedup/internal/models"
)

// MemoryStore is an in-process pipeline.Cache, used by one-shot CLI scans
// that have no Postgres connection configured. It caches only within the
// lifetime of a single process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[models.CacheKey]models.FileInfo
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[models.CacheKey]models.FileInfo)}
}

func (m *MemoryStore) Get(ctx context.Context, key models.CacheKey) (models.FileInfo, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.data[key]
	return info, ok, nil
}

func (m *MemoryStore) Put(ctx context.Context, key models.CacheKey, info models.FileInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = info
	return nil
}
