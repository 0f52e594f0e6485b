package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"avatar-video-api/domain"
	"context"
	"sync"
	"time"
)

type memoryProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.ProgressRecord
	now     func() time.Time
}

func NewMemoryProgressStore() outbound.ProgressStorePort {
	return &memoryProgressStore{
		records: make(map[string]domain.ProgressRecord),
		now:     time.Now,
	}
}

func (m *memoryProgressStore) Initialize(ctx context.Context, jobID string, seed domain.ProgressRecord) (domain.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[jobID]; ok {
		return existing, nil
	}
	seed.JobID = jobID
	m.records[jobID] = seed
	return seed, nil
}

func (m *memoryProgressStore) Merge(ctx context.Context, jobID string, patch domain.ProgressPatch) (domain.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	merged := m.records[jobID].Merge(jobID, patch, m.now())
	m.records[jobID] = merged
	return merged, nil
}

func (m *memoryProgressStore) Read(ctx context.Context, jobID string) (domain.ProgressRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[jobID]
	if !ok {
		return domain.ProgressRecord{}, domain.ErrNotFound
	}
	return record, nil
}
