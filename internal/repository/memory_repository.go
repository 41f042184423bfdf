package repository

import (
	"context"
	"sync"
	"time"

	"github.com/stwalsh4118/donations/api/internal/models"
)

type memoryEntry struct {
	records []models.RawRecord
	updated time.Time
}

// memoryRepository keeps datasets for the lifetime of the process only.
type memoryRepository struct {
	mu      sync.RWMutex
	entries map[models.Year]memoryEntry
}

// NewMemoryRepository creates an empty in-process DatasetRepository.
func NewMemoryRepository() DatasetRepository {
	return &memoryRepository{entries: make(map[models.Year]memoryEntry)}
}

func (r *memoryRepository) Save(_ context.Context, year models.Year, records []models.RawRecord) error {
	stored := make([]models.RawRecord, len(records))
	copy(stored, records)

	r.mu.Lock()
	r.entries[year] = memoryEntry{records: stored, updated: time.Now().UTC()}
	r.mu.Unlock()
	return nil
}

func (r *memoryRepository) Load(_ context.Context, year models.Year) ([]models.RawRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[year]
	if !ok {
		return nil, nil
	}
	out := make([]models.RawRecord, len(entry.records))
	copy(out, entry.records)
	return out, nil
}

func (r *memoryRepository) HasData(_ context.Context, year models.Year) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[year]
	return ok, nil
}

func (r *memoryRepository) LastUpdated(_ context.Context, year models.Year) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[year]
	if !ok {
		return nil, nil
	}
	updated := entry.updated
	return &updated, nil
}

func (r *memoryRepository) Clear(context.Context) error {
	r.mu.Lock()
	r.entries = make(map[models.Year]memoryEntry)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepository) Ping(context.Context) error { return nil }

func (r *memoryRepository) Close() error { return nil }
