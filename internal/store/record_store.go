// Package store holds the datasets loaded into the running process.
package store

import (
	"slices"
	"sync"

	"github.com/stwalsh4118/donations/api/internal/models"
)

// RecordStore maps a year to its raw records. A year's slice is replaced as
// a whole, so readers never see a partially loaded year.
type RecordStore struct {
	mu    sync.RWMutex
	years map[models.Year][]models.RawRecord
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{years: make(map[models.Year][]models.RawRecord)}
}

// Put stores records for year, replacing anything loaded before.
func (s *RecordStore) Put(year models.Year, records []models.RawRecord) {
	if records == nil {
		records = []models.RawRecord{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.years[year] = records
}

// Get returns the records of year. The slice must not be modified.
func (s *RecordStore) Get(year models.Year) ([]models.RawRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.years[year]
	return records, ok
}

// Has reports whether year is loaded.
func (s *RecordStore) Has(year models.Year) bool {
	_, ok := s.Get(year)
	return ok
}

// Years returns the loaded years, ascending.
func (s *RecordStore) Years() []models.Year {
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := make([]models.Year, 0, len(s.years))
	for y := range s.years {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

// Snapshot returns a copy of the year map. The record slices themselves are
// shared and must be treated as read-only.
func (s *RecordStore) Snapshot() map[models.Year][]models.RawRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Year][]models.RawRecord, len(s.years))
	for y, records := range s.years {
		out[y] = records
	}
	return out
}

// Delete removes year.
func (s *RecordStore) Delete(year models.Year) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.years, year)
}

// Clear removes every year.
func (s *RecordStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.years = make(map[models.Year][]models.RawRecord)
}
