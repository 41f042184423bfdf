package services

import (
	"sync"

	"github.com/stwalsh4118/donations/api/internal/models"
)

// statusBoard tracks the load status of every configured year. Changes
// follow models.LoadStatus.CanTransition. The generation advances on every
// reset so a load can tell whether storage was cleared since it began.
type statusBoard struct {
	mu         sync.Mutex
	years      []models.Year
	statuses   map[models.Year]models.YearStatus
	generation uint64
}

func newStatusBoard(years []models.Year) *statusBoard {
	b := &statusBoard{
		years:    append([]models.Year(nil), years...),
		statuses: make(map[models.Year]models.YearStatus, len(years)),
	}
	for _, y := range years {
		b.statuses[y] = models.YearStatus{Year: y, Status: models.StatusUnloaded}
	}
	return b
}

func (b *statusBoard) get(year models.Year) (models.YearStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.statuses[year]
	return st, ok
}

// all returns every year's status in configured order.
func (b *statusBoard) all() []models.YearStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.YearStatus, 0, len(b.years))
	for _, y := range b.years {
		out = append(out, b.statuses[y])
	}
	return out
}

// begin moves year to loading and returns the status it left together with
// the current generation. It fails when the year is already loading.
func (b *statusBoard) begin(year models.Year) (models.YearStatus, uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.statuses[year]
	if !prev.Status.CanTransition(models.StatusLoading) {
		return prev, b.generation, false
	}
	st := prev
	st.Status = models.StatusLoading
	st.Error = ""
	b.statuses[year] = st
	return prev, b.generation, true
}

// current reports whether no reset happened since generation gen.
func (b *statusBoard) current(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation == gen
}

// finish applies update to a loading year and runs commit under the board
// lock. If the year stopped loading in the meantime (storage was cleared)
// nothing happens and false is returned.
func (b *statusBoard) finish(year models.Year, update func(*models.YearStatus), commit func()) (models.YearStatus, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.statuses[year]
	if st.Status != models.StatusLoading {
		return st, false
	}
	update(&st)
	if !models.StatusLoading.CanTransition(st.Status) {
		return b.statuses[year], false
	}
	if commit != nil {
		commit()
	}
	b.statuses[year] = st
	return st, true
}

// reset returns every year to unloaded and runs commit under the board lock.
func (b *statusBoard) reset(commit func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if commit != nil {
		commit()
	}
	b.generation++
	for _, y := range b.years {
		b.statuses[y] = models.YearStatus{Year: y, Status: models.StatusUnloaded}
	}
}
