package analytics

import "github.com/stwalsh4118/donations/api/internal/models"

// YearTotals is an entity's summed disclosure for one year.
type YearTotals struct {
	Amount     float64 `json:"amount"`
	DonorCount int     `json:"donor_count"`
}

// Entity is one company merged across every loaded year.
type Entity struct {
	PerYear map[models.Year]YearTotals `json:"per_year"`
	Key     string                     `json:"key"`
	Name    string                     `json:"name"`
	TaxID   string                     `json:"tax_id,omitempty"`
	Address string                     `json:"address,omitempty"`
}

// Year returns the totals for y, zero if y is outside the window.
func (e *Entity) Year(y models.Year) YearTotals {
	return e.PerYear[y]
}

// TotalAmount sums the amount over years.
func (e *Entity) TotalAmount(years []models.Year) float64 {
	var total float64
	for _, y := range years {
		total += e.PerYear[y].Amount
	}
	return total
}

// TotalDonors sums the donor count over years.
func (e *Entity) TotalDonors(years []models.Year) int {
	var total int
	for _, y := range years {
		total += e.PerYear[y].DonorCount
	}
	return total
}

func (e *Entity) add(y models.Year, r models.RawRecord) {
	t := e.PerYear[y]
	t.Amount += r.Amount
	t.DonorCount += r.DonorCount
	e.PerYear[y] = t

	if e.TaxID == "" {
		e.TaxID = r.TaxID
	}
	if e.Address == "" {
		e.Address = r.Address
	}
}

// EntityTable is the output of Aggregate. Entities are kept in first-seen
// order so every downstream pass is deterministic.
type EntityTable struct {
	byKey map[string]*Entity

	// Years is the analysed window, ascending.
	Years []models.Year
	// Present lists the window years that had a dataset, ascending.
	Present []models.Year

	order []string
}

func newEntityTable(years []models.Year) *EntityTable {
	return &EntityTable{
		byKey:   make(map[string]*Entity),
		Years:   years,
		Present: []models.Year{},
		order:   []string{},
	}
}

func (t *EntityTable) entity(key string, r models.RawRecord) *Entity {
	if e, ok := t.byKey[key]; ok {
		return e
	}

	e := &Entity{
		PerYear: make(map[models.Year]YearTotals, len(t.Years)),
		Key:     key,
		Name:    r.Name,
	}
	for _, y := range t.Years {
		e.PerYear[y] = YearTotals{}
	}
	t.byKey[key] = e
	t.order = append(t.order, key)
	return e
}

// Len returns the number of entities.
func (t *EntityTable) Len() int {
	return len(t.order)
}

// Get returns the entity stored under key.
func (t *EntityTable) Get(key string) (*Entity, bool) {
	e, ok := t.byKey[key]
	return e, ok
}

// Entities returns every entity in first-seen order.
func (t *EntityTable) Entities() []*Entity {
	out := make([]*Entity, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k])
	}
	return out
}

// HasYear reports whether y had a dataset in the aggregated input.
func (t *EntityTable) HasYear(y models.Year) bool {
	for _, p := range t.Present {
		if p == y {
			return true
		}
	}
	return false
}

// HasAllYears reports whether every window year had a dataset.
func (t *EntityTable) HasAllYears() bool {
	return len(t.Present) == len(t.Years)
}
