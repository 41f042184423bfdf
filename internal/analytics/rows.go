package analytics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/stwalsh4118/donations/api/internal/models"
)

// YearAmount is one year's summed amount.
type YearAmount struct {
	Year   models.Year `json:"year"`
	Amount float64     `json:"amount"`
}

// YearAmountCount is one year's summed amount and donor count.
type YearAmountCount struct {
	Year       models.Year `json:"year"`
	Amount     float64     `json:"amount"`
	DonorCount int         `json:"donor_count"`
}

// YearChange is the change between two consecutive window years.
type YearChange struct {
	From   models.Year `json:"from"`
	To     models.Year `json:"to"`
	Change float64     `json:"change"`
}

// EntityYearsRow is a per-year amount/count listing with window totals,
// shared by the flagged and small-donor views.
type EntityYearsRow struct {
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	TaxID       string            `json:"tax_id,omitempty"`
	Years       []YearAmountCount `json:"years"`
	TotalAmount float64           `json:"total_amount"`
	TotalDonors int               `json:"total_donors"`
}

// Tuple returns name, then amount and count per year, then the total.
func (r EntityYearsRow) Tuple() []any {
	out := make([]any, 0, 2+2*len(r.Years))
	out = append(out, r.Name)
	for _, y := range r.Years {
		out = append(out, y.Amount, y.DonorCount)
	}
	return append(out, r.TotalAmount)
}

func newEntityYearsRow(e *Entity, years []models.Year) EntityYearsRow {
	row := EntityYearsRow{
		Key:         e.Key,
		Name:        e.Name,
		TaxID:       e.TaxID,
		Years:       yearAmountCounts(e, years),
		TotalAmount: e.TotalAmount(years),
		TotalDonors: e.TotalDonors(years),
	}
	return row
}

func yearAmountCounts(e *Entity, years []models.Year) []YearAmountCount {
	out := make([]YearAmountCount, 0, len(years))
	for _, y := range years {
		t := e.Year(y)
		out = append(out, YearAmountCount{Year: y, Amount: t.Amount, DonorCount: t.DonorCount})
	}
	return out
}

// sortDesc orders rows by value descending, then name and key ascending.
func sortDesc[T any](rows []T, value func(T) float64, name func(T) string, key func(T) string) {
	slices.SortStableFunc(rows, func(a, b T) int {
		if c := cmp.Compare(value(b), value(a)); c != 0 {
			return c
		}
		if c := strings.Compare(name(a), name(b)); c != 0 {
			return c
		}
		return strings.Compare(key(a), key(b))
	})
}
