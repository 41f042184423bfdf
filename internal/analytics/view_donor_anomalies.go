package analytics

import "github.com/stwalsh4118/donations/api/internal/models"

// SingleDonorRow is an entity whose latest-year total came from one donor.
type SingleDonorRow struct {
	EntityYearsRow
	LatestAmount float64 `json:"latest_amount"`
}

// Tuple returns name and the amount and count of every year, without a total.
func (r SingleDonorRow) Tuple() []any {
	out := r.EntityYearsRow.Tuple()
	return out[:len(out)-1]
}

// SingleDonor lists entities that had exactly one donor in the latest window
// year and an amount above p.SingleDonorMinAmount, by that amount descending.
// It is empty when the latest year is not loaded.
func SingleDonor(t *EntityTable, p Params) []SingleDonorRow {
	rows := []SingleDonorRow{}
	if len(t.Years) == 0 {
		return rows
	}
	latest := latestYear(t.Years)
	if !t.HasYear(latest) {
		return rows
	}

	for _, e := range t.Entities() {
		yt := e.Year(latest)
		if yt.DonorCount != 1 || yt.Amount <= p.SingleDonorMinAmount {
			continue
		}
		rows = append(rows, SingleDonorRow{
			EntityYearsRow: newEntityYearsRow(e, t.Years),
			LatestAmount:   yt.Amount,
		})
	}

	sortDesc(rows,
		func(r SingleDonorRow) float64 { return r.LatestAmount },
		func(r SingleDonorRow) string { return r.Name },
		func(r SingleDonorRow) string { return r.Key },
	)
	return rows
}

// SmallDonor lists entities that, in any window year, had between one and
// p.SmallDonorMaxCount-1 donors together giving more than
// p.SmallDonorMinAmount. Sorted by window total descending.
//
// This was the first definition of the "special" table, later replaced by
// the tax id allow-list in Flagged. Both are served as separate views.
func SmallDonor(t *EntityTable, p Params) []EntityYearsRow {
	rows := []EntityYearsRow{}
	for _, e := range t.Entities() {
		if !hasSmallDonorYear(e, t.Years, p) {
			continue
		}
		rows = append(rows, newEntityYearsRow(e, t.Years))
	}

	sortDesc(rows,
		func(r EntityYearsRow) float64 { return r.TotalAmount },
		func(r EntityYearsRow) string { return r.Name },
		func(r EntityYearsRow) string { return r.Key },
	)
	return rows
}

func hasSmallDonorYear(e *Entity, years []models.Year, p Params) bool {
	for _, y := range years {
		yt := e.Year(y)
		if yt.DonorCount > 0 && yt.DonorCount < p.SmallDonorMaxCount && yt.Amount > p.SmallDonorMinAmount {
			return true
		}
	}
	return false
}
