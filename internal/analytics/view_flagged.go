package analytics

import "github.com/stwalsh4118/donations/api/internal/models"

// Flagged aggregates only the records whose normalized tax id is on
// p.FlaggedTaxIDs, the same way Aggregate does, and lists them by window
// total descending. The displayed tax id keeps its published spelling.
func Flagged(datasets map[models.Year][]models.RawRecord, p Params) ([]EntityYearsRow, error) {
	rows := []EntityYearsRow{}
	if len(p.Years) == 0 {
		return nil, ErrNoYears
	}
	if len(p.FlaggedTaxIDs) == 0 {
		return rows, nil
	}

	t, err := aggregate(datasets, p.Years, p.Key, func(r models.RawRecord) bool {
		return p.FlaggedTaxIDs.Contains(r.TaxID)
	})
	if err != nil {
		return nil, err
	}

	for _, e := range t.Entities() {
		rows = append(rows, newEntityYearsRow(e, t.Years))
	}

	sortDesc(rows,
		func(r EntityYearsRow) float64 { return r.TotalAmount },
		func(r EntityYearsRow) string { return r.Name },
		func(r EntityYearsRow) string { return r.Key },
	)
	return rows, nil
}
