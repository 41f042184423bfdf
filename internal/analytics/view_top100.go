package analytics

// TopRow is one entity of the top-N-by-latest-year view.
type TopRow struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Years       []YearAmount `json:"years"`
	Deltas      []YearChange `json:"deltas"`
	TotalAmount float64      `json:"total_amount"`
}

// Tuple returns name, each year's amount, each absolute year-over-year
// delta, then the window total.
func (r TopRow) Tuple() []any {
	out := make([]any, 0, 2+2*len(r.Years))
	out = append(out, r.Name)
	for _, y := range r.Years {
		out = append(out, y.Amount)
	}
	for _, d := range r.Deltas {
		out = append(out, d.Change)
	}
	return append(out, r.TotalAmount)
}

// LatestAmount returns the amount of the most recent window year.
func (r TopRow) LatestAmount() float64 {
	if len(r.Years) == 0 {
		return 0
	}
	return r.Years[len(r.Years)-1].Amount
}

// TopByLatestYear ranks every entity by its latest-year amount and keeps the
// first p.TopN. It is empty when the latest window year is not loaded.
func TopByLatestYear(t *EntityTable, p Params) []TopRow {
	rows := []TopRow{}
	if len(t.Years) == 0 || !t.HasYear(latestYear(t.Years)) {
		return rows
	}

	years := t.Years
	for _, e := range t.Entities() {
		amounts := make([]YearAmount, 0, len(years))
		for _, y := range years {
			amounts = append(amounts, YearAmount{Year: y, Amount: e.Year(y).Amount})
		}

		deltas := make([]YearChange, 0, len(years)-1)
		for i := 1; i < len(years); i++ {
			deltas = append(deltas, YearChange{
				From:   years[i-1],
				To:     years[i],
				Change: amounts[i].Amount - amounts[i-1].Amount,
			})
		}

		rows = append(rows, TopRow{
			Key:         e.Key,
			Name:        e.Name,
			Years:       amounts,
			Deltas:      deltas,
			TotalAmount: e.TotalAmount(years),
		})
	}

	sortDesc(rows,
		func(r TopRow) float64 { return r.LatestAmount() },
		func(r TopRow) string { return r.Name },
		func(r TopRow) string { return r.Key },
	)

	if p.TopN > 0 && len(rows) > p.TopN {
		rows = rows[:p.TopN]
	}
	return rows
}
