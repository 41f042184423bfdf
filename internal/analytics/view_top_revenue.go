package analytics

// YearMetrics is one year of a top-revenue row.
type YearMetrics struct {
	YearAmountCount
	AveragePerDonor  float64 `json:"average_per_donor"`
	AnnualPerCapita  float64 `json:"annual_per_capita"`
	MonthlyPerCapita float64 `json:"monthly_per_capita"`
}

// TopRevenueRow is an entity whose estimated monthly income per donor
// exceeded the high-income threshold in at least one year.
type TopRevenueRow struct {
	Key     string        `json:"key"`
	Name    string        `json:"name"`
	TaxID   string        `json:"tax_id,omitempty"`
	Address string        `json:"address,omitempty"`
	Years   []YearMetrics `json:"years"`
	Changes []YearChange  `json:"changes"`

	// LatestMonthlyPerCapita is the monthly per-capita figure of the most
	// recent window year.
	LatestMonthlyPerCapita float64 `json:"latest_monthly_per_capita"`
	// AverageMonthlyPerCapita is computed from the window totals, not as the
	// mean of the yearly figures.
	AverageMonthlyPerCapita float64 `json:"average_monthly_per_capita"`

	TotalAmount float64 `json:"total_amount"`
	TotalDonors int     `json:"total_donors"`
}

// Tuple returns the dashboard column order: name, first year amount and
// count, then for each later year its amount, count and change from the
// previous year, then latest monthly per-capita, average monthly per-capita
// and the window total.
func (r TopRevenueRow) Tuple() []any {
	out := make([]any, 0, 4+3*len(r.Years))
	out = append(out, r.Name)
	for i, y := range r.Years {
		out = append(out, y.Amount, y.DonorCount)
		if i > 0 {
			out = append(out, r.Changes[i-1].Change)
		}
	}
	return append(out, r.LatestMonthlyPerCapita, r.AverageMonthlyPerCapita, r.TotalAmount)
}

// TopRevenue lists high per-capita income entities, sorted by window total
// descending. It needs every window year loaded and is empty otherwise.
func TopRevenue(t *EntityTable, p Params) []TopRevenueRow {
	rows := []TopRevenueRow{}
	if !t.HasAllYears() {
		return rows
	}

	years := t.Years
	for _, e := range t.Entities() {
		qualifies := false
		metrics := make([]YearMetrics, 0, len(years))
		for _, y := range years {
			yt := e.Year(y)
			m := YearMetrics{
				YearAmountCount:  YearAmountCount{Year: y, Amount: yt.Amount, DonorCount: yt.DonorCount},
				AveragePerDonor:  PerDonorAverage(yt.Amount, yt.DonorCount),
				AnnualPerCapita:  AnnualPerCapita(yt.Amount, yt.DonorCount, p.DisclosureRatio),
				MonthlyPerCapita: MonthlyPerCapita(yt.Amount, yt.DonorCount, p.DisclosureRatio),
			}
			if yt.DonorCount > 0 && m.MonthlyPerCapita > p.HighIncomeMonthlyThreshold {
				qualifies = true
			}
			metrics = append(metrics, m)
		}
		if !qualifies {
			continue
		}

		changes := make([]YearChange, 0, len(years)-1)
		for i := 1; i < len(years); i++ {
			changes = append(changes, YearChange{
				From:   years[i-1],
				To:     years[i],
				Change: FractionalChange(metrics[i-1].Amount, metrics[i].Amount),
			})
		}

		total := e.TotalAmount(years)
		donors := e.TotalDonors(years)
		rows = append(rows, TopRevenueRow{
			Key:                     e.Key,
			Name:                    e.Name,
			TaxID:                   e.TaxID,
			Address:                 e.Address,
			Years:                   metrics,
			Changes:                 changes,
			LatestMonthlyPerCapita:  metrics[len(metrics)-1].MonthlyPerCapita,
			AverageMonthlyPerCapita: MonthlyPerCapita(total, donors, p.DisclosureRatio),
			TotalAmount:             total,
			TotalDonors:             donors,
		})
	}

	sortDesc(rows,
		func(r TopRevenueRow) float64 { return r.TotalAmount },
		func(r TopRevenueRow) string { return r.Name },
		func(r TopRevenueRow) string { return r.Key },
	)
	return rows
}
