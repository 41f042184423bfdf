package analytics

import (
	"cmp"
	"math"
	"slices"

	"github.com/stwalsh4118/donations/api/internal/models"
)

// topSumCount is how many of the largest records YearSummary.TopAmount sums.
const topSumCount = 10

// YearSummary holds the headline figures of a single year's dataset.
type YearSummary struct {
	Year                    models.Year `json:"year"`
	Companies               int         `json:"companies"`
	TotalAmount             float64     `json:"total_amount"`
	TotalDonors             int         `json:"total_donors"`
	AveragePerDonor         float64     `json:"average_per_donor"`
	AverageAnnualIncome     float64     `json:"average_annual_income"`
	AboveThreshold          int         `json:"above_threshold"`
	AveragePerActiveCompany float64     `json:"average_per_active_company"`
	TopAmount               float64     `json:"top_amount"`
}

// SummarizeYear computes the headline figures of one year's raw records.
// Rounded figures are rounded half away from zero. records is not modified.
func SummarizeYear(year models.Year, records []models.RawRecord, p Params) YearSummary {
	s := YearSummary{Year: year, Companies: len(records)}

	active := 0
	for _, r := range records {
		s.TotalAmount += r.Amount
		s.TotalDonors += r.DonorCount
		if r.Amount > p.LargeAmountThreshold {
			s.AboveThreshold++
		}
		if r.DonorCount > 0 {
			active++
		}
	}

	s.AveragePerDonor = math.Round(PerDonorAverage(s.TotalAmount, s.TotalDonors))
	s.AverageAnnualIncome = math.Round(AnnualPerCapita(s.TotalAmount, s.TotalDonors, p.DisclosureRatio))
	if active > 0 {
		s.AveragePerActiveCompany = math.Round(s.TotalAmount / float64(active))
	}

	amounts := make([]float64, 0, len(records))
	for _, r := range records {
		amounts = append(amounts, r.Amount)
	}
	slices.SortFunc(amounts, func(a, b float64) int { return cmp.Compare(b, a) })
	for i := 0; i < len(amounts) && i < topSumCount; i++ {
		s.TopAmount += amounts[i]
	}

	return s
}

// YearRow is one published record with its derived per-donor figures.
type YearRow struct {
	Index           string  `json:"index"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	DonorCount      int     `json:"donor_count"`
	AveragePerDonor float64 `json:"average_per_donor"`
	AnnualPerCapita float64 `json:"annual_per_capita"`
	TaxID           string  `json:"tax_id"`
	Address         string  `json:"address"`
}

// Tuple returns the per-year table columns in display order.
func (r YearRow) Tuple() []any {
	return []any{r.Index, r.Name, r.Amount, r.DonorCount, r.AveragePerDonor, r.AnnualPerCapita, r.TaxID, r.Address}
}

// YearRows derives the per-record table of one year, ordered by amount
// descending. Tax ids are shown formatted.
func YearRows(records []models.RawRecord, p Params) []YearRow {
	rows := make([]YearRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, YearRow{
			Index:           r.Index,
			Name:            r.Name,
			Amount:          r.Amount,
			DonorCount:      r.DonorCount,
			AveragePerDonor: math.Round(PerDonorAverage(r.Amount, r.DonorCount)),
			AnnualPerCapita: math.Round(AnnualPerCapita(r.Amount, r.DonorCount, p.DisclosureRatio)),
			TaxID:           FormatTaxID(r.TaxID),
			Address:         r.Address,
		})
	}

	slices.SortStableFunc(rows, func(a, b YearRow) int { return cmp.Compare(b.Amount, a.Amount) })
	return rows
}

// CombinedRow is one entity of the cross-year table.
type CombinedRow struct {
	Key             string            `json:"key"`
	Name            string            `json:"name"`
	TaxID           string            `json:"tax_id"`
	Address         string            `json:"address"`
	Years           []YearAmountCount `json:"years"`
	TotalAmount     float64           `json:"total_amount"`
	TotalDonors     int               `json:"total_donors"`
	AveragePerDonor float64           `json:"average_per_donor"`
	AnnualPerCapita float64           `json:"annual_per_capita"`
}

// Tuple returns name, amount and count per year, total, average per donor,
// annual per-capita income, tax id and address.
func (r CombinedRow) Tuple() []any {
	out := make([]any, 0, 6+2*len(r.Years))
	out = append(out, r.Name)
	for _, y := range r.Years {
		out = append(out, y.Amount, y.DonorCount)
	}
	return append(out, r.TotalAmount, r.AveragePerDonor, r.AnnualPerCapita, r.TaxID, r.Address)
}

// CombinedSummary holds the headline figures across the window.
type CombinedSummary struct {
	Entities            int     `json:"entities"`
	TotalAmount         float64 `json:"total_amount"`
	TotalDonors         int     `json:"total_donors"`
	AveragePerDonor     float64 `json:"average_per_donor"`
	AverageAnnualIncome float64 `json:"average_annual_income"`
	AboveThreshold      int     `json:"above_threshold"`
	AveragePerEntity    float64 `json:"average_per_entity"`
	GrowingEntities     int     `json:"growing_entities"`
}

// CombinedReport is the cross-year table with its summary.
type CombinedReport struct {
	Years   []models.Year   `json:"years"`
	Rows    []CombinedRow   `json:"rows"`
	Summary CombinedSummary `json:"summary"`
}

// Combined builds the cross-year entity table, ordered by window total
// descending, and its summary. An entity is growing when its amount strictly
// increases between every pair of consecutive window years.
func Combined(t *EntityTable, p Params) CombinedReport {
	report := CombinedReport{Years: t.Years, Rows: []CombinedRow{}}
	years := t.Years

	for _, e := range t.Entities() {
		total := e.TotalAmount(years)
		donors := e.TotalDonors(years)

		report.Rows = append(report.Rows, CombinedRow{
			Key:             e.Key,
			Name:            e.Name,
			TaxID:           FormatTaxID(e.TaxID),
			Address:         e.Address,
			Years:           yearAmountCounts(e, years),
			TotalAmount:     total,
			TotalDonors:     donors,
			AveragePerDonor: math.Round(PerDonorAverage(total, donors)),
			AnnualPerCapita: math.Round(AnnualPerCapita(total, donors, p.DisclosureRatio)),
		})

		report.Summary.TotalAmount += total
		report.Summary.TotalDonors += donors
		if total > p.LargeAmountThreshold {
			report.Summary.AboveThreshold++
		}
		if isGrowing(e, years) {
			report.Summary.GrowingEntities++
		}
	}

	s := &report.Summary
	s.Entities = len(report.Rows)
	s.AveragePerDonor = math.Round(PerDonorAverage(s.TotalAmount, s.TotalDonors))
	s.AverageAnnualIncome = math.Round(AnnualPerCapita(s.TotalAmount, s.TotalDonors, p.DisclosureRatio))
	if s.Entities > 0 {
		s.AveragePerEntity = math.Round(s.TotalAmount / float64(s.Entities))
	}

	sortDesc(report.Rows,
		func(r CombinedRow) float64 { return r.TotalAmount },
		func(r CombinedRow) string { return r.Name },
		func(r CombinedRow) string { return r.Key },
	)
	return report
}

func isGrowing(e *Entity, years []models.Year) bool {
	if len(years) < 2 {
		return false
	}
	for i := 1; i < len(years); i++ {
		if e.Year(years[i]).Amount <= e.Year(years[i-1]).Amount {
			return false
		}
	}
	return true
}
