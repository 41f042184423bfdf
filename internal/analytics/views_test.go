package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/donations/api/internal/models"
)

func TestTopRevenue(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {rec("Rich", 60_000, 1), rec("Richer", 200_000, 2), rec("Poor", 1000, 1), rec("Whale", 10_000_000, 0)},
		2024: {rec("Rich", 30_000, 1), rec("Poor", 1000, 1), rec("Whale", 10_000_000, 0)},
		2025: {rec("Poor", 1000, 1), rec("Whale", 10_000_000, 0)},
	}

	rows := TopRevenue(mustAggregate(datasets), DefaultParams(testYears...))

	require.Len(t, rows, 2)
	assert.Equal(t, "Richer", rows[0].Name)
	assert.Equal(t, "Rich", rows[1].Name)

	rich := rows[1]
	assert.Equal(t, 90_000.0, rich.TotalAmount)
	assert.Equal(t, 2, rich.TotalDonors)
	assert.InDelta(t, 3_333_333.33, rich.Years[0].MonthlyPerCapita, 0.01)
	assert.Zero(t, rich.LatestMonthlyPerCapita, "no donors in the latest year")
	assert.InDelta(t, 2_500_000.0, rich.AverageMonthlyPerCapita, 0.01)
	require.Len(t, rich.Changes, 2)
	assert.InDelta(t, -0.5, rich.Changes[0].Change, 1e-9)
	assert.InDelta(t, -1.0, rich.Changes[1].Change, 1e-9)

	tuple := rich.Tuple()
	require.Len(t, tuple, 12)
	assert.Equal(t, "Rich", tuple[0])
	assert.Equal(t, 60_000.0, tuple[1])
	assert.Equal(t, 1, tuple[2])
	assert.Equal(t, 90_000.0, tuple[11])
}

func TestTopRevenue_ExampleCompanies(t *testing.T) {
	p := DefaultParams(testYears...)
	p.HighIncomeMonthlyThreshold = 1000

	rows := TopRevenue(mustAggregate(exampleDatasets()), p)

	require.Len(t, rows, 2)
	a, b := rows[0], rows[1]
	assert.Equal(t, "A", a.Name)
	assert.InDelta(t, 16_666.67, a.LatestMonthlyPerCapita, 0.01)
	assert.InDelta(t, 1.0, a.Changes[0].Change, 1e-9)
	assert.InDelta(t, 0.5, a.Changes[1].Change, 1e-9)

	assert.Equal(t, "B", b.Name)
	assert.Zero(t, b.Changes[0].Change, "0 to 0 is no change")
	assert.InDelta(t, 1.0, b.Changes[1].Change, 1e-9)
}

func TestTopRevenue_RequiresEveryYear(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {rec("Rich", 60_000, 1)},
		2024: {rec("Rich", 60_000, 1)},
	}

	rows := TopRevenue(mustAggregate(datasets), DefaultParams(testYears...))

	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestTopRevenue_ZeroDonorsNeverQualify(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {rec("Ghost", 5_000_000_000, 0)},
		2024: {rec("Ghost", 5_000_000_000, 0)},
		2025: {rec("Ghost", 5_000_000_000, 0)},
	}

	assert.Empty(t, TopRevenue(mustAggregate(datasets), DefaultParams(testYears...)))
}

func TestTopByLatestYear(t *testing.T) {
	rows := TopByLatestYear(mustAggregate(exampleDatasets()), DefaultParams(testYears...))

	require.Len(t, rows, 2)
	assert.Equal(t, []any{"A", 100.0, 200.0, 300.0, 100.0, 100.0, 600.0}, rows[0].Tuple())
	assert.Equal(t, []any{"B", 0.0, 0.0, 50.0, 0.0, 50.0, 50.0}, rows[1].Tuple())
}

func TestTopByLatestYear_Cutoff(t *testing.T) {
	tests := []struct {
		name     string
		entities int
		topN     int
		want     int
	}{
		{"fewer than cutoff", 3, 100, 3},
		{"exactly cutoff", 5, 5, 5},
		{"more than cutoff", 150, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]models.RawRecord, 0, tt.entities)
			for i := 0; i < tt.entities; i++ {
				records = append(records, rec(fmt.Sprintf("C%03d", i), float64(i*7%13), 1))
			}
			p := DefaultParams(testYears...)
			p.TopN = tt.topN

			rows := TopByLatestYear(mustAggregate(map[models.Year][]models.RawRecord{2025: records}), p)

			require.Len(t, rows, tt.want)
			for i := 1; i < len(rows); i++ {
				assert.GreaterOrEqual(t, rows[i-1].LatestAmount(), rows[i].LatestAmount())
			}
		})
	}
}

func TestTopByLatestYear_TiesBreakByName(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2025: {rec("Zeta", 10, 1), rec("Alpha", 10, 1), rec("Mid", 10, 1)},
	}

	rows := TopByLatestYear(mustAggregate(datasets), DefaultParams(testYears...))

	require.Len(t, rows, 3)
	assert.Equal(t, "Alpha", rows[0].Name)
	assert.Equal(t, "Mid", rows[1].Name)
	assert.Equal(t, "Zeta", rows[2].Name)
}

func TestTopByLatestYear_LatestYearMissing(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {rec("A", 1, 1)},
		2024: {rec("A", 1, 1)},
	}

	assert.Empty(t, TopByLatestYear(mustAggregate(datasets), DefaultParams(testYears...)))
}

func TestLocations(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {
			recAt("A", "1051 Budapest, Fő utca 1.", 10, 1),
			recAt("B", " 1051 Budapest, Fő utca 1. ", 30, 1),
			recAt("C", "4024 Debrecen", 1000, 1),
			recAt("D", "", 100, 1),
			recAt("E", "  ", 1, 1),
		},
	}

	rows := Locations(mustAggregate(datasets), DefaultParams(testYears...))

	require.Len(t, rows, 2)

	assert.Equal(t, DefaultUnknownLocation, rows[0].Location)
	assert.Equal(t, 101.0, rows[0].TotalAmount)
	assert.Equal(t, 2, rows[0].MemberCount)

	assert.Equal(t, "1051 Budapest, Fő utca 1.", rows[1].Location)
	assert.Equal(t, []any{"1051 Budapest, Fő utca 1.", 2, "B, A", 40.0}, rows[1].Tuple())
}

func TestLocations_MinMembers(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {
			recAt("A", "X", 1, 1),
			recAt("B", "X", 1, 1),
			recAt("C", "X", 1, 1),
			recAt("D", "Y", 1, 1),
			recAt("E", "Y", 1, 1),
		},
	}
	p := DefaultParams(testYears...)
	p.LocationMinMembers = 3

	rows := Locations(mustAggregate(datasets), p)

	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0].Location)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.MemberCount, p.LocationMinMembers)
	}
}

func TestLocations_CustomUnknownLabel(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {recAt("A", "", 1, 1), recAt("B", "", 1, 1)},
	}
	p := DefaultParams(testYears...)
	p.UnknownLocation = "Unknown"

	rows := Locations(mustAggregate(datasets), p)

	require.Len(t, rows, 1)
	assert.Equal(t, "Unknown", rows[0].Location)
}

func TestFlagged(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {recTax("Flag Kft.", "12345678-1-23", 500, 2), recTax("Other", "99999999-9-99", 1000, 1)},
		2024: {recTax("Flag Kft.", "12345678123", 700, 3)},
	}
	p := DefaultParams(testYears...)
	p.FlaggedTaxIDs = NewAllowList("12345678123")

	rows, err := Flagged(datasets, p)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "Flag Kft.", row.Name)
	assert.Equal(t, "12345678-1-23", row.TaxID)
	assert.Equal(t, 1200.0, row.TotalAmount)
	assert.Equal(t, []YearAmountCount{
		{Year: 2023, Amount: 500, DonorCount: 2},
		{Year: 2024, Amount: 700, DonorCount: 3},
		{Year: 2025},
	}, row.Years)
}

func TestFlagged_EmptyAllowList(t *testing.T) {
	rows, err := Flagged(exampleDatasets(), DefaultParams(testYears...))

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFlagged_NoYears(t *testing.T) {
	_, err := Flagged(exampleDatasets(), DefaultParams())

	assert.ErrorIs(t, err, ErrNoYears)
}

func TestSingleDonor(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {rec("Solo", 10, 3)},
		2025: {
			rec("Solo", 60_000, 1),
			rec("Solo Big", 90_000, 1),
			rec("AtLimit", 50_000, 1),
			rec("Pair", 100_000, 2),
		},
	}

	rows := SingleDonor(mustAggregate(datasets), DefaultParams(testYears...))

	require.Len(t, rows, 2)
	assert.Equal(t, "Solo Big", rows[0].Name)
	assert.Equal(t, "Solo", rows[1].Name)
	assert.Equal(t, 60_000.0, rows[1].LatestAmount)

	tuple := rows[1].Tuple()
	assert.Equal(t, []any{"Solo", 10.0, 3, 0.0, 0, 60_000.0, 1}, tuple)
}

func TestSingleDonor_LatestYearMissing(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2024: {rec("Solo", 60_000, 1)},
	}

	assert.Empty(t, SingleDonor(mustAggregate(datasets), DefaultParams(testYears...)))
}

func TestSmallDonor(t *testing.T) {
	datasets := map[models.Year][]models.RawRecord{
		2023: {rec("Few", 100, 1), rec("Many", 2_000_000, 5), rec("Ghost", 5_000_000, 0)},
		2024: {rec("Few", 2_000_000, 3), rec("Edge", 1_000_000, 4)},
	}

	rows := SmallDonor(mustAggregate(datasets), DefaultParams(testYears...))

	require.Len(t, rows, 1)
	assert.Equal(t, "Few", rows[0].Name)
	assert.Equal(t, 2_000_100.0, rows[0].TotalAmount)
	assert.Equal(t, 4, rows[0].TotalDonors)
}
