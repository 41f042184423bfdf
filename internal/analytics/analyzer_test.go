package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/donations/api/internal/models"
)

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr error
	}{
		{"defaults", func(p *Params) {}, nil},
		{"no years", func(p *Params) { p.Years = nil }, ErrNoYears},
		{"duplicate year", func(p *Params) { p.Years = []models.Year{2024, 2024} }, ErrInvalidParams},
		{"gap between years", func(p *Params) { p.Years = []models.Year{2023, 2025} }, ErrInvalidParams},
		{"unsorted contiguous years", func(p *Params) { p.Years = []models.Year{2025, 2023, 2024} }, nil},
		{"single year", func(p *Params) { p.Years = []models.Year{2024} }, nil},
		{"zero ratio", func(p *Params) { p.DisclosureRatio = 0 }, ErrInvalidParams},
		{"zero top-N", func(p *Params) { p.TopN = 0 }, ErrInvalidParams},
		{"zero min members", func(p *Params) { p.LocationMinMembers = 0 }, ErrInvalidParams},
		{"zero small donor count", func(p *Params) { p.SmallDonorMaxCount = 0 }, ErrInvalidParams},
		{"negative threshold", func(p *Params) { p.SingleDonorMinAmount = -1 }, ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams(testYears...)
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNew_SortsYears(t *testing.T) {
	a, err := New(DefaultParams(2025, 2023, 2024))
	require.NoError(t, err)

	assert.Equal(t, testYears, a.Years())
}

func TestNew_Invalid(t *testing.T) {
	a, err := New(DefaultParams())

	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrNoYears)

	a, err = New(DefaultParams(2023, 2025))
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestAnalyzer_Run(t *testing.T) {
	p := DefaultParams(testYears...)
	p.FlaggedTaxIDs = NewAllowList("12345678123")
	a, err := New(p)
	require.NoError(t, err)

	datasets := exampleDatasets()
	datasets[2025] = append(datasets[2025], recTax("Flag", "12345678-1-23", 75_000, 1))

	report, err := a.Run(datasets)
	require.NoError(t, err)

	assert.Equal(t, testYears, report.Years)
	assert.Equal(t, testYears, report.LoadedYears)
	assert.Equal(t, 3, report.Entities)
	assert.Len(t, report.Top100, 3)
	assert.Len(t, report.Flagged, 1)
	assert.Len(t, report.SingleDonor, 1)
	assert.Empty(t, report.TopRevenue)
	require.Len(t, report.Locations, 1, "no addresses, so everyone shares the unknown location")
	assert.Equal(t, DefaultUnknownLocation, report.Locations[0].Location)
	assert.Equal(t, 3, report.Locations[0].MemberCount)
}

func TestAnalyzer_RunEmpty(t *testing.T) {
	a, err := New(DefaultParams(testYears...))
	require.NoError(t, err)

	report, err := a.Run(map[models.Year][]models.RawRecord{})
	require.NoError(t, err)

	assert.Zero(t, report.Entities)
	assert.Empty(t, report.LoadedYears)
	assert.NotNil(t, report.TopRevenue)
	assert.NotNil(t, report.Top100)
	assert.NotNil(t, report.Locations)
	assert.NotNil(t, report.Flagged)
	assert.NotNil(t, report.SingleDonor)
	assert.NotNil(t, report.SmallDonor)
}

func TestAnalyzer_View(t *testing.T) {
	a, err := New(DefaultParams(testYears...))
	require.NoError(t, err)

	for _, name := range ViewNames {
		t.Run(name, func(t *testing.T) {
			rows, err := a.View(name, exampleDatasets())
			require.NoError(t, err)
			assert.NotNil(t, rows)
		})
	}

	rows, err := a.View(ViewTop100, exampleDatasets())
	require.NoError(t, err)
	top, ok := rows.([]TopRow)
	require.True(t, ok)
	assert.Len(t, top, 2)
}

func TestAnalyzer_UnknownView(t *testing.T) {
	a, err := New(DefaultParams(testYears...))
	require.NoError(t, err)

	_, err = a.View("bogus", exampleDatasets())

	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestAnalyzer_ParamsIsCopy(t *testing.T) {
	a, err := New(DefaultParams(testYears...))
	require.NoError(t, err)

	p := a.Params()
	p.Years[0] = 1999

	assert.Equal(t, models.Year(2023), a.Years()[0])
}
