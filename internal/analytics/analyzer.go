package analytics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/stwalsh4118/donations/api/internal/models"
)

// View names.
const (
	ViewTopRevenue  = "top-revenue"
	ViewTop100      = "top-100"
	ViewLocations   = "locations"
	ViewFlagged     = "flagged"
	ViewSingleDonor = "single-donor"
	ViewSmallDonor  = "small-donor"
)

// ViewNames lists every view in dashboard order.
var ViewNames = []string{
	ViewTopRevenue,
	ViewTop100,
	ViewLocations,
	ViewFlagged,
	ViewSingleDonor,
	ViewSmallDonor,
}

// ErrUnknownView is returned for a view name not in ViewNames.
var ErrUnknownView = errors.New("unknown view")

// Report holds every view computed from one input.
type Report struct {
	Years       []models.Year    `json:"years"`
	LoadedYears []models.Year    `json:"loaded_years"`
	Entities    int              `json:"entities"`
	TopRevenue  []TopRevenueRow  `json:"top_revenue"`
	Top100      []TopRow         `json:"top_100"`
	Locations   []LocationRow    `json:"locations"`
	Flagged     []EntityYearsRow `json:"flagged"`
	SingleDonor []SingleDonorRow `json:"single_donor"`
	SmallDonor  []EntityYearsRow `json:"small_donor"`
}

// Analyzer runs the pipeline with a fixed set of parameters. It holds no
// state besides its parameters and is safe for concurrent use.
type Analyzer struct {
	params Params
}

// New validates params and returns an Analyzer.
func New(params Params) (*Analyzer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{params: params.normalized()}, nil
}

// Params returns a copy of the analyzer's parameters.
func (a *Analyzer) Params() Params {
	p := a.params
	p.Years = append([]models.Year(nil), a.params.Years...)
	return p
}

// Years returns the analysed window, ascending.
func (a *Analyzer) Years() []models.Year {
	return append([]models.Year(nil), a.params.Years...)
}

// Aggregate merges datasets with the configured join key.
func (a *Analyzer) Aggregate(datasets map[models.Year][]models.RawRecord) (*EntityTable, error) {
	return Aggregate(datasets, a.params.Years, a.params.Key)
}

// Run aggregates datasets once and derives every view from the result.
func (a *Analyzer) Run(datasets map[models.Year][]models.RawRecord) (*Report, error) {
	t, err := a.Aggregate(datasets)
	if err != nil {
		return nil, err
	}

	flagged, err := Flagged(datasets, a.params)
	if err != nil {
		return nil, err
	}

	return &Report{
		Years:       t.Years,
		LoadedYears: t.Present,
		Entities:    t.Len(),
		TopRevenue:  TopRevenue(t, a.params),
		Top100:      TopByLatestYear(t, a.params),
		Locations:   Locations(t, a.params),
		Flagged:     flagged,
		SingleDonor: SingleDonor(t, a.params),
		SmallDonor:  SmallDonor(t, a.params),
	}, nil
}

// View computes a single named view. The returned value is the view's row
// slice.
func (a *Analyzer) View(name string, datasets map[models.Year][]models.RawRecord) (any, error) {
	if !slices.Contains(ViewNames, name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	if name == ViewFlagged {
		return Flagged(datasets, a.params)
	}

	t, err := a.Aggregate(datasets)
	if err != nil {
		return nil, err
	}

	switch name {
	case ViewTopRevenue:
		return TopRevenue(t, a.params), nil
	case ViewTop100:
		return TopByLatestYear(t, a.params), nil
	case ViewLocations:
		return Locations(t, a.params), nil
	case ViewSingleDonor:
		return SingleDonor(t, a.params), nil
	case ViewSmallDonor:
		return SmallDonor(t, a.params), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
}

// Combined builds the cross-year table and summary for datasets.
func (a *Analyzer) Combined(datasets map[models.Year][]models.RawRecord) (*CombinedReport, error) {
	t, err := a.Aggregate(datasets)
	if err != nil {
		return nil, err
	}
	report := Combined(t, a.params)
	return &report, nil
}

// SummarizeYear computes one year's headline figures and record table.
func (a *Analyzer) SummarizeYear(year models.Year, records []models.RawRecord) (YearSummary, []YearRow) {
	return SummarizeYear(year, records, a.params), YearRows(records, a.params)
}
