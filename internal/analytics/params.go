// Package analytics merges yearly donation disclosures into per-company
// entities and derives the analytical views shown by the dashboard.
//
// Everything in this package is a pure function of its input: no state is
// kept between calls, and the same datasets always produce the same rows.
package analytics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/stwalsh4118/donations/api/internal/models"
)

// Defaults used when a parameter is not configured.
const (
	DefaultDisclosureRatio            = 0.0015
	DefaultHighIncomeMonthlyThreshold = 3_000_000
	DefaultTopN                       = 100
	DefaultLocationMinMembers         = 2
	DefaultSingleDonorMinAmount       = 50_000
	DefaultSmallDonorMaxCount         = 5
	DefaultSmallDonorMinAmount        = 1_000_000
	DefaultLargeAmountThreshold       = 1_000_000
	DefaultUnknownLocation            = "Ismeretlen"

	monthsPerYear = 12
)

var (
	// ErrNoYears is returned when the configured year set is empty.
	ErrNoYears = errors.New("year set is empty")
	// ErrInvalidParams wraps every other parameter validation failure.
	ErrInvalidParams = errors.New("invalid analytics parameters")
)

// Params carries every tunable of the pipeline.
type Params struct {
	// Key resolves the cross-year identity of a record. Nil means KeyByName.
	Key KeySelector

	// FlaggedTaxIDs is the allow-list used by the flagged view.
	FlaggedTaxIDs AllowList

	UnknownLocation string

	// Years is the analysed window. Views that compare years walk it in
	// ascending order.
	Years []models.Year

	DisclosureRatio            float64
	HighIncomeMonthlyThreshold float64
	SingleDonorMinAmount       float64
	SmallDonorMinAmount        float64
	LargeAmountThreshold       float64

	TopN               int
	LocationMinMembers int
	SmallDonorMaxCount int
}

// DefaultParams returns the production constants for the given years.
func DefaultParams(years ...models.Year) Params {
	return Params{
		Key:                        KeyByName,
		FlaggedTaxIDs:              NewAllowList(),
		UnknownLocation:            DefaultUnknownLocation,
		Years:                      years,
		DisclosureRatio:            DefaultDisclosureRatio,
		HighIncomeMonthlyThreshold: DefaultHighIncomeMonthlyThreshold,
		SingleDonorMinAmount:       DefaultSingleDonorMinAmount,
		SmallDonorMinAmount:        DefaultSmallDonorMinAmount,
		LargeAmountThreshold:       DefaultLargeAmountThreshold,
		TopN:                       DefaultTopN,
		LocationMinMembers:         DefaultLocationMinMembers,
		SmallDonorMaxCount:         DefaultSmallDonorMaxCount,
	}
}

// Validate checks the parameters. The year set must be non-empty, unique and
// contiguous in any order. An empty year set yields ErrNoYears; every other
// problem wraps ErrInvalidParams.
func (p Params) Validate() error {
	if len(p.Years) == 0 {
		return ErrNoYears
	}

	seen := make(map[models.Year]struct{}, len(p.Years))
	for _, y := range p.Years {
		if _, dup := seen[y]; dup {
			return fmt.Errorf("%w: duplicate year %d", ErrInvalidParams, y)
		}
		seen[y] = struct{}{}
	}
	years := sortedYears(p.Years)
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			return fmt.Errorf("%w: years must be contiguous, %d is followed by %d", ErrInvalidParams, years[i-1], years[i])
		}
	}

	if p.DisclosureRatio <= 0 {
		return fmt.Errorf("%w: disclosure ratio must be positive, got %v", ErrInvalidParams, p.DisclosureRatio)
	}
	if p.TopN < 1 {
		return fmt.Errorf("%w: top-N cutoff must be at least 1, got %d", ErrInvalidParams, p.TopN)
	}
	if p.LocationMinMembers < 1 {
		return fmt.Errorf("%w: location minimum members must be at least 1, got %d", ErrInvalidParams, p.LocationMinMembers)
	}
	if p.SmallDonorMaxCount < 1 {
		return fmt.Errorf("%w: small donor max count must be at least 1, got %d", ErrInvalidParams, p.SmallDonorMaxCount)
	}
	if p.HighIncomeMonthlyThreshold < 0 || p.SingleDonorMinAmount < 0 ||
		p.SmallDonorMinAmount < 0 || p.LargeAmountThreshold < 0 {
		return fmt.Errorf("%w: amount thresholds must be non-negative", ErrInvalidParams)
	}
	return nil
}

// normalized returns a copy with years sorted ascending and nil fields
// replaced by their defaults.
func (p Params) normalized() Params {
	p.Years = sortedYears(p.Years)
	if p.Key == nil {
		p.Key = KeyByName
	}
	if p.FlaggedTaxIDs == nil {
		p.FlaggedTaxIDs = NewAllowList()
	}
	if p.UnknownLocation == "" {
		p.UnknownLocation = DefaultUnknownLocation
	}
	return p
}

func sortedYears(years []models.Year) []models.Year {
	out := slices.Clone(years)
	slices.Sort(out)
	return slices.Compact(out)
}

func latestYear(years []models.Year) models.Year {
	return years[len(years)-1]
}
