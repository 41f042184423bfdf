package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/stwalsh4118/donations/api/internal/analytics"
	"github.com/stwalsh4118/donations/api/internal/logger"
	"github.com/stwalsh4118/donations/api/internal/metrics"
	"github.com/stwalsh4118/donations/api/internal/models"
	"github.com/stwalsh4118/donations/api/internal/store"
)

// ViewResult is one named view, optionally truncated to a row limit.
type ViewResult struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
	Rows  any    `json:"rows"`
}

// YearReport is one year's headline figures and record table.
type YearReport struct {
	Summary analytics.YearSummary `json:"summary"`
	Rows    []analytics.YearRow   `json:"rows"`
}

// AnalyticsService computes reports over whatever is currently loaded. Each
// call works on its own snapshot of the record store.
type AnalyticsService interface {
	// Report returns every view at once.
	Report() (*analytics.Report, error)

	// View returns one named view. A positive limit keeps only the first
	// limit rows. Returns analytics.ErrUnknownView for an unknown name.
	View(name string, limit int) (*ViewResult, error)

	// YearSummary returns one year's figures.
	// Returns ErrUnknownYear or ErrYearNotLoaded.
	YearSummary(year models.Year) (*YearReport, error)

	// Combined returns the cross-year entity table and its summary.
	Combined() (*analytics.CombinedReport, error)
}

type analyticsService struct {
	analyzer *analytics.Analyzer
	store    *store.RecordStore
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewAnalyticsService creates a new instance of AnalyticsService.
func NewAnalyticsService(analyzer *analytics.Analyzer, rs *store.RecordStore, m *metrics.Metrics, log *logger.Logger) AnalyticsService {
	if log == nil {
		log = logger.Nop()
	}
	return &analyticsService{
		analyzer: analyzer,
		store:    rs,
		metrics:  m,
		log:      log.WithComponent("analytics_service"),
	}
}

func (s *analyticsService) Report() (*analytics.Report, error) {
	start := time.Now()
	report, err := s.analyzer.Run(s.store.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	s.metrics.ObserveView("all", report.Entities, time.Since(start))
	return report, nil
}

func (s *analyticsService) View(name string, limit int) (*ViewResult, error) {
	start := time.Now()
	rows, err := s.analyzer.View(name, s.store.Snapshot())
	if err != nil {
		return nil, err
	}

	total := rowCount(rows)
	s.metrics.ObserveView(name, total, time.Since(start))
	s.log.Debug("View built", map[string]interface{}{
		"view":        name,
		"rows":        total,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &ViewResult{Name: name, Total: total, Rows: limitRows(rows, limit)}, nil
}

func (s *analyticsService) YearSummary(year models.Year) (*YearReport, error) {
	if !slices.Contains(s.analyzer.Years(), year) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	records, ok := s.store.Get(year)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrYearNotLoaded, year)
	}

	summary, rows := s.analyzer.SummarizeYear(year, records)
	return &YearReport{Summary: summary, Rows: rows}, nil
}

func (s *analyticsService) Combined() (*analytics.CombinedReport, error) {
	start := time.Now()
	report, err := s.analyzer.Combined(s.store.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to build combined report: %w", err)
	}
	s.metrics.ObserveView("combined", len(report.Rows), time.Since(start))
	return report, nil
}

// rowCount returns the length of a view's row slice.
func rowCount(rows any) int {
	switch r := rows.(type) {
	case []analytics.TopRevenueRow:
		return len(r)
	case []analytics.TopRow:
		return len(r)
	case []analytics.LocationRow:
		return len(r)
	case []analytics.EntityYearsRow:
		return len(r)
	case []analytics.SingleDonorRow:
		return len(r)
	default:
		return 0
	}
}

// limitRows truncates a view's row slice when limit is positive.
func limitRows(rows any, limit int) any {
	if limit <= 0 {
		return rows
	}
	switch r := rows.(type) {
	case []analytics.TopRevenueRow:
		return head(r, limit)
	case []analytics.TopRow:
		return head(r, limit)
	case []analytics.LocationRow:
		return head(r, limit)
	case []analytics.EntityYearsRow:
		return head(r, limit)
	case []analytics.SingleDonorRow:
		return head(r, limit)
	default:
		return rows
	}
}

func head[T any](rows []T, n int) []T {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}
