package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stwalsh4118/donations/api/internal/logger"
	"github.com/stwalsh4118/donations/api/internal/metrics"
	"github.com/stwalsh4118/donations/api/internal/models"
	"github.com/stwalsh4118/donations/api/internal/repository"
	"github.com/stwalsh4118/donations/api/internal/source"
	"github.com/stwalsh4118/donations/api/internal/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Service-level errors
var (
	ErrUnknownYear        = errors.New("year is not configured")
	ErrYearNotLoaded      = errors.New("year is not loaded")
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	ErrStorageUnavailable = errors.New("dataset cache unavailable")
	ErrAlreadyLoading     = errors.New("year is already loading")
	errLoadSuperseded     = errors.New("load superseded by storage clear")
)

// maxConcurrentLoads bounds LoadAll's parallel fetches.
const maxConcurrentLoads = 4

// Export is the full data export: every loaded year's raw dataset.
type Export struct {
	ExportDate  time.Time                          `json:"exportDate"`
	LoadedYears []models.Year                      `json:"loadedYears"`
	Data        map[models.Year]models.YearDataset `json:"data"`
}

// DatasetService loads yearly datasets into the record store.
type DatasetService interface {
	// Years returns the configured years, ascending.
	Years() []models.Year

	// LoadYear makes a year's records available. Without refresh an already
	// loaded year is left alone and the cache is tried before the source.
	// Concurrent calls for the same year share a single load.
	// A failed refresh of a loaded year keeps the loaded records and status
	// and reports the failure in the status error.
	// Returns ErrUnknownYear for a year outside the configured window and
	// ErrDatasetUnavailable when the source cannot provide the year.
	LoadYear(ctx context.Context, year models.Year, refresh bool) (models.YearStatus, error)

	// LoadAll loads every configured year concurrently. Every year is
	// attempted; the error joins the failures.
	LoadAll(ctx context.Context, refresh bool) ([]models.YearStatus, error)

	// Statuses returns every configured year's status in order.
	Statuses() []models.YearStatus

	StorageEnabled() bool

	// SetStorageEnabled toggles caching. Disabling clears the cache but keeps
	// loaded years in memory.
	SetStorageEnabled(ctx context.Context, enabled bool) error

	// ClearStorage removes cached and in-memory datasets and resets every
	// year to unloaded.
	ClearStorage(ctx context.Context) error

	// Export returns the raw datasets of every loaded year.
	Export() *Export

	// Ping checks the dataset cache.
	Ping(ctx context.Context) error
}

type datasetService struct {
	repo    repository.DatasetRepository
	src     source.Source
	store   *store.RecordStore
	board   *statusBoard
	years   []models.Year
	metrics *metrics.Metrics
	log     *logger.Logger
	group   singleflight.Group
	enabled atomic.Bool
	now     func() time.Time

	// cacheMu orders cache writes against clears: saves hold it for
	// reading, clearing and disabling hold it exclusively.
	cacheMu sync.RWMutex
}

// DatasetServiceOptions wires a DatasetService.
type DatasetServiceOptions struct {
	Repository     repository.DatasetRepository
	Source         source.Source
	Store          *store.RecordStore
	Years          []models.Year
	StorageEnabled bool
	Metrics        *metrics.Metrics
	Logger         *logger.Logger
}

// NewDatasetService creates a new instance of DatasetService.
func NewDatasetService(opts DatasetServiceOptions) DatasetService {
	years := slices.Clone(opts.Years)
	slices.Sort(years)

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	rs := opts.Store
	if rs == nil {
		rs = store.NewRecordStore()
	}

	s := &datasetService{
		repo:    opts.Repository,
		src:     opts.Source,
		store:   rs,
		board:   newStatusBoard(years),
		years:   years,
		metrics: opts.Metrics,
		log:     log.WithComponent("dataset_service"),
		now:     time.Now,
	}
	s.enabled.Store(opts.StorageEnabled)
	return s
}

func (s *datasetService) Years() []models.Year {
	return slices.Clone(s.years)
}

func (s *datasetService) LoadYear(ctx context.Context, year models.Year, refresh bool) (models.YearStatus, error) {
	if !slices.Contains(s.years, year) {
		return models.YearStatus{}, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}

	if !refresh {
		if st, _ := s.board.get(year); st.Status == models.StatusLoaded {
			return st, nil
		}
	}

	// The shared load outlives a single caller's cancellation.
	ch := s.group.DoChan(strconv.Itoa(int(year)), func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx), year, refresh)
	})

	select {
	case <-ctx.Done():
		return models.YearStatus{}, ctx.Err()
	case res := <-ch:
		st, _ := res.Val.(models.YearStatus)
		return st, res.Err
	}
}

// load runs one year's load: cache first unless refreshing, then the source.
func (s *datasetService) load(ctx context.Context, year models.Year, refresh bool) (models.YearStatus, error) {
	start := time.Now()
	log := s.log.With(map[string]interface{}{"year": int(year), "refresh": refresh})
	if id := logger.RequestIDFromContext(ctx); id != "" {
		log = log.WithRequestID(id)
	}

	prev, gen, ok := s.board.begin(year)
	if !ok {
		return prev, fmt.Errorf("%w: %d", ErrAlreadyLoading, year)
	}

	records, origin, updated, err := s.obtain(ctx, log, year, refresh, gen)
	if err != nil {
		s.metrics.ObserveLoad(year, origin, metrics.ResultError, time.Since(start))
		log.Error("Failed to load dataset", err, map[string]interface{}{"source": origin})

		// A failed refresh keeps serving the records already loaded.
		st, _ := s.board.finish(year, func(st *models.YearStatus) {
			st.Error = err.Error()
			if prev.Status == models.StatusLoaded && s.store.Has(year) {
				st.Status = models.StatusLoaded
				return
			}
			st.Status = models.StatusError
		}, nil)
		return st, err
	}

	st, ok := s.board.finish(year, func(st *models.YearStatus) {
		st.Status = models.StatusLoaded
		st.Source = origin
		st.Records = len(records)
		st.LastUpdated = updated
		st.Error = ""
	}, func() {
		s.store.Put(year, records)
	})
	if !ok {
		log.Warn("Discarding dataset loaded during storage clear", nil)
		return st, fmt.Errorf("%w: %d", errLoadSuperseded, year)
	}

	s.metrics.ObserveLoad(year, origin, metrics.ResultSuccess, time.Since(start))
	s.metrics.SetRecords(year, len(records))
	log.Info("Dataset loaded", map[string]interface{}{
		"source":      origin,
		"records":     len(records),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return st, nil
}

// obtain returns a year's records and where they came from. Cache problems
// are logged and never fail the load.
func (s *datasetService) obtain(ctx context.Context, log *logger.Logger, year models.Year, refresh bool, gen uint64) ([]models.RawRecord, string, *time.Time, error) {
	if s.cacheActive() && !refresh {
		records, err := s.repo.Load(ctx, year)
		switch {
		case err != nil:
			s.metrics.CacheError("load")
			log.Warn("Dataset cache read failed, fetching from source", map[string]interface{}{"error": err.Error()})
		case records != nil:
			updated, err := s.repo.LastUpdated(ctx, year)
			if err != nil {
				log.Warn("Failed to read cache timestamp", map[string]interface{}{"error": err.Error()})
			}
			log.Debug("Dataset cache hit", map[string]interface{}{"records": len(records)})
			return records, models.SourceCache, updated, nil
		}
	}

	if s.src == nil {
		return nil, models.SourceRemote, nil, fmt.Errorf("%w: no source configured", ErrDatasetUnavailable)
	}

	records, err := s.src.Fetch(ctx, year)
	if err != nil {
		return nil, models.SourceRemote, nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	log.Debug("Dataset fetched", map[string]interface{}{
		"records": len(records),
		"from":    s.src.Describe(),
	})

	return records, models.SourceRemote, s.save(ctx, log, year, records, gen), nil
}

// save writes a fetched year to the cache and returns its timestamp. It
// skips the write when caching is off or storage was cleared after the load
// began, so a cleared cache never regains a year. Failures are logged only.
func (s *datasetService) save(ctx context.Context, log *logger.Logger, year models.Year, records []models.RawRecord, gen uint64) *time.Time {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	if !s.cacheActive() {
		return nil
	}
	if !s.board.current(gen) {
		log.Debug("Storage cleared during load, not caching dataset", nil)
		return nil
	}
	if err := s.repo.Save(ctx, year, records); err != nil {
		s.metrics.CacheError("save")
		log.Warn("Failed to cache dataset", map[string]interface{}{"error": err.Error()})
		return nil
	}
	now := s.now().UTC()
	return &now
}

func (s *datasetService) cacheActive() bool {
	return s.repo != nil && s.enabled.Load()
}

func (s *datasetService) LoadAll(ctx context.Context, refresh bool) ([]models.YearStatus, error) {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(maxConcurrentLoads)

	for _, year := range s.years {
		year := year
		g.Go(func() error {
			if _, err := s.LoadYear(ctx, year, refresh); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return s.Statuses(), errors.Join(errs...)
}

func (s *datasetService) Statuses() []models.YearStatus {
	return s.board.all()
}

func (s *datasetService) StorageEnabled() bool {
	return s.enabled.Load()
}

func (s *datasetService) SetStorageEnabled(ctx context.Context, enabled bool) error {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	was := s.enabled.Swap(enabled)
	if was != enabled {
		s.log.Info("Dataset cache toggled", map[string]interface{}{"enabled": enabled})
	}
	if enabled || s.repo == nil {
		return nil
	}

	if err := s.repo.Clear(ctx); err != nil {
		s.metrics.CacheError("clear")
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *datasetService) ClearStorage(ctx context.Context) error {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.repo != nil {
		if err := s.repo.Clear(ctx); err != nil {
			s.metrics.CacheError("clear")
			return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
	}

	s.board.reset(s.store.Clear)
	for _, y := range s.years {
		s.metrics.SetRecords(y, -1)
	}
	s.log.Info("Dataset storage cleared", nil)
	return nil
}

func (s *datasetService) Export() *Export {
	snapshot := s.store.Snapshot()

	out := &Export{
		ExportDate:  s.now().UTC(),
		LoadedYears: make([]models.Year, 0, len(snapshot)),
		Data:        make(map[models.Year]models.YearDataset, len(snapshot)),
	}
	for y, records := range snapshot {
		out.LoadedYears = append(out.LoadedYears, y)
		out.Data[y] = models.YearDataset{Records: records}
	}
	slices.Sort(out.LoadedYears)
	return out
}

func (s *datasetService) Ping(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}
