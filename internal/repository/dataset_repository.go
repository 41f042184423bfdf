package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stwalsh4118/donations/api/internal/config"
	"github.com/stwalsh4118/donations/api/internal/database"
	"github.com/stwalsh4118/donations/api/internal/logger"
	"github.com/stwalsh4118/donations/api/internal/models"
)

// DatasetRepository persists fetched yearly datasets so a restart does not
// have to download them again. Every implementation is safe for concurrent
// use.
type DatasetRepository interface {
	// Save replaces the stored records of a year and stamps its last update.
	// An empty slice is a valid dataset and is remembered as such.
	Save(ctx context.Context, year models.Year, records []models.RawRecord) error

	// Load returns the stored records of a year.
	// Returns nil, nil if the year has never been saved (not an error).
	Load(ctx context.Context, year models.Year) ([]models.RawRecord, error)

	// HasData reports whether a year has been saved.
	HasData(ctx context.Context, year models.Year) (bool, error)

	// LastUpdated returns when a year was last saved, or nil if it never was.
	LastUpdated(ctx context.Context, year models.Year) (*time.Time, error)

	// Clear removes every stored dataset and its metadata.
	Clear(ctx context.Context) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing store.
	Close() error
}

// lastUpdateKey is the metadata key holding a year's last save time.
func lastUpdateKey(year models.Year) string {
	return "lastUpdate" + strconv.Itoa(int(year))
}

// Open builds the repository selected by cfg.Storage.Backend. For PostgreSQL
// it applies pending migrations before connecting.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (DatasetRepository, error) {
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Info("Initialized memory dataset cache", nil)
		return NewMemoryRepository(), nil

	case config.BackendPostgres:
		if err := database.RunMigrations(cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to migrate dataset cache: %w", err)
		}
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect dataset cache: %w", err)
		}
		log.Info("Initialized PostgreSQL dataset cache", map[string]interface{}{
			"host":     cfg.Database.Host,
			"database": cfg.Database.Name,
		})
		return NewPostgresRepository(db), nil

	case config.BackendBadger:
		repo, err := OpenBadger(BadgerOptions{
			Path:       cfg.Storage.BadgerPath,
			SyncWrites: cfg.Server.IsProduction(),
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Initialized BadgerDB dataset cache", map[string]interface{}{
			"path": cfg.Storage.BadgerPath,
		})
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage.Backend)
	}
}
