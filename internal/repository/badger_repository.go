package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stwalsh4118/donations/api/internal/logger"
	"github.com/stwalsh4118/donations/api/internal/models"
)

// ErrRepositoryClosed is returned by a closed BadgerDB repository.
var ErrRepositoryClosed = errors.New("dataset repository is closed")

// BadgerOptions configures the embedded BadgerDB cache.
type BadgerOptions struct {
	// Path is the database directory, created if missing. Ignored when
	// InMemory is set.
	Path string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	SyncWrites bool

	// Logger receives BadgerDB's own log output. Nil silences it.
	Logger *logger.Logger
}

// badgerLogger adapts the application logger to badger.Logger.
type badgerLogger struct {
	log *logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error("badger", errors.New(strings.TrimSpace(fmt.Sprintf(format, args...))), nil)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), nil)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), nil)
}

func (l badgerLogger) Debugf(string, ...interface{}) {}

// badgerRepository stores each year's records as one JSON value under
// "records/<year>" and its save time under "meta/lastUpdate<year>".
type badgerRepository struct {
	db *badger.DB
}

// OpenBadger opens a BadgerDB-backed DatasetRepository.
func OpenBadger(opts BadgerOptions) (DatasetRepository, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("badger path is required for a persistent cache")
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", opts.Path, err)
		}
		bopts = badger.DefaultOptions(opts.Path)
	}

	bopts = bopts.WithSyncWrites(opts.SyncWrites).WithNumVersionsToKeep(1)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(badgerLogger{log: opts.Logger.WithComponent("badger")})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &badgerRepository{db: db}, nil
}

func recordsKey(year models.Year) []byte {
	return []byte("records/" + strconv.Itoa(int(year)))
}

func metaKey(year models.Year) []byte {
	return []byte("meta/" + lastUpdateKey(year))
}

func (r *badgerRepository) Save(_ context.Context, year models.Year, records []models.RawRecord) error {
	if records == nil {
		records = []models.RawRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records of year %d: %w", year, err)
	}
	stamp := []byte(time.Now().UTC().Format(time.RFC3339Nano))

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordsKey(year), payload); err != nil {
			return err
		}
		return txn.Set(metaKey(year), stamp)
	})
	if err != nil {
		return fmt.Errorf("failed to save year %d: %w", year, r.wrapClosed(err))
	}
	return nil
}

func (r *badgerRepository) Load(_ context.Context, year models.Year) ([]models.RawRecord, error) {
	var records []models.RawRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordsKey(year))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &records)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load year %d: %w", year, r.wrapClosed(err))
	}
	if records == nil {
		records = []models.RawRecord{}
	}
	return records, nil
}

func (r *badgerRepository) HasData(_ context.Context, year models.Year) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(recordsKey(year))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check year %d: %w", year, r.wrapClosed(err))
	}
	return true, nil
}

func (r *badgerRepository) LastUpdated(_ context.Context, year models.Year) (*time.Time, error) {
	var stamp string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(year))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		stamp = string(val)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read last update of year %d: %w", year, r.wrapClosed(err))
	}

	updated, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("invalid last update of year %d: %w", year, err)
	}
	return &updated, nil
}

func (r *badgerRepository) Clear(context.Context) error {
	if err := r.db.DropAll(); err != nil {
		return fmt.Errorf("failed to clear dataset cache: %w", r.wrapClosed(err))
	}
	return nil
}

func (r *badgerRepository) Ping(context.Context) error {
	if r.db.IsClosed() {
		return ErrRepositoryClosed
	}
	return nil
}

func (r *badgerRepository) Close() error {
	if r.db.IsClosed() {
		return nil
	}
	return r.db.Close()
}

// wrapClosed reports any failure on a closed database as ErrRepositoryClosed.
func (r *badgerRepository) wrapClosed(err error) error {
	if r.db.IsClosed() {
		return ErrRepositoryClosed
	}
	return err
}
