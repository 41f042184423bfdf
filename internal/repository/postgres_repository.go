package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/donations/api/internal/database"
	"github.com/stwalsh4118/donations/api/internal/models"
)

var recordColumns = []string{"year", "seq", "idx", "name", "tax_id", "address", "amount", "donor_count"}

// postgresRepository stores datasets in the donation_records table, one row
// per record, with save times in dataset_metadata.
type postgresRepository struct {
	db *database.Database
}

// NewPostgresRepository creates a DatasetRepository backed by PostgreSQL.
// The schema must already be migrated.
func NewPostgresRepository(db *database.Database) DatasetRepository {
	return &postgresRepository{db: db}
}

// Save replaces the year's rows inside one transaction, so readers see either
// the previous dataset or the new one.
func (r *postgresRepository) Save(ctx context.Context, year models.Year, records []models.RawRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin save of year %d: %w", year, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM donation_records WHERE year = $1`, int(year)); err != nil {
		return fmt.Errorf("failed to delete records of year %d: %w", year, err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"donation_records"}, recordColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{int(year), i, rec.Index, rec.Name, rec.TaxID, rec.Address, rec.Amount, rec.DonorCount}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to copy %d records of year %d: %w", len(records), year, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO dataset_metadata (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, lastUpdateKey(year), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to stamp year %d: %w", year, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit save of year %d: %w", year, err)
	}
	return nil
}

func (r *postgresRepository) Load(ctx context.Context, year models.Year) ([]models.RawRecord, error) {
	saved, err := r.HasData(ctx, year)
	if err != nil || !saved {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT idx, name, tax_id, address, amount, donor_count
		FROM donation_records
		WHERE year = $1
		ORDER BY seq
	`, int(year))
	if err != nil {
		return nil, fmt.Errorf("failed to query records of year %d: %w", year, err)
	}
	defer rows.Close()

	records := []models.RawRecord{}
	for rows.Next() {
		var rec models.RawRecord
		if err := rows.Scan(&rec.Index, &rec.Name, &rec.TaxID, &rec.Address, &rec.Amount, &rec.DonorCount); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

func (r *postgresRepository) HasData(ctx context.Context, year models.Year) (bool, error) {
	updated, err := r.LastUpdated(ctx, year)
	if err != nil {
		return false, err
	}
	return updated != nil, nil
}

func (r *postgresRepository) LastUpdated(ctx context.Context, year models.Year) (*time.Time, error) {
	var updated time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT updated_at FROM dataset_metadata WHERE key = $1`, lastUpdateKey(year),
	).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read last update of year %d: %w", year, err)
	}
	updated = updated.UTC()
	return &updated, nil
}

func (r *postgresRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, `TRUNCATE donation_records, dataset_metadata`); err != nil {
		return fmt.Errorf("failed to clear dataset cache: %w", err)
	}
	return nil
}

func (r *postgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *postgresRepository) Close() error {
	r.db.Close()
	return nil
}
