package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	upsertSampleSQL = `INSERT INTO rate_samples (
        asset,
        fetched_at,
        quote_price,
        reference_price,
        change_24h,
        quote_currency
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (asset, fetched_at) DO UPDATE
    SET
        quote_price     = EXCLUDED.quote_price,
        reference_price = EXCLUDED.reference_price,
        change_24h      = EXCLUDED.change_24h,
        quote_currency  = EXCLUDED.quote_currency;`

	listSamplesBetweenSQL = `SELECT
        asset,
        fetched_at,
        quote_price,
        reference_price,
        change_24h,
        quote_currency,
        created_at
    FROM rate_samples
    WHERE asset = $1
      AND fetched_at >= $2
      AND fetched_at < $3
    ORDER BY fetched_at;`

	listRecentSamplesSQL = `SELECT
        asset,
        fetched_at,
        quote_price,
        reference_price,
        change_24h,
        quote_currency,
        created_at
    FROM rate_samples
    ORDER BY fetched_at DESC
    LIMIT $1;`

	countSamplesSQL = `SELECT COUNT(*) FROM rate_samples;`

	deleteSamplesBeforeSQL = `DELETE FROM rate_samples WHERE fetched_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SampleStore defines operations for rate sample persistence.
type SampleStore interface {
	UpsertSample(ctx context.Context, sample RateSample) error
	ListSamplesBetween(ctx context.Context, asset string, from, to time.Time) ([]RateSample, error)
	ListRecentSamples(ctx context.Context, limit int) ([]RateSample, error)
	CountSamples(ctx context.Context) (int64, error)
	DeleteSamplesBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes the postgres advisory lock used to keep two
// ratewatcher instances from double-sampling.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store provides PostgreSQL-backed sample persistence.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertSample persists or updates a rate sample.
func (s *Store) UpsertSample(ctx context.Context, sample RateSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var change interface{}
	if sample.Change24h != nil {
		change = sample.Change24h.String()
	}

	_, execErr := pool.Exec(ctx, upsertSampleSQL,
		sample.Asset,
		sample.FetchedAt,
		sample.QuotePrice.String(),
		sample.ReferencePrice.String(),
		change,
		sample.QuoteCurrency,
	)
	if execErr != nil {
		return fmt.Errorf("upsert rate sample: %w", execErr)
	}
	return nil
}

// ListSamplesBetween lists one asset's samples within a time window.
func (s *Store) ListSamplesBetween(ctx context.Context, asset string, from, to time.Time) ([]RateSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, asset, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, 0)
}

// ListRecentSamples lists the most recent samples across all assets.
func (s *Store) ListRecentSamples(ctx context.Context, limit int) ([]RateSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, limit)
}

// CountSamples counts stored samples.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSamplesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count samples: %w", scanErr)
	}
	return count, nil
}

// DeleteSamplesBefore removes samples older than the given instant.
func (s *Store) DeleteSamplesBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteSamplesBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete samples before: %w", execErr)
	}
	return nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a
// release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func collectSamples(rows pgx.Rows, sizeHint int) ([]RateSample, error) {
	samples := make([]RateSample, 0, sizeHint)
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

func scanSample(rows pgx.Rows) (RateSample, error) {
	var (
		asset        string
		fetchedAt    time.Time
		quoteStr     string
		referenceStr string
		changeStr    sql.NullString
		currency     string
		createdAt    time.Time
	)

	if err := rows.Scan(
		&asset,
		&fetchedAt,
		&quoteStr,
		&referenceStr,
		&changeStr,
		&currency,
		&createdAt,
	); err != nil {
		return RateSample{}, err
	}

	quote, err := decimal.NewFromString(quoteStr)
	if err != nil {
		return RateSample{}, fmt.Errorf("parse quote price: %w", err)
	}
	reference, err := decimal.NewFromString(referenceStr)
	if err != nil {
		return RateSample{}, fmt.Errorf("parse reference price: %w", err)
	}

	sample := RateSample{
		Asset:          asset,
		FetchedAt:      fetchedAt,
		QuotePrice:     quote,
		ReferencePrice: reference,
		QuoteCurrency:  currency,
		CreatedAt:      createdAt,
	}

	if changeStr.Valid {
		change, err := decimal.NewFromString(changeStr.String)
		if err != nil {
			return RateSample{}, fmt.Errorf("parse 24h change: %w", err)
		}
		sample.Change24h = &change
	}

	return sample, nil
}

var _ SampleStore = (*Store)(nil)
var _ AdvisoryLocker = (*Store)(nil)
