package repository

import (
	"context"
	"errors"
	"fmt"

	"coupongen/internal/coupon"
	"coupongen/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const schema = `
	CREATE TABLE IF NOT EXISTS generation_runs (
		id UUID PRIMARY KEY,
		total_length INTEGER NOT NULL CHECK (total_length >= 0),
		prefix TEXT NOT NULL DEFAULT '',
		required_count INTEGER NOT NULL CHECK (required_count >= 0),
		workers INTEGER NOT NULL,
		attempts BIGINT NOT NULL,
		collisions BIGINT NOT NULL,
		duration_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS coupons (
		code TEXT PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES generation_runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_coupons_run_id ON coupons(run_id);
`

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// ErrDuplicateCode is returned by CopyCodes when a code was already issued.
var ErrDuplicateCode = errors.New("coupon code already issued")

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// EnsureSchema creates the tables if they do not exist.
func (r *couponRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		r.logger.Error().Err(err).Msg("failed to create schema")
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// BeginTx starts a new database transaction.
func (r *couponRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateRun inserts a run summary within the provided transaction.
func (r *couponRepository) CreateRun(ctx context.Context, tx pgx.Tx, run *model.GenerationRun) error {
	query := `
		INSERT INTO generation_runs (id, total_length, prefix, required_count, workers, attempts, collisions, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		run.ID,
		run.TotalLength,
		run.Initials,
		run.RequiredCount,
		run.Workers,
		run.Attempts,
		run.Collisions,
		run.DurationMs,
		run.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("run_id", run.ID.String()).
			Msg("failed to create generation run")
		return fmt.Errorf("failed to create generation run: %w", err)
	}

	r.logger.Debug().
		Str("run_id", run.ID.String()).
		Msg("generation run created successfully")

	return nil
}

// CopyCodes bulk-inserts the codes of a run with the COPY protocol.
func (r *couponRepository) CopyCodes(ctx context.Context, tx pgx.Tx, runID uuid.UUID, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"coupons"},
		[]string{"code", "run_id"},
		pgx.CopyFromSlice(len(codes), func(i int) ([]any, error) {
			return []any{codes[i], runID}, nil
		}),
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("run_id", runID.String()).
			Int("count", len(codes)).
			Msg("failed to copy coupons")

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("failed to copy coupons: %w", errors.Join(ErrDuplicateCode, err))
		}
		return 0, fmt.Errorf("failed to copy coupons: %w", err)
	}

	r.logger.Debug().
		Str("run_id", runID.String()).
		Int64("count", copied).
		Msg("coupons copied successfully")

	return copied, nil
}

// GetRun retrieves a run by its ID.
func (r *couponRepository) GetRun(ctx context.Context, id uuid.UUID) (*model.GenerationRun, error) {
	query := `
		SELECT id, total_length, prefix, required_count, workers, attempts, collisions, duration_ms, created_at
		FROM generation_runs
		WHERE id = $1
	`

	var run model.GenerationRun
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.TotalLength,
		&run.Initials,
		&run.RequiredCount,
		&run.Workers,
		&run.Attempts,
		&run.Collisions,
		&run.DurationMs,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("run_id", id.String()).Msg("generation run not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("run_id", id.String()).Msg("failed to query generation run")
		return nil, fmt.Errorf("failed to query generation run: %w", err)
	}

	return &run, nil
}

// ListCodes retrieves the codes of a run ordered by code.
func (r *couponRepository) ListCodes(ctx context.Context, runID uuid.UUID, limit, offset int) ([]string, error) {
	query := `
		SELECT code
		FROM coupons
		WHERE run_id = $1
		ORDER BY code
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, runID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Str("run_id", runID.String()).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan coupon rows")
		return nil, fmt.Errorf("failed to scan coupons: %w", err)
	}

	return codes, nil
}

// IssuedCodes returns every stored code of the given shape. Length is in
// bytes, matching how the generator measures codes.
func (r *couponRepository) IssuedCodes(ctx context.Context, prefix string, length int) (coupon.CouponSet, error) {
	query := `
		SELECT code
		FROM coupons
		WHERE octet_length(code) = $1 AND starts_with(code, $2)
	`

	rows, err := r.pool.Query(ctx, query, length, prefix)
	if err != nil {
		r.logger.Error().Err(err).
			Str("prefix", prefix).
			Int("length", length).
			Msg("failed to query issued coupons")
		return nil, fmt.Errorf("failed to query issued coupons: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan issued coupon rows")
		return nil, fmt.Errorf("failed to scan issued coupons: %w", err)
	}
	set := coupon.SetOf(codes...)

	r.logger.Debug().
		Str("prefix", prefix).
		Int("length", length).
		Int("count", set.Size()).
		Msg("issued coupons loaded")

	return set, nil
}
