package repository

import (
	"context"

	"coupongen/internal/coupon"
	"coupongen/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CouponRepository defines the data access operations for generation runs
// and the codes they issued.
type CouponRepository interface {
	// EnsureSchema creates the tables if they do not exist.
	EnsureSchema(ctx context.Context) error

	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateRun inserts a run summary within the provided transaction.
	CreateRun(ctx context.Context, tx pgx.Tx, run *model.GenerationRun) error

	// CopyCodes bulk-inserts the codes of a run within the provided transaction.
	// A code issued by an earlier run violates the primary key and fails the copy.
	CopyCodes(ctx context.Context, tx pgx.Tx, runID uuid.UUID, codes []string) (int64, error)

	// GetRun retrieves a run by its ID. Returns nil if it does not exist.
	GetRun(ctx context.Context, id uuid.UUID) (*model.GenerationRun, error)

	// ListCodes retrieves the codes of a run, ordered, with pagination support.
	ListCodes(ctx context.Context, runID uuid.UUID, limit, offset int) ([]string, error)

	// IssuedCodes returns every stored code with the given prefix and length,
	// for excluding them from a new run.
	IssuedCodes(ctx context.Context, prefix string, length int) (coupon.CouponSet, error)
}
