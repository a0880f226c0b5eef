package service

import (
	"context"
	"io"

	"coupongen/internal/model"

	"github.com/google/uuid"
)

// CouponService defines operations for coupon generation.
type CouponService interface {
	// Generate produces a batch of unique codes and persists it when a
	// repository is configured.
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error)

	// Stream writes a lazily generated batch to w as CSV. Validation errors
	// are returned before anything is written. Streamed runs are not persisted.
	Stream(ctx context.Context, req *model.GenerationRequest, w io.Writer) (int, error)

	// Export generates a batch and stores it as CSV under req.Key.
	Export(ctx context.Context, req *model.ExportRequest) (*model.ExportResponse, error)

	// GetRun retrieves a persisted run by its ID.
	GetRun(ctx context.Context, id uuid.UUID) (*model.GenerationRun, error)

	// ListCodes retrieves the codes of a persisted run with pagination.
	ListCodes(ctx context.Context, id uuid.UUID, limit, offset int) ([]string, error)
}
