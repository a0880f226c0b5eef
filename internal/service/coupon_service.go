package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"coupongen/internal/coupon"
	"coupongen/internal/export"
	"coupongen/internal/model"
	"coupongen/internal/repository"
	"coupongen/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds coupon service settings.
type Config struct {
	// MaxCount caps the number of codes per request.
	MaxCount int

	// MaxLength caps the code length per request. Zero leaves only the
	// engine's own limit.
	MaxLength int

	// Exclusions are previously issued codes loaded at startup. May be nil.
	Exclusions coupon.CouponSet
}

// couponService implements CouponService.
type couponService struct {
	engine   *coupon.Engine
	exporter *export.CSVExporter
	store    storage.Storage
	repo     repository.CouponRepository
	config   Config
	logger   zerolog.Logger
}

// NewCouponService creates a new coupon service. repo may be nil, in which
// case runs are not persisted and GetRun reports ErrPersistenceOff.
func NewCouponService(
	engine *coupon.Engine,
	exporter *export.CSVExporter,
	store storage.Storage,
	repo repository.CouponRepository,
	config Config,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		engine:   engine,
		exporter: exporter,
		store:    store,
		repo:     repo,
		config:   config,
		logger:   logger.With().Str("service", "coupon").Logger(),
	}
}

// Generate produces a batch, excluding every code issued before, and stores
// the run and its codes in one transaction.
func (s *couponService) Generate(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	reserved, err := s.reserved(ctx, req)
	if err != nil {
		return nil, err
	}

	batch, err := s.engine.Generate(ctx, *req, coupon.WithReserved(reserved))
	if err != nil {
		s.logger.Warn().Err(err).Int("count", req.Count).Msg("generation failed")
		return nil, err
	}

	run := runFromBatch(batch)
	if err := s.persist(ctx, &run, batch.Codes); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", run.ID.String()).
		Int("count", len(batch.Codes)).
		Msg("batch generated")

	return &model.GenerationResponse{
		Run:   run,
		Codes: batch.Codes,
	}, nil
}

// Stream writes a lazily generated batch to w.
func (s *couponService) Stream(ctx context.Context, req *model.GenerationRequest, w io.Writer) (int, error) {
	if err := s.validateRequest(req); err != nil {
		return 0, err
	}

	reserved, err := s.reserved(ctx, req)
	if err != nil {
		return 0, err
	}

	stream, err := s.engine.Stream(ctx, *req, coupon.WithReserved(reserved))
	if err != nil {
		return 0, err
	}

	rows, err := s.exporter.WriteStream(ctx, w, stream.All())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("run_id", stream.RunID().String()).
			Int("rows", rows).
			Msg("stream interrupted")
		return rows, err
	}

	s.logger.Info().
		Str("run_id", stream.RunID().String()).
		Int("count", rows).
		Int64("collisions", stream.Stats().Collisions).
		Msg("batch streamed")

	return rows, nil
}

// Export generates a batch and writes it to the storage destination. A
// failed export leaves the generated (and persisted) batch intact; the error
// matches model.ErrExportWriteFailure.
func (s *couponService) Export(ctx context.Context, req *model.ExportRequest) (*model.ExportResponse, error) {
	if req == nil {
		return nil, model.NewInvalidRequestError("export request is nil")
	}
	if req.Key == "" {
		return nil, model.NewInvalidRequestError("export key is required")
	}

	resp, err := s.Generate(ctx, &req.GenerationRequest)
	if err != nil {
		return nil, err
	}

	rows, err := s.exporter.ToStorage(ctx, s.store, req.Key, coupon.Codes(resp.Codes))
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("run_id", resp.Run.ID.String()).
			Str("key", req.Key).
			Msg("failed to export batch")
		return nil, err
	}

	return &model.ExportResponse{
		RunID: resp.Run.ID,
		Key:   req.Key,
		Count: rows,
	}, nil
}

// GetRun retrieves a persisted run.
func (s *couponService) GetRun(ctx context.Context, id uuid.UUID) (*model.GenerationRun, error) {
	if s.repo == nil {
		return nil, model.ErrPersistenceOff
	}

	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", id.String()).Msg("failed to get run")
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return nil, model.ErrRunNotFound
	}

	return run, nil
}

// ListCodes retrieves the codes of a persisted run.
func (s *couponService) ListCodes(ctx context.Context, id uuid.UUID, limit, offset int) ([]string, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}

	codes, err := s.repo.ListCodes(ctx, id, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", id.String()).Msg("failed to list codes")
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	if codes == nil {
		codes = []string{}
	}

	return codes, nil
}

// validateRequest enforces service limits. Shape checks (initials, space)
// belong to the engine.
func (s *couponService) validateRequest(req *model.GenerationRequest) error {
	if req == nil {
		return model.NewInvalidRequestError("generation request is nil")
	}

	if s.config.MaxCount > 0 && req.Count > s.config.MaxCount {
		s.logger.Warn().
			Int("count", req.Count).
			Int("max_count", s.config.MaxCount).
			Msg("request exceeds maximum count")
		return model.NewInvalidRequestError(fmt.Sprintf("count %d exceeds the maximum of %d per request", req.Count, s.config.MaxCount))
	}

	if s.config.MaxLength > 0 && req.Length > s.config.MaxLength {
		s.logger.Warn().
			Int("length", req.Length).
			Int("max_length", s.config.MaxLength).
			Msg("request exceeds maximum length")
		return model.NewInvalidRequestError(fmt.Sprintf("length %d exceeds the maximum of %d", req.Length, s.config.MaxLength))
	}

	return nil
}

// reserved merges the startup exclusions with codes already stored for the
// request's shape.
func (s *couponService) reserved(ctx context.Context, req *model.GenerationRequest) (coupon.CouponSet, error) {
	if s.repo == nil {
		return s.config.Exclusions, nil
	}

	issued, err := s.repo.IssuedCodes(ctx, req.Initials, req.Length)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load issued codes")
		return nil, fmt.Errorf("failed to load issued codes: %w", err)
	}

	return coupon.UnionView(s.config.Exclusions, issued), nil
}

// persist stores the run and its codes atomically. It is a no-op without a
// repository.
func (s *couponService) persist(ctx context.Context, run *model.GenerationRun, codes []string) (err error) {
	if s.repo == nil {
		return nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.repo.CreateRun(ctx, tx, run); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}

	if _, err = s.repo.CopyCodes(ctx, tx, run.ID, codes); err != nil {
		return fmt.Errorf("failed to persist codes: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to persist run: %w", err)
	}

	return nil
}

func runFromBatch(batch *coupon.Batch) model.GenerationRun {
	return model.GenerationRun{
		ID:            batch.RunID,
		TotalLength:   batch.Request.Length,
		Initials:      batch.Request.Initials,
		RequiredCount: batch.Request.Count,
		Workers:       batch.Stats.Workers,
		Attempts:      batch.Stats.Attempts,
		Collisions:    batch.Stats.Collisions,
		DurationMs:    batch.Stats.Duration.Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	}
}
