package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"coupongen/internal/export"
	"coupongen/internal/model"
	"coupongen/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// CouponHandler handles coupon generation HTTP requests.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Generate handles POST /api/coupons requests.
func (h *CouponHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.Generate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Export handles GET /api/coupons/export requests, streaming a CSV export
// of a freshly generated batch.
func (h *CouponHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, err := parseGenerationQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, err.Error(), h.logger)
		return
	}

	cw := &csvResponseWriter{
		w:        w,
		filename: fmt.Sprintf("coupons-%d.csv", req.Count),
	}

	rows, err := h.service.Stream(r.Context(), req, cw)
	if err != nil {
		if !cw.started {
			writeServiceError(w, err, h.logger)
			return
		}
		// Headers are already sent; the client sees a truncated body.
		h.logger.Error().Err(err).Int("rows", rows).Msg("csv export interrupted")
	}
}

// Store handles POST /api/exports requests, writing a batch to storage.
func (h *CouponHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req model.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.Export(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetRun handles GET /api/runs/{id} requests.
func (h *CouponHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.parseRunID(w, r)
	if !ok {
		return
	}

	run, err := h.service.GetRun(r.Context(), runID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// ListCodes handles GET /api/runs/{id}/codes requests.
func (h *CouponHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	runID, ok := h.parseRunID(w, r)
	if !ok {
		return
	}

	limit, err := parseQueryInt(r, "limit", defaultPageLimit)
	if err != nil || limit < 1 || limit > maxPageLimit {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest,
			fmt.Sprintf("limit must be between 1 and %d", maxPageLimit), h.logger)
		return
	}

	offset, err := parseQueryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "offset must be a non-negative integer", h.logger)
		return
	}

	codes, err := h.service.ListCodes(r.Context(), runID, limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, codes)
}

func (h *CouponHandler) parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	if idStr == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "run ID is required", h.logger)
		return uuid.Nil, false
	}

	runID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid run ID format", h.logger)
		return uuid.Nil, false
	}

	return runID, true
}

// parseGenerationQuery reads length, count and initials from the query string.
func parseGenerationQuery(r *http.Request) (*model.GenerationRequest, error) {
	query := r.URL.Query()

	length, err := strconv.Atoi(query.Get("length"))
	if err != nil {
		return nil, fmt.Errorf("length must be an integer")
	}

	count, err := strconv.Atoi(query.Get("count"))
	if err != nil {
		return nil, fmt.Errorf("count must be an integer")
	}

	return &model.GenerationRequest{
		Length:   length,
		Count:    count,
		Initials: query.Get("initials"),
	}, nil
}

func parseQueryInt(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

// csvResponseWriter sets the CSV response headers on the first write, so
// errors raised before any output can still be reported as JSON. Every write
// is flushed to the client.
type csvResponseWriter struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (c *csvResponseWriter) Write(p []byte) (int, error) {
	if !c.started {
		c.started = true
		c.w.Header().Set("Content-Type", export.ContentType)
		c.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.filename))
		c.w.WriteHeader(http.StatusOK)
	}
	n, err := c.w.Write(p)
	if err != nil {
		return n, err
	}
	if err := http.NewResponseController(c.w).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return n, err
	}
	return n, nil
}
