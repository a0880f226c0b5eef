package router

import (
	"net/http"

	"coupongen/internal/handler"
	"coupongen/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	couponHandler *handler.CouponHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("POST /api/coupons", couponHandler.Generate)
	mux.HandleFunc("GET /api/coupons/export", couponHandler.Export)
	mux.HandleFunc("POST /api/exports", couponHandler.Store)
	mux.HandleFunc("GET /api/runs/{id}", couponHandler.GetRun)
	mux.HandleFunc("GET /api/runs/{id}/codes", couponHandler.ListCodes)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(apiKey, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
