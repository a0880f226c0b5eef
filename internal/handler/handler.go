package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"coupongen/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", code).Str("message", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error onto a status code. Domain errors
// keep their code and message; anything else is reported as an internal error.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("unexpected service error")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeInitialsTooLong, model.ErrCodeTooManyRequested:
		status = http.StatusBadRequest
	case model.ErrCodeRunNotFound:
		status = http.StatusNotFound
	case model.ErrCodePersistenceOff:
		status = http.StatusNotImplemented
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("service error")
	}
	writeError(w, status, domainErr.Code, domainErr.Message, logger)
}
