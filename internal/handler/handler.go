package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/benhicks2/tt-scraper/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// writeDomainError maps a domain error onto an HTTP status. Anything that is
// not a domain error is an internal failure and stays unexposed.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("unexpected handler error")
		writeError(w, http.StatusInternalServerError, "internal server error", logger)
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Code {
	case model.ErrCodeInvalidCategory,
		model.ErrCodeInvalidObservation,
		model.ErrCodeAmbiguousMatch,
		model.ErrCodeMissingField,
		model.ErrCodeInvalidJSON,
		model.ErrCodeEmptyInput:
		status = http.StatusBadRequest
	case model.ErrCodeNotFound:
		status = http.StatusNotFound
	case model.ErrCodeUnauthorised:
		status = http.StatusUnauthorized
	case model.ErrCodeStorageUnavailable:
		status = http.StatusServiceUnavailable
	}

	logger.Debug().Str("code", domainErr.Code).Int("status", status).Msg("domain error response")
	writeJSON(w, status, model.ErrorResponse{Error: domainErr.Message})
}
