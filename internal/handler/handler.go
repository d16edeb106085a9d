package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"bhesbhusa/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxRequestBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a service error onto a response. Anything that is
// not a DomainError, and every persistence failure, becomes a generic 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) || domainErr.Kind == model.KindPersistence {
		logger.Error().Err(err).Msg("internal error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "An internal error occurred",
		})
		return
	}

	status := domainErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", domainErr.Code).Msg("upstream failure")
	}
	writeError(w, status, domainErr.Code, domainErr.Message, logger)
}

// decodeJSON reads a size-limited JSON body, rejecting unknown fields when strict is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return model.NewValidationError(model.ErrCodeInvalidJSON, "Invalid request body").WithCause(err)
	}
	return nil
}

// uuidParam parses a chi path parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, model.NewValidationError(model.ErrCodeMissingField, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewValidationError(model.ErrCodeInvalidID, "Invalid "+name+" format")
	}
	return id, nil
}
