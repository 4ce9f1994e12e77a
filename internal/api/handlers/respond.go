package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marketlens/screener/internal/screener"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// statusFor maps the screener error taxonomy to HTTP statuses. Everything
// in the taxonomy is a caller-recoverable condition, never a process
// failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, screener.ErrSetNotFound):
		return http.StatusNotFound
	case errors.Is(err, screener.ErrInvalidRange),
		errors.Is(err, screener.ErrUnknownAttribute),
		errors.Is(err, screener.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, screener.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, screener.ErrCorpusUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
