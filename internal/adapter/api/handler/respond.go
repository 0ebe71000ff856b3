package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/V4T54L/log-lens/internal/domain"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDomainError maps use case errors to HTTP statuses and logs server-side failures.
func respondWithDomainError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error(msg, "error", err, "status", code)
	} else {
		logger.Warn(msg, "error", err, "status", code)
	}
	respondWithError(w, code, errorMessage(err))
}

func statusFor(err error) int {
	var backendErr *domain.BackendError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBackendTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &backendErr):
		if backendErr.StatusCode == http.StatusBadRequest || backendErr.StatusCode == http.StatusNotFound {
			return backendErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage prefers the backend's own message, which is what users need to see.
func errorMessage(err error) string {
	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Message
	}
	return err.Error()
}

// decodeJSON reads an optional JSON body into dst; an empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
}
