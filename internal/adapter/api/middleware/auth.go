package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/V4T54L/log-lens/internal/domain"
)

const APIKeyHeader = "X-API-Key"

// apiKeyQueryParam lets EventSource clients, which cannot set headers, authenticate.
const apiKeyQueryParam = "api_key"

// StaticKeys is a fixed set of API keys from configuration.
type StaticKeys struct {
	keys [][]byte
}

// NewStaticKeys creates a key set from keys; blanks are ignored.
func NewStaticKeys(keys []string) *StaticKeys {
	s := &StaticKeys{}
	for _, k := range keys {
		if k != "" {
			s.keys = append(s.keys, []byte(k))
		}
	}
	return s
}

// IsValid reports whether key is in the set, comparing in constant time.
func (s *StaticKeys) IsValid(_ context.Context, key string) (bool, error) {
	candidate := []byte(key)
	valid := false
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare(k, candidate) == 1 {
			valid = true
		}
	}
	return valid, nil
}

// Auth is a middleware factory that returns a new authentication middleware.
// It checks for a valid API key in the X-API-Key header or the api_key query parameter.
func Auth(repo domain.APIKeyRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)
			if apiKey == "" {
				apiKey = r.URL.Query().Get(apiKeyQueryParam)
			}
			if apiKey == "" {
				logger.Warn("API key missing from request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "API key required")
				return
			}

			isValid, err := repo.IsValid(r.Context(), apiKey)
			if err != nil {
				logger.Error("failed to validate API key", "error", err)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			if !isValid {
				logger.Warn("invalid API key provided", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
