package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubKeys struct {
	err error
}

func (s stubKeys) IsValid(context.Context, string) (bool, error) {
	return false, s.err
}

func TestAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Auth(NewStaticKeys([]string{"secret", ""}), logger)(next)

	testCases := []struct {
		name       string
		target     string
		header     string
		wantStatus int
	}{
		{"missing key", "/api/view", "", http.StatusUnauthorized},
		{"invalid key", "/api/view", "nope", http.StatusUnauthorized},
		{"valid header", "/api/view", "secret", http.StatusNoContent},
		{"valid query param", "/events?api_key=secret", "", http.StatusNoContent},
		{"empty key is never valid", "/api/view?api_key=", "", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set(APIKeyHeader, tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
		})
	}

	t.Run("repository error", func(t *testing.T) {
		h := Auth(stubKeys{err: errors.New("db down")}, logger)(next)
		req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
		req.Header.Set(APIKeyHeader, "secret")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})
}

func TestLogging_RequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			t.Error("expected the wrapped writer to support flushing")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}
