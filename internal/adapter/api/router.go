package api

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/log-lens/internal/adapter/api/handler"
	"github.com/V4T54L/log-lens/internal/adapter/api/middleware"
	"github.com/V4T54L/log-lens/internal/domain"
)

// Handlers groups the dashboard's HTTP handlers.
type Handlers struct {
	Dataset *handler.DatasetHandler
	View    *handler.ViewHandler
	Backend *handler.BackendHandler
	Events  http.Handler
}

// NewRouter creates and configures the main HTTP router for the dashboard service.
// A nil apiKeyRepo leaves the API unauthenticated.
func NewRouter(logger *slog.Logger, apiKeyRepo domain.APIKeyRepository, h Handlers) http.Handler {
	mux := http.NewServeMux()

	protect := func(next http.Handler) http.Handler { return next }
	if apiKeyRepo != nil {
		protect = middleware.Auth(apiKeyRepo, logger)
	}
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protect(fn))
	}

	// Backend files and actions
	handle("GET /api/files/{kind}", h.Backend.ListFiles)
	handle("POST /api/train", h.Backend.Train)
	handle("POST /api/split", h.Backend.Split)
	handle("POST /api/atomize", h.Backend.Atomize)
	handle("GET /api/reports/training", h.Backend.TrainingReport)

	// Dataset loading
	handle("POST /api/analyze", h.Dataset.Analyze)
	handle("POST /api/reports/analysis/open", h.Dataset.OpenAnalysisReport)
	handle("GET /api/runs", h.Dataset.Runs)

	// Viewer state
	handle("GET /api/view", h.View.GetView)
	handle("POST /api/view/filters", h.View.ApplyFilters)
	handle("POST /api/view/clear", h.View.ClearFilters)
	handle("POST /api/view/page", h.View.GoToPage)
	handle("POST /api/view/page/next", h.View.NextPage)
	handle("POST /api/view/page/prev", h.View.PrevPage)

	mux.Handle("GET /events", protect(h.Events))

	// Health check
	mux.HandleFunc("GET /health", h.Backend.Health)

	return mux
}
