package handler

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/log-lens/internal/pipeline"
	"github.com/V4T54L/log-lens/internal/usecase"
)

// ClientCounter reports connected streaming clients.
type ClientCounter interface {
	ClientCount() int
}

// AdminHandler serves operational endpoints on the admin listener.
type AdminHandler struct {
	session        *pipeline.Session
	clients        ClientCounter
	monitor        *usecase.HealthMonitor
	cacheAvailable func() bool
	logger         *slog.Logger
}

// NewAdminHandler creates a new AdminHandler. cacheAvailable may be nil when no cache is configured.
func NewAdminHandler(session *pipeline.Session, clients ClientCounter, monitor *usecase.HealthMonitor, cacheAvailable func() bool, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		session:        session,
		clients:        clients,
		monitor:        monitor,
		cacheAvailable: cacheAvailable,
		logger:         logger,
	}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status summarizes the in-memory dataset and the state of optional dependencies.
// GET /admin/status
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	ds := h.session.Dataset()
	status := map[string]interface{}{
		"dataset_id":  ds.ID,
		"source":      ds.Source,
		"records":     ds.Len(),
		"sse_clients": h.clients.ClientCount(),
		"backend":     h.monitor.Status(),
	}
	if h.cacheAvailable != nil {
		status["report_cache_available"] = h.cacheAvailable()
	}
	respondWithJSON(w, http.StatusOK, status)
}
