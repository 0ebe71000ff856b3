package api

import (
	"net/http"

	"github.com/V4T54L/log-lens/internal/adapter/api/handler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewAdminRouter creates and configures the HTTP router for operational endpoints.
func NewAdminRouter(adminHandler *handler.AdminHandler, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", adminHandler.HealthCheck)
	mux.HandleFunc("GET /admin/status", adminHandler.Status)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}
