package handler

import (
	"log/slog"
	"net/http"

	"github.com/V4T54L/log-lens/internal/pipeline"
)

// ViewHandler drives the session's filters and pagination.
type ViewHandler struct {
	session  *pipeline.Session
	logger   *slog.Logger
	maxBytes int64
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(session *pipeline.Session, logger *slog.Logger, maxBytes int64) *ViewHandler {
	return &ViewHandler{session: session, logger: logger, maxBytes: maxBytes}
}

type filtersRequest struct {
	Level        string `json:"level"`
	Priority     string `json:"priority"`
	Search       string `json:"search"`
	Group        string `json:"group"`
	PreservePage bool   `json:"preserve_page"`
}

type pageRequest struct {
	Page int `json:"page"`
}

// GetView returns the current view.
// GET /api/view
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.View())
}

// ApplyFilters sets the filter criteria and group mode.
// POST /api/view/filters
func (h *ViewHandler) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		respondWithDomainError(w, h.logger, "invalid filters request", err)
		return
	}
	criteria := pipeline.Criteria{Level: req.Level, Priority: req.Priority, Search: req.Search}
	respondWithJSON(w, http.StatusOK, h.session.ApplyFilters(criteria, pipeline.ParseGroupMode(req.Group), req.PreservePage))
}

// ClearFilters drops all criteria and grouping and returns to page 1.
// POST /api/view/clear
func (h *ViewHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.ApplyFilters(pipeline.Criteria{}, pipeline.GroupNone, false))
}

// GoToPage jumps to a page; out of range pages are clamped.
// POST /api/view/page
func (h *ViewHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		respondWithDomainError(w, h.logger, "invalid page request", err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.session.GoToPage(req.Page))
}

// NextPage advances one page.
// POST /api/view/page/next
func (h *ViewHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.NextPage())
}

// PrevPage goes back one page.
// POST /api/view/page/prev
func (h *ViewHandler) PrevPage(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.session.PrevPage())
}
