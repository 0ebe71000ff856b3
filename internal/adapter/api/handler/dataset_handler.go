package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/V4T54L/log-lens/internal/pipeline"
	"github.com/V4T54L/log-lens/internal/usecase"
)

const defaultRunsLimit = 50

// DatasetHandler loads datasets into the session and lists archived runs.
type DatasetHandler struct {
	uc       *usecase.LoadDatasetUseCase
	logger   *slog.Logger
	maxBytes int64
}

// NewDatasetHandler creates a new DatasetHandler.
func NewDatasetHandler(uc *usecase.LoadDatasetUseCase, logger *slog.Logger, maxBytes int64) *DatasetHandler {
	return &DatasetHandler{uc: uc, logger: logger, maxBytes: maxBytes}
}

type analyzeRequest struct {
	FilePath string `json:"file_path"`
}

type openReportRequest struct {
	Name string `json:"name"`
}

type loadResponse struct {
	View          pipeline.View   `json:"view"`
	Warnings      []string        `json:"warnings"`
	WarningsCount int             `json:"warnings_count"`
	ReportFile    string          `json:"report_file,omitempty"`
	Report        json.RawMessage `json:"report,omitempty"`
}

func newLoadResponse(out *usecase.LoadOutcome) loadResponse {
	resp := loadResponse{
		View:          out.View,
		Warnings:      out.Warnings,
		WarningsCount: len(out.Warnings),
		ReportFile:    out.ReportFile,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if out.Report != nil {
		resp.Report = out.Report.Raw
	}
	return resp
}

// Analyze runs the classifier over a data file and makes it the current dataset.
// POST /api/analyze
func (h *DatasetHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		respondWithDomainError(w, h.logger, "invalid analyze request", err)
		return
	}

	out, err := h.uc.AnalyzeFile(r.Context(), req.FilePath)
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to analyze file", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newLoadResponse(out))
}

// OpenAnalysisReport makes a saved analysis report the current dataset.
// POST /api/reports/analysis/open
func (h *DatasetHandler) OpenAnalysisReport(w http.ResponseWriter, r *http.Request) {
	var req openReportRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		respondWithDomainError(w, h.logger, "invalid open report request", err)
		return
	}

	out, err := h.uc.OpenAnalysisReport(r.Context(), req.Name)
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to open analysis report", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newLoadResponse(out))
}

// Runs lists archived ingestions, newest first.
// GET /api/runs?limit=50
func (h *DatasetHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.uc.Runs(r.Context(), limit)
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to list runs", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}
