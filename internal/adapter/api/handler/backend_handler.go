package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/V4T54L/log-lens/internal/usecase"
)

// healthCheckTimeout bounds the synchronous check /health makes before the monitor's first poll.
const healthCheckTimeout = 2 * time.Second

// BackendHandler proxies file, training and health operations to the backend.
type BackendHandler struct {
	admin    *usecase.BackendAdminUseCase
	training *usecase.TrainingUseCase
	monitor  *usecase.HealthMonitor
	logger   *slog.Logger
	maxBytes int64

	healthTimeout time.Duration
}

// NewBackendHandler creates a new BackendHandler.
func NewBackendHandler(admin *usecase.BackendAdminUseCase, training *usecase.TrainingUseCase, monitor *usecase.HealthMonitor, logger *slog.Logger, maxBytes int64) *BackendHandler {
	return &BackendHandler{
		admin:    admin,
		training: training,
		monitor:  monitor,
		logger:   logger,
		maxBytes: maxBytes,

		healthTimeout: healthCheckTimeout,
	}
}

type fileView struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SizeKB int64  `json:"size_kb"`
}

func newFileViews(files []domain.FileInfo) []fileView {
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView{Name: f.Name, Path: f.Path, Size: f.Size, SizeKB: f.SizeKB()})
	}
	return out
}

type trainRequest struct {
	DataPath string `json:"data_path"`
}

type splitRequest struct {
	FilePath string  `json:"file_path"`
	MaxMB    float64 `json:"max_mb"`
}

type atomizeRequest struct {
	FilePath string `json:"file_path"`
	OutPath  string `json:"out_path"`
}

type trainingReportResponse struct {
	Report     *domain.TrainingReport `json:"report"`
	Text       string                 `json:"text"`
	ReportFile string                 `json:"report_file,omitempty"`
	DurationMS int64                  `json:"duration_ms,omitempty"`
}

// Health reports this service's status together with the last backend check.
// GET /health
func (h *BackendHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.monitor.Status()
	if status.CheckedAt.IsZero() {
		ctx, cancel := context.WithTimeout(r.Context(), h.healthTimeout)
		status = h.monitor.Check(ctx)
		cancel()
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"backend": status,
	})
}

// ListFiles returns one of the backend's file listings.
// GET /api/files/{kind}
func (h *BackendHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	kind := domain.FileKind(r.PathValue("kind"))
	if !kind.Valid() {
		respondWithError(w, http.StatusNotFound, "unknown file listing")
		return
	}

	files, err := h.admin.ListFiles(r.Context(), kind)
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to list files", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"files": newFileViews(files)})
}

// Train retrains the backend models.
// POST /api/train
func (h *BackendHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		respondWithDomainError(w, h.logger, "invalid train request", err)
		return
	}

	outcome, err := h.training.Train(r.Context(), req.DataPath)
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to train models", err)
		return
	}
	respondWithJSON(w, http.StatusOK, trainingReportResponse{
		Report:     &outcome.Report,
		Text:       usecase.FormatTrainingReport(&outcome.Report),
		ReportFile: outcome.ReportFile,
		DurationMS: outcome.Duration.Milliseconds(),
	})
}

// TrainingReport returns a saved training report with its text rendering.
// GET /api/reports/training?name=
func (h *BackendHandler) TrainingReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.training.Report(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to get training report", err)
		return
	}
	respondWithJSON(w, http.StatusOK, trainingReportResponse{
		Report:     report,
		Text:       usecase.FormatTrainingReport(report),
		ReportFile: report.Name,
	})
}

// Split splits a data file into parts on the backend.
// POST /api/split
func (h *BackendHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		respondWithDomainError(w, h.logger, "invalid split request", err)
		return
	}

	res, err := h.admin.SplitFile(r.Context(), req.FilePath, req.MaxMB)
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to split file", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":    res.Count,
		"parts":    newFileViews(res.Parts),
		"max_mb":   res.MaxMB,
		"warnings": res.Warnings,
	})
}

// Atomize converts a raw log into a JSONL data file on the backend.
// POST /api/atomize
func (h *BackendHandler) Atomize(w http.ResponseWriter, r *http.Request) {
	var req atomizeRequest
	if err := decodeJSON(w, r, h.maxBytes, &req); err != nil {
		respondWithDomainError(w, h.logger, "invalid atomize request", err)
		return
	}

	res, err := h.admin.AtomizeFile(r.Context(), req.FilePath, req.OutPath)
	if err != nil {
		respondWithDomainError(w, h.logger, "failed to atomize file", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
