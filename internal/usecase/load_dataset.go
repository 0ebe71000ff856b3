package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/adapter/pii"
	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/V4T54L/log-lens/internal/pipeline"
	"github.com/google/uuid"
)

// Ingestion origins, used as the metrics label and the dataset source prefix.
const (
	OriginAnalysis = "analysis"
	OriginReport   = "report"
	OriginSnapshot = "snapshot"
)

// LoadDatasetDeps wires LoadDatasetUseCase. Only Backend, Session and Logger are required.
type LoadDatasetDeps struct {
	Backend   domain.AnalysisBackend
	Session   *pipeline.Session
	Cache     domain.ReportCache
	Archive   domain.RunArchive
	Snapshots domain.SnapshotStore
	Publisher domain.DatasetPublisher
	Redactor  *pii.Redactor // masks record fields in the archived copy
	Metrics   *metrics.DashboardMetrics
	Logger    *slog.Logger
}

// LoadOutcome is what a successful load hands back to the caller.
type LoadOutcome struct {
	View       pipeline.View
	Warnings   []string
	ReportFile string
	Report     *domain.AnalysisReport
}

// LoadDatasetUseCase fetches datasets from the backend and makes them the
// session's current dataset.
type LoadDatasetUseCase struct {
	deps   LoadDatasetDeps
	logger *slog.Logger

	// loadMu orders session swap, archive, snapshot and publish so the
	// last snapshot and event always match the session's dataset.
	loadMu sync.Mutex
}

// NewLoadDatasetUseCase creates a new LoadDatasetUseCase.
func NewLoadDatasetUseCase(deps LoadDatasetDeps) *LoadDatasetUseCase {
	return &LoadDatasetUseCase{
		deps:   deps,
		logger: deps.Logger.With("component", "load_dataset"),
	}
}

// AnalyzeFile runs the backend classifier over a data file and ingests the result.
func (uc *LoadDatasetUseCase) AnalyzeFile(ctx context.Context, path string) (*LoadOutcome, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: file_path is required", domain.ErrInvalidInput)
	}

	payload, err := uc.deps.Backend.PredictFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("analysis of %s failed: %w", path, err)
	}

	view := uc.ingest(ctx, OriginAnalysis, path, *payload)
	return &LoadOutcome{
		View:       view,
		Warnings:   payload.Warnings,
		ReportFile: payload.ReportFile,
	}, nil
}

// OpenAnalysisReport loads a saved analysis report, from the cache when possible.
func (uc *LoadDatasetUseCase) OpenAnalysisReport(ctx context.Context, name string) (*LoadOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	report, err := uc.analysisReport(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis report %s: %w", name, err)
	}

	view := uc.ingest(ctx, OriginReport, name, report.Payload)
	return &LoadOutcome{
		View:       view,
		Warnings:   report.Payload.Warnings,
		ReportFile: report.Name,
		Report:     report,
	}, nil
}

// RestoreSnapshot makes the last saved dataset current again. A missing
// snapshot is not an error.
func (uc *LoadDatasetUseCase) RestoreSnapshot(ctx context.Context) error {
	if uc.deps.Snapshots == nil {
		return nil
	}
	ds, err := uc.deps.Snapshots.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		uc.logger.Info("no dataset snapshot to restore")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	uc.loadMu.Lock()
	defer uc.loadMu.Unlock()

	view := uc.deps.Session.Ingest(*ds)
	uc.publish(*ds, view)
	uc.observe(OriginSnapshot, view.Total)
	uc.logger.Info("dataset restored from snapshot", "dataset_id", ds.ID, "source", ds.Source, "logs", view.Total)
	return nil
}

// Runs lists archived runs, newest first.
func (uc *LoadDatasetUseCase) Runs(ctx context.Context, limit int) ([]domain.AnalysisRun, error) {
	if uc.deps.Archive == nil {
		return nil, fmt.Errorf("run archive: %w", domain.ErrDisabled)
	}
	return uc.deps.Archive.ListRuns(ctx, limit)
}

func (uc *LoadDatasetUseCase) analysisReport(ctx context.Context, name string) (*domain.AnalysisReport, error) {
	if uc.deps.Cache != nil {
		report, err := uc.deps.Cache.GetAnalysisReport(ctx, name)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			uc.logger.Warn("report cache lookup failed", "name", name, "error", err)
		}
	}

	report, err := uc.deps.Backend.AnalysisReport(ctx, name)
	if err != nil {
		return nil, err
	}

	if uc.deps.Cache != nil {
		if err := uc.deps.Cache.SetAnalysisReport(ctx, report); err != nil {
			uc.logger.Warn("failed to cache analysis report", "name", name, "error", err)
		}
	}
	return report, nil
}

// ingest replaces the session dataset, then archives, snapshots and announces it.
// Only the session swap must succeed; the rest is logged on failure.
func (uc *LoadDatasetUseCase) ingest(ctx context.Context, origin, name string, payload domain.AnalysisPayload) pipeline.View {
	uc.loadMu.Lock()
	defer uc.loadMu.Unlock()

	ds := domain.Dataset{
		ID:       uuid.NewString(),
		Source:   origin + ":" + name,
		LoadedAt: time.Now().UTC(),
		Logs:     payload.Logs,
		Results:  payload.Results,
		Warnings: payload.Warnings,
	}
	view := uc.deps.Session.Ingest(ds)

	aligned, _ := pipeline.AlignResults(ds.Logs, ds.Results)
	ds.Results = aligned

	if uc.deps.Archive != nil {
		summary := pipeline.Summarize(aligned)
		run := domain.AnalysisRun{
			ID:             ds.ID,
			Source:         ds.Source,
			LoadedAt:       ds.LoadedAt,
			Total:          len(ds.Logs),
			PriorityCounts: pipeline.Counts(summary.ByPriority),
			CategoryCounts: pipeline.Counts(summary.ByCategory),
			Warnings:       ds.Warnings,
		}
		archived, _ := uc.deps.Redactor.RedactDataset(ds)
		if err := uc.deps.Archive.RecordRun(ctx, run, archived); err != nil {
			uc.logger.Error("failed to archive run", "dataset_id", ds.ID, "error", err)
		}
	}

	if uc.deps.Snapshots != nil {
		if err := uc.deps.Snapshots.Save(ctx, ds); err != nil {
			uc.logger.Error("failed to save dataset snapshot", "dataset_id", ds.ID, "error", err)
		}
	}

	uc.publish(ds, view)
	uc.observe(origin, view.Total)
	uc.logger.Info("dataset loaded", "dataset_id", ds.ID, "source", ds.Source, "logs", view.Total, "warnings", len(ds.Warnings))
	return view
}

func (uc *LoadDatasetUseCase) publish(ds domain.Dataset, view pipeline.View) {
	if uc.deps.Publisher == nil {
		return
	}
	uc.deps.Publisher.PublishDataset(domain.DatasetEvent{
		DatasetID: ds.ID,
		Source:    ds.Source,
		Total:     view.Total,
		Warnings:  len(ds.Warnings),
		LoadedAt:  ds.LoadedAt,
	})
}

func (uc *LoadDatasetUseCase) observe(origin string, total int) {
	if uc.deps.Metrics == nil {
		return
	}
	uc.deps.Metrics.IngestionsTotal.WithLabelValues(origin).Inc()
	uc.deps.Metrics.DatasetRecords.Set(float64(total))
}
