package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/V4T54L/log-lens/internal/domain"
)

// TrainingUseCase runs model training and serves training reports.
type TrainingUseCase struct {
	backend domain.AnalysisBackend
	cache   domain.ReportCache
	logger  *slog.Logger
}

// NewTrainingUseCase creates a new TrainingUseCase. cache may be nil.
func NewTrainingUseCase(backend domain.AnalysisBackend, cache domain.ReportCache, logger *slog.Logger) *TrainingUseCase {
	return &TrainingUseCase{
		backend: backend,
		cache:   cache,
		logger:  logger.With("component", "training"),
	}
}

// Train retrains the backend models and caches the resulting report under its file name.
func (uc *TrainingUseCase) Train(ctx context.Context, dataFile string) (*domain.TrainingOutcome, error) {
	outcome, err := uc.backend.Train(ctx, dataFile)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}
	uc.logger.Info("training finished", "data_file", dataFile, "report_file", outcome.ReportFile, "duration", outcome.Duration)

	if uc.cache != nil && outcome.ReportFile != "" {
		if err := uc.cache.SetTrainingReport(ctx, &outcome.Report); err != nil {
			uc.logger.Warn("failed to cache training report", "name", outcome.ReportFile, "error", err)
		}
	}
	return outcome, nil
}

// Report returns a saved training report, from the cache when possible.
func (uc *TrainingUseCase) Report(ctx context.Context, name string) (*domain.TrainingReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	if uc.cache != nil {
		report, err := uc.cache.GetTrainingReport(ctx, name)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			uc.logger.Warn("report cache lookup failed", "name", name, "error", err)
		}
	}

	report, err := uc.backend.TrainingReport(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch training report %s: %w", name, err)
	}

	if uc.cache != nil {
		if err := uc.cache.SetTrainingReport(ctx, report); err != nil {
			uc.logger.Warn("failed to cache training report", "name", name, "error", err)
		}
	}
	return report, nil
}

// FormatTrainingReport renders a report as plain text, one block per section:
//
//	Priority:
//	  high | p:0.90 r:0.80 f1:0.85 s:12
//	  accuracy: 0.875
func FormatTrainingReport(report *domain.TrainingReport) string {
	if report == nil {
		return ""
	}
	var lines []string
	for _, section := range report.Sections {
		if !section.Present {
			lines = append(lines, section.Label+": no report", "")
			continue
		}
		lines = append(lines, section.Label+":")
		for _, entry := range section.Entries {
			if entry.Metrics == nil {
				lines = append(lines, fmt.Sprintf("  %s: %s", entry.Name, entry.Value))
				continue
			}
			m := entry.Metrics
			support := m.Support
			if support == "" {
				support = "-"
			}
			lines = append(lines, fmt.Sprintf("  %s | p:%s r:%s f1:%s s:%s",
				entry.Name, fixed2(m.Precision), fixed2(m.Recall), fixed2(m.F1), support))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func fixed2(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *f)
}
