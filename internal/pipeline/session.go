package pipeline

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/V4T54L/log-lens/internal/domain"
)

// View is everything the dashboard renders for the current dataset and viewer state.
type View struct {
	DatasetID string       `json:"dataset_id,omitempty"`
	Source    string       `json:"source,omitempty"`
	LoadedAt  *time.Time   `json:"loaded_at,omitempty"`
	Total     int          `json:"total"`
	Filtered  int          `json:"filtered"`
	Criteria  Criteria     `json:"criteria"`
	Group     GroupMode    `json:"group"`
	Warnings  []string     `json:"warnings,omitempty"`
	Summary   Summary      `json:"summary"`
	Stats     []StatsTable `json:"stats"`
	Page      Page         `json:"page"`
}

// Session holds exactly one dataset plus the viewer state. Ingest swaps the
// dataset as a whole; the filtered pair is always re-derived from it.
type Session struct {
	logger *slog.Logger

	mu              sync.RWMutex
	dataset         domain.Dataset
	criteria        Criteria
	group           GroupMode
	page            int
	filteredLogs    []domain.LogRecord
	filteredResults []domain.ClassificationResult
}

// NewSession creates a session holding an empty dataset.
func NewSession(logger *slog.Logger) *Session {
	return &Session{
		logger:          logger.With("component", "result_pipeline"),
		group:           GroupNone,
		page:            1,
		filteredLogs:    []domain.LogRecord{},
		filteredResults: []domain.ClassificationResult{},
	}
}

// Ingest replaces the dataset, re-applies the current criteria and resets to page 1.
// Results are aligned to the logs: missing ones become empty, surplus ones are dropped.
func (s *Session) Ingest(ds domain.Dataset) View {
	logs := slices.Clone(ds.Logs)
	if logs == nil {
		logs = []domain.LogRecord{}
	}
	results, dropped := AlignResults(logs, ds.Results)
	if dropped > 0 {
		s.logger.Warn("dropping results without a matching log", "dataset_id", ds.ID, "dropped", dropped)
	}
	ds.Logs = logs
	ds.Results = results
	ds.Warnings = slices.Clone(ds.Warnings)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
	s.refilterLocked()
	s.page = 1
	s.logger.Info("dataset ingested", "dataset_id", ds.ID, "source", ds.Source, "logs", len(logs), "filtered", len(s.filteredLogs))
	return s.viewLocked()
}

// Dataset returns the current canonical dataset. Callers must not mutate its slices.
func (s *Session) Dataset() domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// ApplyFilters sets criteria and group mode and re-derives the filtered pair.
// The page resets to 1 unless preservePage is set, in which case it is only clamped.
func (s *Session) ApplyFilters(c Criteria, group GroupMode, preservePage bool) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c.Normalize()
	s.group = group
	s.refilterLocked()
	if !preservePage {
		s.page = 1
	}
	return s.viewLocked()
}

// GoToPage moves to page n under the current criteria, clamped to the valid range.
func (s *Session) GoToPage(n int) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ClampPage(n, TotalPages(len(s.filteredLogs)))
	return s.viewLocked()
}

// NextPage advances one page, staying on the last page.
func (s *Session) NextPage() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ClampPage(s.page+1, TotalPages(len(s.filteredLogs)))
	return s.viewLocked()
}

// PrevPage goes back one page, staying on the first page.
func (s *Session) PrevPage() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = ClampPage(s.page-1, TotalPages(len(s.filteredLogs)))
	return s.viewLocked()
}

// View renders the current state without changing it.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *Session) refilterLocked() {
	s.filteredLogs, s.filteredResults = Filter(s.dataset.Logs, s.dataset.Results, s.criteria)
	s.page = ClampPage(s.page, TotalPages(len(s.filteredLogs)))
}

func (s *Session) viewLocked() View {
	page := Paginate(s.filteredLogs, s.filteredResults, s.page, s.group)
	v := View{
		DatasetID: s.dataset.ID,
		Source:    s.dataset.Source,
		Total:     len(s.dataset.Logs),
		Filtered:  len(s.filteredLogs),
		Criteria:  s.criteria,
		Group:     s.group,
		Warnings:  s.dataset.Warnings,
		Summary:   Summarize(s.filteredResults),
		Stats:     ComputeStats(s.filteredLogs, s.filteredResults),
		Page:      page,
	}
	if !s.dataset.LoadedAt.IsZero() {
		loadedAt := s.dataset.LoadedAt
		v.LoadedAt = &loadedAt
	}
	return v
}
