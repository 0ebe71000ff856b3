package mocks

import (
	"context"
	"sync"

	"github.com/V4T54L/log-lens/internal/domain"
)

// MockBackend is a mock implementation of domain.AnalysisBackend for testing.
type MockBackend struct {
	mu sync.Mutex

	HealthResult   *domain.BackendHealth
	Files          map[domain.FileKind][]domain.FileInfo
	Payload        *domain.AnalysisPayload
	Analysis       map[string]*domain.AnalysisReport
	Training       map[string]*domain.TrainingReport
	TrainResult    *domain.TrainingOutcome
	SplitResult    *domain.SplitResult
	AtomizeResult  *domain.AtomizeResult
	Err            error
	AnalysisCalls  int
	TrainingCalls  int
	PredictedPaths []string
	TrainedFiles   []string
}

func (m *MockBackend) Health(ctx context.Context) (*domain.BackendHealth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.HealthResult, nil
}

func (m *MockBackend) ListFiles(ctx context.Context, kind domain.FileKind) ([]domain.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Files[kind], nil
}

func (m *MockBackend) PredictFile(ctx context.Context, path string) (*domain.AnalysisPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PredictedPaths = append(m.PredictedPaths, path)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Payload, nil
}

func (m *MockBackend) AnalysisReport(ctx context.Context, name string) (*domain.AnalysisReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalysisCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	report, ok := m.Analysis[name]
	if !ok {
		return nil, &domain.BackendError{StatusCode: 400, Message: "file not found or not allowed"}
	}
	return report, nil
}

func (m *MockBackend) TrainingReport(ctx context.Context, name string) (*domain.TrainingReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrainingCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	report, ok := m.Training[name]
	if !ok {
		return nil, &domain.BackendError{StatusCode: 400, Message: "file not found or not allowed"}
	}
	return report, nil
}

func (m *MockBackend) Train(ctx context.Context, dataFile string) (*domain.TrainingOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrainedFiles = append(m.TrainedFiles, dataFile)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.TrainResult, nil
}

func (m *MockBackend) SplitFile(ctx context.Context, path string, maxMB float64) (*domain.SplitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.SplitResult, nil
}

func (m *MockBackend) AtomizeFile(ctx context.Context, path, outPath string) (*domain.AtomizeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.AtomizeResult, nil
}

// MockReportCache is an in-memory domain.ReportCache.
type MockReportCache struct {
	mu       sync.Mutex
	Analysis map[string]*domain.AnalysisReport
	Training map[string]*domain.TrainingReport
	SetErr   error
}

func (m *MockReportCache) GetAnalysisReport(ctx context.Context, name string) (*domain.AnalysisReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Analysis[name]; ok {
		return r, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockReportCache) SetAnalysisReport(ctx context.Context, report *domain.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Analysis == nil {
		m.Analysis = make(map[string]*domain.AnalysisReport)
	}
	m.Analysis[report.Name] = report
	return nil
}

func (m *MockReportCache) GetTrainingReport(ctx context.Context, name string) (*domain.TrainingReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Training[name]; ok {
		return r, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockReportCache) SetTrainingReport(ctx context.Context, report *domain.TrainingReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if m.Training == nil {
		m.Training = make(map[string]*domain.TrainingReport)
	}
	m.Training[report.Name] = report
	return nil
}

// MockRunArchive is a mock implementation of domain.RunArchive.
type MockRunArchive struct {
	mu        sync.Mutex
	Runs      []domain.AnalysisRun
	Datasets  []domain.Dataset
	RecordErr error
	ListErr   error
}

func (m *MockRunArchive) RecordRun(ctx context.Context, run domain.AnalysisRun, ds domain.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Runs = append(m.Runs, run)
	m.Datasets = append(m.Datasets, ds)
	return nil
}

func (m *MockRunArchive) ListRuns(ctx context.Context, limit int) ([]domain.AnalysisRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	runs := make([]domain.AnalysisRun, 0, len(m.Runs))
	for i := len(m.Runs) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, m.Runs[i])
	}
	return runs, nil
}

// MockSnapshotStore is an in-memory domain.SnapshotStore.
type MockSnapshotStore struct {
	mu      sync.Mutex
	Saved   *domain.Dataset
	Saves   int
	SaveErr error
	LoadErr error
}

func (m *MockSnapshotStore) Save(ctx context.Context, ds domain.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Saved = &ds
	return nil
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*domain.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Saved == nil {
		return nil, domain.ErrNotFound
	}
	return m.Saved, nil
}

// MockPublisher records published dataset events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []domain.DatasetEvent
}

func (m *MockPublisher) PublishDataset(event domain.DatasetEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}
