package domain

import "context"

// AnalysisBackend is the HTTP API that parses, classifies and stores log files.
type AnalysisBackend interface {
	Health(ctx context.Context) (*BackendHealth, error)
	ListFiles(ctx context.Context, kind FileKind) ([]FileInfo, error)
	PredictFile(ctx context.Context, path string) (*AnalysisPayload, error)
	AnalysisReport(ctx context.Context, name string) (*AnalysisReport, error)
	TrainingReport(ctx context.Context, name string) (*TrainingReport, error)
	Train(ctx context.Context, dataFile string) (*TrainingOutcome, error)
	SplitFile(ctx context.Context, path string, maxMB float64) (*SplitResult, error)
	AtomizeFile(ctx context.Context, path, outPath string) (*AtomizeResult, error)
}

// ReportCache stores saved reports, which never change once written by the backend.
// Get methods return ErrCacheMiss when nothing is cached.
type ReportCache interface {
	GetAnalysisReport(ctx context.Context, name string) (*AnalysisReport, error)
	SetAnalysisReport(ctx context.Context, report *AnalysisReport) error
	GetTrainingReport(ctx context.Context, name string) (*TrainingReport, error)
	SetTrainingReport(ctx context.Context, report *TrainingReport) error
}

// RunArchive keeps a history of ingested datasets. RecordRun stores the run
// summary together with the dataset's records.
type RunArchive interface {
	RecordRun(ctx context.Context, run AnalysisRun, ds Dataset) error
	ListRuns(ctx context.Context, limit int) ([]AnalysisRun, error)
}

// SnapshotStore persists the current dataset so it survives a restart.
// Load returns ErrNotFound when no snapshot exists.
type SnapshotStore interface {
	Save(ctx context.Context, ds Dataset) error
	Load(ctx context.Context) (*Dataset, error)
}

// DatasetPublisher notifies connected clients about dataset replacements.
type DatasetPublisher interface {
	PublishDataset(event DatasetEvent)
}

// APIKeyRepository defines the interface for validating API keys.
type APIKeyRepository interface {
	// IsValid checks if the provided API key is valid and active.
	IsValid(ctx context.Context, key string) (bool, error)
}
