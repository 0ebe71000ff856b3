package usecase

import (
	"context"

	"github.com/V4T54L/log-lens/internal/domain"
)

// BackendAdminUseCase exposes the backend's file and health operations.
type BackendAdminUseCase struct {
	backend domain.AnalysisBackend
}

// NewBackendAdminUseCase creates a new BackendAdminUseCase.
func NewBackendAdminUseCase(backend domain.AnalysisBackend) *BackendAdminUseCase {
	return &BackendAdminUseCase{backend: backend}
}

func (uc *BackendAdminUseCase) Health(ctx context.Context) (*domain.BackendHealth, error) {
	return uc.backend.Health(ctx)
}

func (uc *BackendAdminUseCase) ListFiles(ctx context.Context, kind domain.FileKind) ([]domain.FileInfo, error) {
	return uc.backend.ListFiles(ctx, kind)
}

func (uc *BackendAdminUseCase) SplitFile(ctx context.Context, path string, maxMB float64) (*domain.SplitResult, error) {
	return uc.backend.SplitFile(ctx, path, maxMB)
}

func (uc *BackendAdminUseCase) AtomizeFile(ctx context.Context, path, outPath string) (*domain.AtomizeResult, error) {
	return uc.backend.AtomizeFile(ctx, path, outPath)
}
