package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/log-lens/internal/domain"
)

const (
	defaultHealthRetries = 3
	defaultHealthBackoff = 1 * time.Second
)

// BackendStatus is the last observed backend health.
type BackendStatus struct {
	Reachable bool                  `json:"reachable"`
	Health    *domain.BackendHealth `json:"health,omitempty"`
	Error     string                `json:"error,omitempty"`
	CheckedAt time.Time             `json:"checked_at"`
}

// HealthMonitor polls the backend's health so status requests never wait on it.
type HealthMonitor struct {
	backend domain.AnalysisBackend
	logger  *slog.Logger
	backoff time.Duration
	after   func(time.Duration) <-chan time.Time

	mu     sync.RWMutex
	status BackendStatus
}

// NewHealthMonitor creates a new HealthMonitor.
func NewHealthMonitor(backend domain.AnalysisBackend, logger *slog.Logger) *HealthMonitor {
	return &HealthMonitor{
		backend: backend,
		logger:  logger.With("component", "health_monitor"),
		backoff: defaultHealthBackoff,
		after:   time.After,
	}
}

// Status returns the last observed status.
func (m *HealthMonitor) Status() BackendStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check queries the backend, retrying a few times before marking it unreachable.
// A check cut short by ctx leaves the last status in place.
func (m *HealthMonitor) Check(ctx context.Context) BackendStatus {
	var lastErr error
	for i := 0; i < defaultHealthRetries; i++ {
		health, err := m.backend.Health(ctx)
		if err == nil {
			return m.record(BackendStatus{Reachable: true, Health: health, CheckedAt: time.Now().UTC()})
		}
		lastErr = err
		if ctx.Err() != nil {
			return m.Status()
		}
		if i == defaultHealthRetries-1 {
			break
		}
		m.logger.Debug("backend health check failed, retrying", "attempt", i+1, "error", err)
		select {
		case <-m.after(m.backoff):
		case <-ctx.Done():
			return m.Status()
		}
	}
	return m.record(BackendStatus{Error: lastErr.Error(), CheckedAt: time.Now().UTC()})
}

// Run checks immediately and then every interval until ctx is done.
func (m *HealthMonitor) Run(ctx context.Context, interval time.Duration) {
	m.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Stopping backend health monitor")
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

func (m *HealthMonitor) record(status BackendStatus) BackendStatus {
	m.mu.Lock()
	prev := m.status
	m.status = status
	m.mu.Unlock()

	if prev.CheckedAt.IsZero() || prev.Reachable != status.Reachable {
		if status.Reachable {
			m.logger.Info("backend reachable")
		} else {
			m.logger.Warn("backend unreachable", "error", status.Error)
		}
	}
	return status
}
