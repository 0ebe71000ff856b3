package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestReportCache_UnavailableOnStartup(t *testing.T) {
	m := metrics.NewDashboardMetrics(prometheus.NewRegistry())
	cache := NewReportCache(unreachableClient(t), time.Minute, m, testLogger())
	ctx := context.Background()

	if cache.Available() {
		t.Fatal("expected cache to be unavailable when Redis cannot be reached")
	}

	if err := cache.SetAnalysisReport(ctx, &domain.AnalysisReport{Name: "analysis_1.json"}); err != nil {
		t.Errorf("expected write to be skipped silently, got %v", err)
	}
	if err := cache.SetTrainingReport(ctx, &domain.TrainingReport{Name: "training_1.json"}); err != nil {
		t.Errorf("expected write to be skipped silently, got %v", err)
	}

	if _, err := cache.GetAnalysisReport(ctx, "analysis_1.json"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if _, err := cache.GetTrainingReport(ctx, "training_1.json"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestReportCache_ConnectionLossMarksUnavailable(t *testing.T) {
	cache := NewReportCache(unreachableClient(t), time.Minute, nil, testLogger())
	ctx := context.Background()

	// Pretend Redis was up when the cache was built.
	cache.isAvailable.Store(true)

	if _, err := cache.GetAnalysisReport(ctx, "analysis_1.json"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
	if cache.Available() {
		t.Error("expected a network error to mark the cache unavailable")
	}

	if err := cache.SetAnalysisReport(ctx, &domain.AnalysisReport{Name: "analysis_1.json"}); err != nil {
		t.Errorf("expected writes to be skipped once unavailable, got %v", err)
	}
}

func TestReportCache_HealthCheckStopsWithContext(t *testing.T) {
	cache := NewReportCache(unreachableClient(t), time.Minute, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.StartHealthCheck(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("health check did not stop after cancellation")
	}
	if cache.Available() {
		t.Error("expected cache to stay unavailable while Redis is down")
	}
}
