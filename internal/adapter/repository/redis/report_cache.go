package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	analysisKeyPrefix = "log_lens:report:analysis:"
	trainingKeyPrefix = "log_lens:report:training:"
)

// ReportCache implements domain.ReportCache on Redis. While Redis is
// unreachable every lookup is a miss and writes are skipped, so callers
// always fall through to the backend.
type ReportCache struct {
	client      *redis.Client
	ttl         time.Duration
	logger      *slog.Logger
	metrics     *metrics.DashboardMetrics
	isAvailable atomic.Bool
}

// NewReportCache creates a Redis-backed report cache. The metrics argument may be nil.
func NewReportCache(client *redis.Client, ttl time.Duration, m *metrics.DashboardMetrics, logger *slog.Logger) *ReportCache {
	c := &ReportCache{
		client:  client,
		ttl:     ttl,
		logger:  logger.With("component", "report_cache"),
		metrics: m,
	}
	c.isAvailable.Store(true) // Assume available initially

	if err := client.Ping(context.Background()).Err(); err != nil {
		c.isAvailable.Store(false)
		c.logger.Error("Redis unavailable on startup, report cache disabled until it recovers", "error", err)
	}
	return c
}

// Available reports whether the last health check reached Redis.
func (c *ReportCache) Available() bool {
	return c.isAvailable.Load()
}

// StartHealthCheck pings Redis every interval and flips availability until ctx is done.
func (c *ReportCache) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("Starting Redis health check")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping Redis health check")
			return
		case <-ticker.C:
			if err := c.client.Ping(ctx).Err(); err != nil {
				if c.isAvailable.CompareAndSwap(true, false) {
					c.logger.Error("Redis connection lost", "error", err)
				}
			} else if c.isAvailable.CompareAndSwap(false, true) {
				c.logger.Info("Redis connection recovered")
			}
		}
	}
}

// GetAnalysisReport returns a cached analysis report or domain.ErrCacheMiss.
func (c *ReportCache) GetAnalysisReport(ctx context.Context, name string) (*domain.AnalysisReport, error) {
	var report domain.AnalysisReport
	if err := c.get(ctx, analysisKeyPrefix+name, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// SetAnalysisReport caches an analysis report under its name.
func (c *ReportCache) SetAnalysisReport(ctx context.Context, report *domain.AnalysisReport) error {
	return c.set(ctx, analysisKeyPrefix+report.Name, report)
}

// GetTrainingReport returns a cached training report or domain.ErrCacheMiss.
func (c *ReportCache) GetTrainingReport(ctx context.Context, name string) (*domain.TrainingReport, error) {
	var report domain.TrainingReport
	if err := c.get(ctx, trainingKeyPrefix+name, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// SetTrainingReport caches a training report under its name.
func (c *ReportCache) SetTrainingReport(ctx context.Context, report *domain.TrainingReport) error {
	return c.set(ctx, trainingKeyPrefix+report.Name, report)
}

func (c *ReportCache) get(ctx context.Context, key string, dst any) error {
	if !c.isAvailable.Load() {
		c.miss()
		return domain.ErrCacheMiss
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		c.miss()
		if errors.Is(err, redis.Nil) {
			return domain.ErrCacheMiss
		}
		c.markUnavailable(err)
		return fmt.Errorf("%w: %v", domain.ErrCacheMiss, err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		c.miss()
		c.logger.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		c.client.Del(ctx, key)
		return domain.ErrCacheMiss
	}

	if c.metrics != nil {
		c.metrics.ReportCacheHits.Inc()
	}
	return nil
}

func (c *ReportCache) set(ctx context.Context, key string, value any) error {
	if !c.isAvailable.Load() {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal report for cache: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.markUnavailable(err)
		return fmt.Errorf("failed to cache report %s: %w", key, err)
	}
	return nil
}

func (c *ReportCache) miss() {
	if c.metrics != nil {
		c.metrics.ReportCacheMisses.Inc()
	}
}

func (c *ReportCache) markUnavailable(err error) {
	if isNetworkError(err) && c.isAvailable.CompareAndSwap(true, false) {
		c.logger.Error("Redis connection lost during cache access", "error", err)
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
