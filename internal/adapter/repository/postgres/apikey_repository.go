package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/domain"
)

// validKeyLookup reports whether key is active and unexpired.
const validKeyLookup = `SELECT EXISTS(SELECT 1 FROM dashboard_api_keys WHERE key = $1 AND is_active = true AND (expires_at IS NULL OR expires_at > NOW()))`

// APIKeyRepository implements domain.APIKeyRepository. Static keys are tried
// first, then a cache of keys the database recently accepted, then the
// dashboard_api_keys table. Rejected keys are never cached, so the cache only
// grows with real keys.
type APIKeyRepository struct {
	db       *sql.DB
	static   domain.APIKeyRepository
	logger   *slog.Logger
	cacheTTL time.Duration
	metrics  *metrics.DashboardMetrics

	mu    sync.RWMutex
	valid map[string]time.Time // key -> expiry of the cached acceptance
	now   func() time.Time
}

// NewAPIKeyRepository creates a new PostgreSQL API key repository. static and m may be nil.
func NewAPIKeyRepository(db *sql.DB, static domain.APIKeyRepository, cacheTTL time.Duration, m *metrics.DashboardMetrics, logger *slog.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:       db,
		static:   static,
		logger:   logger.With("component", "apikey_repository"),
		cacheTTL: cacheTTL,
		metrics:  m,
		valid:    make(map[string]time.Time),
		now:      time.Now,
	}
}

// IsValid checks the static keys, then the cache, then the database.
func (r *APIKeyRepository) IsValid(ctx context.Context, key string) (bool, error) {
	if r.static != nil {
		if ok, _ := r.static.IsValid(ctx, key); ok {
			return true, nil
		}
	}

	if r.cached(key) {
		if r.metrics != nil {
			r.metrics.APIKeyCacheHits.Inc()
		}
		return true, nil
	}
	if r.metrics != nil {
		r.metrics.APIKeyCacheMisses.Inc()
	}

	var isValid bool
	if err := r.db.QueryRowContext(ctx, validKeyLookup, key).Scan(&isValid); err != nil {
		r.logger.Error("failed to validate API key in database", "error", err)
		return false, fmt.Errorf("failed to validate API key: %w", err)
	}
	if isValid {
		r.remember(key)
	}
	return isValid, nil
}

func (r *APIKeyRepository) cached(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	expiresAt, ok := r.valid[key]
	return ok && r.now().Before(expiresAt)
}

// remember caches an accepted key and drops entries that have expired.
func (r *APIKeyRepository) remember(key string) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, expiresAt := range r.valid {
		if !now.Before(expiresAt) {
			delete(r.valid, k)
		}
	}
	r.valid[key] = now.Add(r.cacheTTL)
}

// EnsureSchema creates the key table if it does not exist.
func (r *APIKeyRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS dashboard_api_keys (
			key        TEXT PRIMARY KEY,
			is_active  BOOLEAN NOT NULL DEFAULT true,
			expires_at TIMESTAMPTZ
		)`)
	return err
}
