package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
)

// Cache key namespaces. Every report or user mutation drops both.
const (
	cacheNamespaceStats       = "stats"
	cacheNamespaceLeaderboard = "leaderboard"
)

// CacheRepository is the storage behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts aggregate reads with a read-through cache. A nil
// *CacheService behaves as a disabled cache.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger.Named("cache"), enabled: enabled}
}

// CacheKey joins key parts with ':'.
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get fills dest from the cache and reports whether it did.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return false, nil
	}
	s.logger.Warn("read failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores value under key. A non-positive ttl uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Remember returns dest filled from the cache on a hit. On a miss it calls
// load, caches the result and returns it. Cache failures never fail the
// call; load errors are returned unchanged.
func (s *CacheService) Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() (interface{}, error)) (bool, interface{}, error) {
	if hit, _ := s.Get(ctx, key, dest); hit {
		return true, dest, nil
	}
	value, err := load()
	if err != nil {
		return false, nil, err
	}
	_ = s.Set(ctx, key, value, ttl)
	return false, value, nil
}

// Invalidate removes cached values matching pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateAggregates drops cached stats and leaderboards. Failures are
// logged only; stale entries expire with their TTL.
func (s *CacheService) InvalidateAggregates(ctx context.Context) {
	for _, ns := range []string{cacheNamespaceStats, cacheNamespaceLeaderboard} {
		_ = s.Invalidate(ctx, ns+":*")
	}
}
