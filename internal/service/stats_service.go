package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
)

const (
	defaultStatsWindowDays  = 30
	maxStatsWindowDays      = 365
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type statsRepository interface {
	Totals(ctx context.Context) (int, int, error)
	CountByCategory(ctx context.Context) ([]models.CategoryCount, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	DailyCounts(ctx context.Context, since time.Time) ([]models.DailyCount, error)
	TopAddresses(ctx context.Context, limit int) ([]models.AddressCount, error)
}

type leaderboardRepository interface {
	Leaderboard(ctx context.Context, by string, limit int) ([]models.LeaderboardEntry, error)
	CountByLevel(ctx context.Context) ([]models.LevelCount, error)
}

// StatsService builds dashboard aggregates, caching them when enabled.
type StatsService struct {
	stats  statsRepository
	users  leaderboardRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService constructs a StatsService.
func NewStatsService(stats statsRepository, users leaderboardRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{stats: stats, users: users, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// ReportStats summarises reports. days bounds the daily histogram. The bool
// result reports a cache hit.
func (s *StatsService) ReportStats(ctx context.Context, days int) (*models.ReportStats, bool, error) {
	if days <= 0 || days > maxStatsWindowDays {
		days = defaultStatsWindowDays
	}
	key := CacheKey(cacheNamespaceStats, "reports", strconv.Itoa(days))
	hit, value, err := s.cache.Remember(ctx, key, s.ttl, &models.ReportStats{}, func() (interface{}, error) {
		return s.computeReportStats(ctx, days)
	})
	if err != nil {
		return nil, false, err
	}
	return value.(*models.ReportStats), hit, nil
}

func (s *StatsService) computeReportStats(ctx context.Context, days int) (*models.ReportStats, error) {
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))
	result := &models.ReportStats{Since: since, GeneratedAt: now}

	var err error
	if result.Total, result.Verified, err = s.stats.Totals(ctx); err != nil {
		return nil, aggregateErr(err, "count reports")
	}
	if result.ByCategory, err = s.stats.CountByCategory(ctx); err != nil {
		return nil, aggregateErr(err, "aggregate categories")
	}
	if result.ByStatus, err = s.stats.CountByStatus(ctx); err != nil {
		return nil, aggregateErr(err, "aggregate statuses")
	}
	daily, err := s.stats.DailyCounts(ctx, since)
	if err != nil {
		return nil, aggregateErr(err, "aggregate daily counts")
	}
	result.Daily = fillDays(daily, since, days)
	if result.TopAddresses, err = s.stats.TopAddresses(ctx, 10); err != nil {
		return nil, aggregateErr(err, "aggregate addresses")
	}
	return result, nil
}

// Leaderboard ranks active users by points or by number of reports.
func (s *StatsService) Leaderboard(ctx context.Context, by string, limit int) (*models.Leaderboard, bool, error) {
	if by != "reports" {
		by = "points"
	}
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}
	key := CacheKey(cacheNamespaceLeaderboard, by, strconv.Itoa(limit))
	hit, value, err := s.cache.Remember(ctx, key, s.ttl, &models.Leaderboard{}, func() (interface{}, error) {
		entries, err := s.users.Leaderboard(ctx, by, limit)
		if err != nil {
			return nil, aggregateErr(err, "load leaderboard")
		}
		if entries == nil {
			entries = []models.LeaderboardEntry{}
		}
		for i := range entries {
			entries[i].Rank = i + 1
		}
		levels, err := s.users.CountByLevel(ctx)
		if err != nil {
			return nil, aggregateErr(err, "count levels")
		}
		return &models.Leaderboard{By: by, Entries: entries, Levels: levels, GeneratedAt: s.now().UTC()}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.(*models.Leaderboard), hit, nil
}

func aggregateErr(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+what)
}

// fillDays returns one entry per day starting at since, zero-filling gaps.
func fillDays(counts []models.DailyCount, since time.Time, days int) []models.DailyCount {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Day.UTC().Format("2006-01-02")] = c.Count
	}
	out := make([]models.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i)
		out = append(out, models.DailyCount{Day: day, Count: byDay[day.Format("2006-01-02")]})
	}
	return out
}
