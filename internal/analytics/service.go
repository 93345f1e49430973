package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskflow/internal/caching"
	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/repositories"

	"github.com/google/uuid"
)

const (
	// RecentWeekCount is how many populated week buckets the stats view reports.
	RecentWeekCount = 4

	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeYear  = "year"
)

var timeframeDays = map[string]int{
	TimeframeWeek:  7,
	TimeframeMonth: 30,
	TimeframeYear:  365,
}

// DashboardService computes read-only rollups over a user's personal tasks and caches them.
type DashboardService struct {
	repo  repositories.DashboardRepository
	cache caching.CacheService
	ttl   time.Duration
	now   func() time.Time
}

// NewDashboardService builds the aggregator. cache may be nil, in which case every call
// goes to the database.
func NewDashboardService(repo repositories.DashboardRepository, cache caching.CacheService, ttl time.Duration) *DashboardService {
	return &DashboardService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// ResolveTimeframe maps a timeframe name to its window length, falling back to month.
func ResolveTimeframe(timeframe string) (string, int) {
	if days, ok := timeframeDays[timeframe]; ok {
		return timeframe, days
	}
	return TimeframeMonth, timeframeDays[TimeframeMonth]
}

func (s *DashboardService) Stats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	key := caching.DashboardStatsKey(userID)

	var cached models.DashboardStats
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	weekStart := common.WeekStart(s.now())
	counts, err := s.repo.WeekCounts(ctx, userID, weekStart)
	if err != nil {
		return nil, common.NewInternalError(fmt.Errorf("counting current week: %w", err))
	}

	recent, err := s.repo.RecentWeeks(ctx, userID, RecentWeekCount)
	if err != nil {
		return nil, common.NewInternalError(fmt.Errorf("listing recent weeks: %w", err))
	}
	if recent == nil {
		recent = []models.WeeklyStats{}
	}

	stats := &models.DashboardStats{
		CurrentWeek: models.WeeklyStats{WeekStart: weekStart, StatusCounts: counts},
		RecentWeeks: recent,
	}
	s.writeCache(ctx, key, stats)
	return stats, nil
}

func (s *DashboardService) Analytics(ctx context.Context, userID uuid.UUID, timeframe string) (*models.Analytics, error) {
	timeframe, days := ResolveTimeframe(timeframe)
	key := caching.DashboardAnalyticsKey(userID, timeframe)

	var cached models.Analytics
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	since := s.now().UTC().AddDate(0, 0, -days)

	trend, err := s.repo.DailyTrend(ctx, userID, since)
	if err != nil {
		return nil, common.NewInternalError(fmt.Errorf("loading daily trend: %w", err))
	}
	priorities, err := s.repo.PriorityDistribution(ctx, userID, since)
	if err != nil {
		return nil, common.NewInternalError(fmt.Errorf("loading priority distribution: %w", err))
	}
	if trend == nil {
		trend = []models.DailyTrend{}
	}
	if priorities == nil {
		priorities = []models.PriorityBucket{}
	}

	result := &models.Analytics{
		Timeframe:            timeframe,
		Days:                 days,
		Since:                since,
		DailyTrend:           trend,
		PriorityDistribution: priorities,
	}
	s.writeCache(ctx, key, result)
	return result, nil
}

// InvalidateUser drops every cached dashboard view for the user.
func (s *DashboardService) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	keys := []string{caching.DashboardStatsKey(userID)}
	for timeframe := range timeframeDays {
		keys = append(keys, caching.DashboardAnalyticsKey(userID, timeframe))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "failed to invalidate dashboard cache", "user_id", userID, "error", err)
	}
}

func (s *DashboardService) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		slog.WarnContext(ctx, "dashboard cache read failed", "key", key, "error", err)
		return false
	}
	return found
}

func (s *DashboardService) writeCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		slog.WarnContext(ctx, "dashboard cache write failed", "key", key, "error", err)
	}
}
