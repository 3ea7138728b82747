package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siap-api/internal/models"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
)

const statsCachePattern = "stats:*"

type statsRepository interface {
	CountByMonth(ctx context.Context, monthYear string, excludeRestricted bool) (int, error)
	MonthlyUploads(ctx context.Context, until time.Time, excludeRestricted bool) ([]models.MonthlyUpload, error)
	Summary(ctx context.Context, monthYear string, excludeRestricted bool) (*models.DocumentSummary, error)
}

// StatsService serves dashboard counters, cached per month and per audience.
type StatsService struct {
	repo    statsRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// StatsServiceParams groups the dependencies of StatsService.
type StatsServiceParams struct {
	Repo    statsRepository
	Cache   *CacheService
	Metrics *MetricsService
	TTL     time.Duration
	Logger  *zap.Logger

	// Location must match DocumentServiceConfig.Location.
	Location *time.Location
}

// NewStatsService constructs a StatsService.
func NewStatsService(params StatsServiceParams) *StatsService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		repo:    params.Repo,
		cache:   params.Cache,
		metrics: params.Metrics,
		ttl:     params.TTL,
		logger:  logger,
		loc:     filingLocation(params.Location),
		now:     time.Now,
	}
}

// filingLocation is the zone month_year buckets are cut in. Unset falls back
// to the server's local zone.
func filingLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func (s *StatsService) today() time.Time {
	return s.now().In(s.loc)
}

// CountCurrentMonth returns the number of documents filed this month.
func (s *StatsService) CountCurrentMonth(ctx context.Context, isAdmin bool) (*models.CurrentMonthCount, bool, error) {
	month := s.today().Format("2006-01")
	return cachedStat(ctx, s, "count-current-month", month, isAdmin, func(ctx context.Context) (*models.CurrentMonthCount, error) {
		count, err := s.repo.CountByMonth(ctx, month, !isAdmin)
		if err != nil {
			return nil, err
		}
		return &models.CurrentMonthCount{Count: count}, nil
	})
}

// MonthlyUploads returns twelve zero-filled buckets ending with this month.
func (s *StatsService) MonthlyUploads(ctx context.Context, isAdmin bool) (*models.MonthlyUploads, bool, error) {
	now := s.today()
	return cachedStat(ctx, s, "monthly-uploads", now.Format("2006-01"), isAdmin, func(ctx context.Context) (*models.MonthlyUploads, error) {
		rows, err := s.repo.MonthlyUploads(ctx, now, !isAdmin)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []models.MonthlyUpload{}
		}
		return &models.MonthlyUploads{Stats: rows}, nil
	})
}

// Summary returns the dashboard totals.
func (s *StatsService) Summary(ctx context.Context, isAdmin bool) (*models.DocumentSummary, bool, error) {
	month := s.today().Format("2006-01")
	return cachedStat(ctx, s, "summary", month, isAdmin, func(ctx context.Context) (*models.DocumentSummary, error) {
		return s.repo.Summary(ctx, month, !isAdmin)
	})
}

// Invalidate drops every cached statistic.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, statsCachePattern); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

func statsCacheKey(kind, month string, isAdmin bool) string {
	audience := "user"
	if isAdmin {
		audience = "admin"
	}
	return fmt.Sprintf("stats:%s:%s:%s", kind, month, audience)
}

func cachedStat[T any](ctx context.Context, s *StatsService, kind, month string, isAdmin bool, load func(context.Context) (*T, error)) (*T, bool, error) {
	key := statsCacheKey(kind, month, isAdmin)
	if s.cache != nil {
		var cached T
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	result, err := load(ctx)
	s.metrics.ObserveDBQuery("stats_"+kind, time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, result, s.ttl)
	}
	return result, false, nil
}
