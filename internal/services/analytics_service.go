package services

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	dashboardCacheKey   = "stats:dashboard"
	publicStatsCacheKey = "stats:public"
	analyticsCacheKey   = "stats:analytics"
	topTherapists       = 10
	growthMonths        = 6
)

var analyticsRanges = map[string]int{"7d": 7, "30d": 30, "90d": 90, "1y": 365}

func statsCacheKeys() []string {
	keys := []string{dashboardCacheKey, publicStatsCacheKey}
	for r := range analyticsRanges {
		keys = append(keys, CacheKey(analyticsCacheKey, r))
	}
	return keys
}

// invalidateStats drops cached dashboards after a write that changes them.
func invalidateStats(ctx context.Context, cache cacheInvalidator) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, statsCacheKeys()...); err != nil {
		log.Printf("⚠️  Failed to invalidate stats cache: %v", err)
	}
}

type analyticsStore interface {
	DashboardTotals(ctx context.Context, now time.Time) (models.DashboardStats, error)
	SessionsPerDay(ctx context.Context, since time.Time) (map[string]int, error)
	RevenuePerDay(ctx context.Context, since time.Time) (map[string]float64, error)
	SessionTypeCounts(ctx context.Context, since time.Time) (map[string]int, error)
	SignupsPerMonth(ctx context.Context, since time.Time) (map[string]int, map[string]int, error)
	ApprovedRevenueSince(ctx context.Context, since time.Time) (float64, error)
	CountUsersSince(ctx context.Context, since time.Time) (int64, error)
	TherapistPerformance(ctx context.Context, since time.Time, limit int64) ([]models.TherapistPerformance, error)
	RatingSummary(ctx context.Context, therapistID *primitive.ObjectID) (models.RatingSummary, error)
	PublicCounts(ctx context.Context) (int64, int64, int, error)
}

type statsCache interface {
	cacheInvalidator
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type AnalyticsService struct {
	store analyticsStore
	cache statsCache
	ttl   time.Duration
	now   func() time.Time
}

func NewAnalyticsService(store analyticsStore, cache statsCache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{
		store: store,
		cache: cache,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// cached serves key from the cache or computes, stores and returns it.
func cached[T any](ctx context.Context, s *AnalyticsService, key string, compute func() (T, error)) (T, error) {
	var out T
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, &out)
		if err != nil {
			log.Printf("⚠️  Stats cache read %s failed: %v", key, err)
		}
		if hit {
			return out, nil
		}
	}

	out, err := compute()
	if err != nil {
		return out, err
	}
	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, key, out, s.ttl); err != nil {
			log.Printf("⚠️  Stats cache write %s failed: %v", key, err)
		}
	}
	return out, nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	d, err := cached(ctx, s, dashboardCacheKey, func() (models.Dashboard, error) {
		now := s.now()
		stats, err := s.store.DashboardTotals(ctx, now)
		if err != nil {
			return models.Dashboard{}, err
		}
		since := startOfDay(now).AddDate(0, 0, -6)
		perDay, err := s.store.SessionsPerDay(ctx, since)
		if err != nil {
			return models.Dashboard{}, err
		}
		return models.Dashboard{Stats: stats, ChartData: dayBuckets(now, 7, perDay, nil, true)}, nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// NormalizeRange maps an analytics range to a known value, defaulting to 30d.
func NormalizeRange(r string) string {
	r = strings.ToLower(strings.TrimSpace(r))
	if _, ok := analyticsRanges[r]; ok {
		return r
	}
	return "30d"
}

func (s *AnalyticsService) Analytics(ctx context.Context, rangeParam string) (*models.Analytics, error) {
	r := NormalizeRange(rangeParam)
	days := analyticsRanges[r]

	a, err := cached(ctx, s, CacheKey(analyticsCacheKey, r), func() (models.Analytics, error) {
		now := s.now()
		since := startOfDay(now).AddDate(0, 0, -(days - 1))

		sessionsPerDay, err := s.store.SessionsPerDay(ctx, since)
		if err != nil {
			return models.Analytics{}, err
		}
		revenuePerDay, err := s.store.RevenuePerDay(ctx, since)
		if err != nil {
			return models.Analytics{}, err
		}
		performance, err := s.store.TherapistPerformance(ctx, since, topTherapists)
		if err != nil {
			return models.Analytics{}, err
		}
		types, err := s.store.SessionTypeCounts(ctx, since)
		if err != nil {
			return models.Analytics{}, err
		}
		growthSince := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(growthMonths - 1), 0)
		clients, therapists, err := s.store.SignupsPerMonth(ctx, growthSince)
		if err != nil {
			return models.Analytics{}, err
		}
		revenue, err := s.store.ApprovedRevenueSince(ctx, since)
		if err != nil {
			return models.Analytics{}, err
		}
		activeUsers, err := s.store.CountUsersSince(ctx, since)
		if err != nil {
			return models.Analytics{}, err
		}
		ratings, err := s.store.RatingSummary(ctx, nil)
		if err != nil {
			return models.Analytics{}, err
		}

		trends := dayBuckets(now, days, sessionsPerDay, revenuePerDay, false)
		total := 0
		for _, p := range trends {
			total += p.Sessions
		}

		return models.Analytics{
			Range: r,
			Metrics: models.AnalyticsMetrics{
				TotalRevenue:  revenue,
				ActiveUsers:   activeUsers,
				TotalSessions: total,
				AvgRating:     roundTo(ratings.Average, 1),
			},
			SessionTrends:        trends,
			TherapistPerformance: performance,
			SessionTypes:         typeShares(types),
			UserGrowth:           monthBuckets(now, growthMonths, clients, therapists),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AnalyticsService) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	p, err := cached(ctx, s, publicStatsCacheKey, func() (models.PublicStats, error) {
		sessions, therapists, languages, err := s.store.PublicCounts(ctx)
		if err != nil {
			return models.PublicStats{}, err
		}
		ratings, err := s.store.RatingSummary(ctx, nil)
		if err != nil {
			return models.PublicStats{}, err
		}
		return models.PublicStats{
			Sessions:     sessions,
			Therapists:   therapists,
			Languages:    languages,
			Satisfaction: satisfactionPercent(ratings),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dayBuckets expands sparse per-day maps into one point per day, oldest first, ending today.
func dayBuckets(now time.Time, days int, sessions map[string]int, revenue map[string]float64, withWeekday bool) []models.DayPoint {
	today := startOfDay(now)
	points := make([]models.DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format("2006-01-02")
		p := models.DayPoint{Date: key, Sessions: sessions[key], Revenue: revenue[key]}
		if withWeekday {
			p.Day = d.Format("Mon")
		}
		points = append(points, p)
	}
	return points
}

// monthBuckets expands per-month signup maps into the last n months, oldest first.
func monthBuckets(now time.Time, months int, clients, therapists map[string]int) []models.GrowthPoint {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.GrowthPoint, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		key := m.Format("2006-01")
		points = append(points, models.GrowthPoint{
			Month:      m.Format("Jan"),
			Clients:    clients[key],
			Therapists: therapists[key],
		})
	}
	return points
}

func typeShares(counts map[string]int) []models.TypeShare {
	shares := []models.TypeShare{}
	for _, t := range []models.SessionType{models.SessionTypeVideo, models.SessionTypeAudio, models.SessionTypeChat} {
		n, ok := counts[string(t)]
		if !ok {
			continue
		}
		name := string(t)
		shares = append(shares, models.TypeShare{Name: strings.ToUpper(name[:1]) + name[1:], Value: n})
	}
	return shares
}

func satisfactionPercent(r models.RatingSummary) int {
	if r.Count == 0 {
		return 0
	}
	return int(math.Round(float64(r.Satisfied) * 100 / float64(r.Count)))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
