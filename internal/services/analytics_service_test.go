package services

import (
	"context"
	"testing"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubAnalyticsStore struct {
	calls int
}

func (s *stubAnalyticsStore) DashboardTotals(ctx context.Context, now time.Time) (models.DashboardStats, error) {
	s.calls++
	return models.DashboardStats{TotalSessions: 12, PendingPayments: 3}, nil
}

func (s *stubAnalyticsStore) SessionsPerDay(ctx context.Context, since time.Time) (map[string]int, error) {
	return map[string]int{"2024-06-12": 4, "2024-06-10": 2}, nil
}

func (s *stubAnalyticsStore) RevenuePerDay(ctx context.Context, since time.Time) (map[string]float64, error) {
	return map[string]float64{"2024-06-12": 1600}, nil
}

func (s *stubAnalyticsStore) SessionTypeCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	return map[string]int{"video": 5, "chat": 1}, nil
}

func (s *stubAnalyticsStore) SignupsPerMonth(ctx context.Context, since time.Time) (map[string]int, map[string]int, error) {
	return map[string]int{"2024-06": 7}, map[string]int{"2024-05": 2}, nil
}

func (s *stubAnalyticsStore) ApprovedRevenueSince(ctx context.Context, since time.Time) (float64, error) {
	return 1600, nil
}

func (s *stubAnalyticsStore) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	return 9, nil
}

func (s *stubAnalyticsStore) TherapistPerformance(ctx context.Context, since time.Time, limit int64) ([]models.TherapistPerformance, error) {
	return []models.TherapistPerformance{{Name: "Dr. Rao", Sessions: 6, Revenue: 1600, Rating: 4.5}}, nil
}

func (s *stubAnalyticsStore) RatingSummary(ctx context.Context, therapistID *primitive.ObjectID) (models.RatingSummary, error) {
	return models.RatingSummary{Average: 4.26, Count: 8, Satisfied: 7}, nil
}

func (s *stubAnalyticsStore) PublicCounts(ctx context.Context) (int64, int64, int, error) {
	return 120, 9, 4, nil
}

func TestDayBucketsFillsGapsOldestFirst(t *testing.T) {
	points := dayBuckets(fixedNow, 3, map[string]int{"2024-06-12": 4, "2024-06-10": 2}, map[string]float64{"2024-06-12": 99}, true)

	require.Len(t, points, 3)
	assert.Equal(t, "2024-06-10", points[0].Date)
	assert.Equal(t, 2, points[0].Sessions)
	assert.Equal(t, 0, points[1].Sessions)
	assert.Equal(t, "2024-06-12", points[2].Date)
	assert.Equal(t, "Wed", points[2].Day)
	assert.Equal(t, 99.0, points[2].Revenue)
}

func TestMonthBucketsCrossesYearBoundary(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	points := monthBuckets(now, 3, map[string]int{"2023-12": 5}, map[string]int{"2024-02": 1})

	require.Len(t, points, 3)
	assert.Equal(t, "Dec", points[0].Month)
	assert.Equal(t, 5, points[0].Clients)
	assert.Equal(t, "Feb", points[2].Month)
	assert.Equal(t, 1, points[2].Therapists)
}

func TestTypeSharesAndSatisfaction(t *testing.T) {
	shares := typeShares(map[string]int{"chat": 2, "video": 5})
	assert.Equal(t, []models.TypeShare{{Name: "Video", Value: 5}, {Name: "Chat", Value: 2}}, shares)

	assert.Equal(t, 0, satisfactionPercent(models.RatingSummary{}))
	assert.Equal(t, 88, satisfactionPercent(models.RatingSummary{Count: 8, Satisfied: 7}))
}

func TestNormalizeRange(t *testing.T) {
	assert.Equal(t, "7d", NormalizeRange(" 7D "))
	assert.Equal(t, "1y", NormalizeRange("1y"))
	assert.Equal(t, "30d", NormalizeRange("forever"))
}

func TestDashboardIsServedFromCache(t *testing.T) {
	store := &stubAnalyticsStore{}
	cache := newMemCache()
	svc := NewAnalyticsService(store, cache, time.Minute)
	svc.now = clockAt(fixedNow)

	first, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), first.Stats.TotalSessions)
	require.Len(t, first.ChartData, 7)
	assert.Equal(t, 4, first.ChartData[6].Sessions)

	second, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls)

	invalidateStats(context.Background(), cache)
	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestAnalyticsAggregates(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsStore{}, nil, time.Minute)
	svc.now = clockAt(fixedNow)

	a, err := svc.Analytics(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, "7d", a.Range)
	assert.Len(t, a.SessionTrends, 7)
	assert.Equal(t, 6, a.Metrics.TotalSessions)
	assert.Equal(t, 4.3, a.Metrics.AvgRating)
	assert.Equal(t, int64(9), a.Metrics.ActiveUsers)
	require.Len(t, a.UserGrowth, 6)
	assert.Equal(t, 7, a.UserGrowth[5].Clients)
	assert.Equal(t, 2, a.UserGrowth[4].Therapists)
}

func TestPublicStats(t *testing.T) {
	svc := NewAnalyticsService(&stubAnalyticsStore{}, newMemCache(), time.Minute)

	p, err := svc.PublicStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), p.Sessions)
	assert.Equal(t, int64(9), p.Therapists)
	assert.Equal(t, 4, p.Languages)
	assert.Equal(t, 88, p.Satisfaction)
}
