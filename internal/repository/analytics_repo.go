package repository

import (
	"context"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/database"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const dayFormat = "%Y-%m-%d"
const monthFormat = "%Y-%m"

// AnalyticsRepository runs the read-only aggregations behind the dashboards.
type AnalyticsRepository struct {
	db *mongo.Database
}

func NewAnalyticsRepository(db *mongo.Database) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) count(ctx context.Context, coll string, filter bson.M) (int64, error) {
	return r.db.Collection(coll).CountDocuments(ctx, filter)
}

// DashboardTotals counts users, sessions and payments. Day boundaries are taken from now in UTC.
func (r *AnalyticsRepository) DashboardTotals(ctx context.Context, now time.Time) (models.DashboardStats, error) {
	var st models.DashboardStats
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst    *int64
		coll   string
		filter bson.M
	}{
		{&st.TotalUsers, database.UsersCollection, bson.M{}},
		{&st.TotalTherapists, database.TherapistsCollection, bson.M{"status": models.TherapistActive}},
		{&st.TotalSessions, database.SessionsCollection, bson.M{}},
		{&st.PaidSessions, database.SessionsCollection, bson.M{"paid": true}},
		{&st.UnpaidSessions, database.SessionsCollection, bson.M{"paid": false}},
		{&st.TotalPayments, database.PaymentsCollection, bson.M{}},
		{&st.VerifiedPayments, database.PaymentsCollection, bson.M{"verified": true}},
		{&st.PendingPayments, database.PaymentsCollection, bson.M{"verified": nil}},
		{&st.RejectedPayments, database.PaymentsCollection, bson.M{"verified": false}},
		{&st.TodaySessions, database.SessionsCollection, bson.M{"created_at": bson.M{"$gte": todayStart}}},
		{&st.WeeklySessions, database.SessionsCollection, bson.M{"created_at": bson.M{"$gte": now.AddDate(0, 0, -7)}}},
		{&st.MonthlySessions, database.SessionsCollection, bson.M{"created_at": bson.M{"$gte": now.AddDate(0, -1, 0)}}},
	}
	for _, c := range counts {
		n, err := r.count(ctx, c.coll, c.filter)
		if err != nil {
			return st, err
		}
		*c.dst = n
	}

	revenue, err := r.sumApprovedRevenue(ctx, time.Time{})
	if err != nil {
		return st, err
	}
	st.TotalRevenue = revenue
	return st, nil
}

func (r *AnalyticsRepository) sumApprovedRevenue(ctx context.Context, since time.Time) (float64, error) {
	match := bson.M{"verified": true}
	if !since.IsZero() {
		match["created_at"] = bson.M{"$gte": since}
	}
	cursor, err := r.db.Collection(database.PaymentsCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

type keyedTotal struct {
	Key   string  `bson:"_id"`
	Count int     `bson:"count"`
	Sum   float64 `bson:"sum"`
}

func (r *AnalyticsRepository) groupBy(ctx context.Context, coll string, match bson.M, key interface{}, sumField string) ([]keyedTotal, error) {
	group := bson.M{"_id": key, "count": bson.M{"$sum": 1}}
	if sumField != "" {
		group["sum"] = bson.M{"$sum": "$" + sumField}
	}
	cursor, err := r.db.Collection(coll).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: group}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []keyedTotal
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func dateKey(format, field string) bson.M {
	return bson.M{"$dateToString": bson.M{"format": format, "date": "$" + field, "timezone": "UTC"}}
}

// SessionsPerDay counts sessions created since the given time, keyed by YYYY-MM-DD.
func (r *AnalyticsRepository) SessionsPerDay(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.groupBy(ctx, database.SessionsCollection,
		bson.M{"created_at": bson.M{"$gte": since}}, dateKey(dayFormat, "created_at"), "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

// RevenuePerDay sums approved payment amounts created since the given time, keyed by YYYY-MM-DD.
func (r *AnalyticsRepository) RevenuePerDay(ctx context.Context, since time.Time) (map[string]float64, error) {
	rows, err := r.groupBy(ctx, database.PaymentsCollection,
		bson.M{"verified": true, "created_at": bson.M{"$gte": since}}, dateKey(dayFormat, "created_at"), "amount")
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Sum
	}
	return out, nil
}

func (r *AnalyticsRepository) SessionTypeCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := r.groupBy(ctx, database.SessionsCollection,
		bson.M{"created_at": bson.M{"$gte": since}}, "$type", "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out, nil
}

// SignupsPerMonth counts client users and therapist profiles created since the given time, keyed by YYYY-MM.
func (r *AnalyticsRepository) SignupsPerMonth(ctx context.Context, since time.Time) (clients, therapists map[string]int, err error) {
	clientRows, err := r.groupBy(ctx, database.UsersCollection,
		bson.M{"role": models.RoleClient, "created_at": bson.M{"$gte": since}}, dateKey(monthFormat, "created_at"), "")
	if err != nil {
		return nil, nil, err
	}
	therapistRows, err := r.groupBy(ctx, database.TherapistsCollection,
		bson.M{"created_at": bson.M{"$gte": since}}, dateKey(monthFormat, "created_at"), "")
	if err != nil {
		return nil, nil, err
	}

	clients = make(map[string]int, len(clientRows))
	for _, row := range clientRows {
		clients[row.Key] = row.Count
	}
	therapists = make(map[string]int, len(therapistRows))
	for _, row := range therapistRows {
		therapists[row.Key] = row.Count
	}
	return clients, therapists, nil
}

func (r *AnalyticsRepository) ApprovedRevenueSince(ctx context.Context, since time.Time) (float64, error) {
	return r.sumApprovedRevenue(ctx, since)
}

func (r *AnalyticsRepository) CountUsersSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, database.UsersCollection, bson.M{"created_at": bson.M{"$gte": since}})
}

// TherapistPerformance ranks therapists by sessions created since the given time.
// Revenue counts paid sessions; rating is the therapist's mean over all ratings.
func (r *AnalyticsRepository) TherapistPerformance(ctx context.Context, since time.Time, limit int64) ([]models.TherapistPerformance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$therapist_id",
			"sessions": bson.M{"$sum": 1},
			"revenue":  bson.M{"$sum": bson.M{"$cond": bson.A{"$paid", "$amount", 0}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "sessions", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.TherapistsCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "therapist",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.RatingsCollection,
			"localField":   "_id",
			"foreignField": "therapist_id",
			"as":           "ratings",
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":      bson.M{"$toString": "$_id"},
			"name":     bson.M{"$ifNull": bson.A{bson.M{"$first": "$therapist.name"}, "Unknown"}},
			"sessions": 1,
			"revenue":  1,
			"rating":   bson.M{"$round": bson.A{bson.M{"$ifNull": bson.A{bson.M{"$avg": "$ratings.rating"}, 0}}, 1}},
		}}},
	}
	cursor, err := r.db.Collection(database.SessionsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.TherapistPerformance{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RatingSummary aggregates ratings, optionally for one therapist.
func (r *AnalyticsRepository) RatingSummary(ctx context.Context, therapistID *primitive.ObjectID) (models.RatingSummary, error) {
	match := bson.M{}
	if therapistID != nil {
		match["therapist_id"] = *therapistID
	}
	cursor, err := r.db.Collection(database.RatingsCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"average":   bson.M{"$avg": "$rating"},
			"count":     bson.M{"$sum": 1},
			"satisfied": bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$gte": bson.A{"$rating", 4}}, 1, 0}}},
		}}},
	})
	if err != nil {
		return models.RatingSummary{}, err
	}
	defer cursor.Close(ctx)

	var rows []models.RatingSummary
	if err := cursor.All(ctx, &rows); err != nil {
		return models.RatingSummary{}, err
	}
	if len(rows) == 0 {
		return models.RatingSummary{}, nil
	}
	return rows[0], nil
}

// PublicCounts returns total sessions, active therapists and distinct therapist languages.
func (r *AnalyticsRepository) PublicCounts(ctx context.Context) (sessions, therapists int64, languages int, err error) {
	if sessions, err = r.count(ctx, database.SessionsCollection, bson.M{}); err != nil {
		return
	}
	if therapists, err = r.count(ctx, database.TherapistsCollection, bson.M{"status": models.TherapistActive}); err != nil {
		return
	}
	langs, err := r.db.Collection(database.TherapistsCollection).Distinct(ctx, "languages", bson.M{"status": models.TherapistActive})
	if err != nil {
		return
	}
	languages = len(langs)
	return
}
