package repository

import (
	"context"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/database"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionListFilter struct {
	ClientID    *primitive.ObjectID
	TherapistID *primitive.ObjectID
	Status      models.SessionStatus
	Page        int
	Limit       int
}

type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: db.Collection(database.SessionsCollection)}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, session)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error) {
	var session models.Session
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) GetByRoomID(ctx context.Context, roomID string) (*models.Session, error) {
	var session models.Session
	if err := r.coll.FindOne(ctx, bson.M{"room_id": roomID}).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ApplyPaymentState writes the payment-owned fields of a Session and returns the updated document.
// Returns mongo.ErrNoDocuments when the Session does not exist.
func (r *SessionRepository) ApplyPaymentState(
	ctx context.Context,
	id primitive.ObjectID,
	state models.SessionPaymentState,
	now time.Time,
) (*models.Session, error) {
	update := bson.M{"$set": bson.M{
		"paid":           state.Paid,
		"payment_status": state.PaymentStatus,
		"status":         state.Status,
		"updated_at":     now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session models.Session
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RepairPaymentState rewrites the payment-owned fields of a Session that missed its
// cascade. Status is only forced while the session is still pending or confirmed; the
// check runs server-side so a concurrent lifecycle update is never reverted.
func (r *SessionRepository) RepairPaymentState(
	ctx context.Context,
	id primitive.ObjectID,
	state models.SessionPaymentState,
	now time.Time,
) (*models.Session, error) {
	open := bson.A{models.SessionPending, models.SessionConfirmed}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"paid":           state.Paid,
		"payment_status": state.PaymentStatus,
		"status": bson.M{"$cond": bson.A{
			bson.M{"$in": bson.A{"$status", open}},
			state.Status,
			"$status",
		}},
		"updated_at": now,
	}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session models.Session
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateStatus overwrites only the lifecycle status.
func (r *SessionRepository) UpdateStatus(
	ctx context.Context,
	id primitive.ObjectID,
	status models.SessionStatus,
	now time.Time,
) (*models.Session, error) {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session models.Session
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns sessions joined with client and therapist display fields, newest date first.
func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.SessionView, int, error) {
	match := bson.M{}
	if filter.ClientID != nil {
		match["client_id"] = *filter.ClientID
	}
	if filter.TherapistID != nil {
		match["therapist_id"] = *filter.TherapistID
	}
	if filter.Status != "" {
		match["status"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}}}},
	}
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: int64((page - 1) * filter.Limit)}},
			bson.D{{Key: "$limit", Value: int64(filter.Limit)}},
		)
	}
	pipeline = append(pipeline, participantLookups()...)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	sessions := []models.SessionView{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, err
	}
	return sessions, int(total), nil
}

func participantLookups() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         database.UsersCollection,
			"localField":   "client_id",
			"foreignField": "_id",
			"as":           "client",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.TherapistsCollection,
			"localField":   "therapist_id",
			"foreignField": "_id",
			"as":           "therapist",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"client_name":              bson.M{"$first": "$client.name"},
			"client_email":             bson.M{"$first": "$client.email"},
			"therapist_name":           bson.M{"$first": "$therapist.name"},
			"therapist_specialization": bson.M{"$first": "$therapist.specialization"},
			"therapist_whatsapp":       bson.M{"$first": "$therapist.whatsapp"},
		}}},
		{{Key: "$project", Value: bson.M{"client": 0, "therapist": 0}}},
	}
}

// ListByIDs loads sessions keyed by id. Missing ids are absent from the map.
func (r *SessionRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Session, error) {
	out := make(map[primitive.ObjectID]models.Session, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []models.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		out[s.ID] = s
	}
	return out, nil
}

// ListPaidWithoutApproval returns sessions marked paid that no approved payment backs.
func (r *SessionRepository) ListPaidWithoutApproval(ctx context.Context, limit int64) ([]models.Session, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paid": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from": database.PaymentsCollection,
			"let":  bson.M{"sid": "$_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$session_id", "$$sid"}},
					bson.M{"$eq": bson.A{"$verified", true}},
				}}}},
				bson.M{"$limit": 1},
			},
			"as": "approved",
		}}},
		{{Key: "$match", Value: bson.M{"approved": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"approved": 0}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []models.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}
