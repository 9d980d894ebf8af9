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

type PaymentListFilter struct {
	Verified *models.Verification
	Page     int
	Limit    int
}

type PaymentRepository struct {
	coll *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{coll: db.Collection(database.PaymentsCollection)}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, payment)
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Resolve moves an unreviewed Payment to verdict. The filter matches only while the stored
// verified is null, so a Payment that was already resolved yields mongo.ErrNoDocuments.
func (r *PaymentRepository) Resolve(
	ctx context.Context,
	id primitive.ObjectID,
	verdict models.Verification,
	adminID string,
	now time.Time,
) (*models.Payment, error) {
	filter := bson.M{"_id": id, "verified": nil}
	update := bson.M{"$set": bson.M{
		"verified":    verdict,
		"reviewed_at": now,
		"reviewed_by": adminID,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var payment models.Payment
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns payments joined with client and session, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter PaymentListFilter) ([]models.PaymentView, int, error) {
	match := bson.M{}
	if filter.Verified != nil {
		match["verified"] = filter.Verified.BSONValue()
	}

	total, err := r.coll.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
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
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         database.UsersCollection,
			"localField":   "client_id",
			"foreignField": "_id",
			"as":           "client",
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         database.SessionsCollection,
			"localField":   "session_id",
			"foreignField": "_id",
			"as":           "sessions",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"client_name":  bson.M{"$first": "$client.name"},
			"client_email": bson.M{"$first": "$client.email"},
			"session":      bson.M{"$first": "$sessions"},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"client": 0, "sessions": 0}}},
	)

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	payments := []models.PaymentView{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, 0, err
	}
	return payments, int(total), nil
}

// ListResolvedAfter pages through resolved payments in _id order, starting after the given id.
// Pass primitive.NilObjectID for the first page.
func (r *PaymentRepository) ListResolvedAfter(ctx context.Context, after primitive.ObjectID, limit int64) ([]models.Payment, error) {
	filter := bson.M{"verified": bson.M{"$ne": nil}}
	if !after.IsZero() {
		filter["_id"] = bson.M{"$gt": after}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
