package repository

import (
	"context"

	"github.com/AnshRaj112/therapy-booking-backend/internal/database"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RatingRepository struct {
	coll *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{coll: db.Collection(database.RatingsCollection)}
}

// Upsert stores the rating for (client, session), replacing an earlier one.
func (r *RatingRepository) Upsert(ctx context.Context, rating *models.Rating) (*models.Rating, error) {
	filter := bson.M{"client_id": rating.ClientID, "session_id": rating.SessionID}
	update := bson.M{
		"$set": bson.M{
			"therapist_id": rating.TherapistID,
			"rating":       rating.Rating,
			"review":       rating.Review,
			"updated_at":   rating.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": rating.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Rating
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *RatingRepository) ListByTherapist(ctx context.Context, therapistID primitive.ObjectID) ([]models.Rating, error) {
	return r.find(ctx, bson.M{"therapist_id": therapistID})
}

func (r *RatingRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.Rating, error) {
	return r.find(ctx, bson.M{"client_id": clientID})
}

func (r *RatingRepository) find(ctx context.Context, filter bson.M) ([]models.Rating, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ratings := []models.Rating{}
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, err
	}
	return ratings, nil
}
