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

type TherapistRepository struct {
	coll *mongo.Collection
}

func NewTherapistRepository(db *mongo.Database) *TherapistRepository {
	return &TherapistRepository{coll: db.Collection(database.TherapistsCollection)}
}

func (r *TherapistRepository) Create(ctx context.Context, therapist *models.Therapist) error {
	if therapist.ID.IsZero() {
		therapist.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, therapist)
	return err
}

func (r *TherapistRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Therapist, error) {
	var therapist models.Therapist
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&therapist); err != nil {
		return nil, err
	}
	return &therapist, nil
}

// GetByUserID finds the profile linked to a therapist login.
func (r *TherapistRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Therapist, error) {
	var therapist models.Therapist
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&therapist); err != nil {
		return nil, err
	}
	return &therapist, nil
}

func (r *TherapistRepository) List(ctx context.Context, activeOnly bool) ([]models.Therapist, error) {
	filter := bson.M{}
	if activeOnly {
		filter["status"] = models.TherapistActive
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	therapists := []models.Therapist{}
	if err := cursor.All(ctx, &therapists); err != nil {
		return nil, err
	}
	return therapists, nil
}

// Update replaces the mutable profile fields.
func (r *TherapistRepository) Update(ctx context.Context, therapist *models.Therapist) error {
	update := bson.M{"$set": bson.M{
		"name":           therapist.Name,
		"specialization": therapist.Specialization,
		"bio":            therapist.Bio,
		"whatsapp":       therapist.WhatsApp,
		"languages":      therapist.Languages,
		"photo":          therapist.Photo,
		"experience":     therapist.Experience,
		"price":          therapist.Price,
		"status":         therapist.Status,
		"updated_at":     therapist.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": therapist.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *TherapistRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
