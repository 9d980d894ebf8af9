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

type JobRepository struct {
	coll *mongo.Collection
}

func NewJobRepository(db *mongo.Database) *JobRepository {
	return &JobRepository{coll: db.Collection(database.JobsCollection)}
}

// Create inserts a job. A taken slug surfaces as a mongo duplicate key error.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	if job.Applicants == nil {
		job.Applicants = []models.Applicant{}
	}
	_, err := r.coll.InsertOne(ctx, job)
	return err
}

func (r *JobRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var job models.Job
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) GetBySlug(ctx context.Context, slug string) (*models.Job, error) {
	var job models.Job
	opts := options.FindOne().SetProjection(bson.M{"applicants": 0})
	if err := r.coll.FindOne(ctx, bson.M{"slug": slug}, opts).Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns jobs newest first, without applicants.
func (r *JobRepository) List(ctx context.Context) ([]models.Job, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"applicants": 0})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	jobs := []models.Job{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	update := bson.M{"$set": bson.M{
		"title":       job.Title,
		"dept":        job.Dept,
		"type":        job.Type,
		"location":    job.Location,
		"level":       job.Level,
		"tag":         job.Tag,
		"description": job.Description,
		"slug":        job.Slug,
		"updated_at":  job.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": job.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *JobRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddApplicant appends an applicant to the job with the given slug.
func (r *JobRepository) AddApplicant(ctx context.Context, slug string, applicant models.Applicant) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$push": bson.M{"applicants": applicant}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateApplicant sets status and notes on one embedded applicant.
func (r *JobRepository) UpdateApplicant(
	ctx context.Context,
	jobID, applicantID primitive.ObjectID,
	status models.ApplicantStatus,
	notes string,
	now time.Time,
) error {
	filter := bson.M{"_id": jobID, "applicants._id": applicantID}
	update := bson.M{"$set": bson.M{
		"applicants.$.status": status,
		"applicants.$.notes":  notes,
		"updated_at":          now,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
