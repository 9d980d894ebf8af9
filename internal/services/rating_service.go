package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ratingStore interface {
	Upsert(ctx context.Context, rating *models.Rating) (*models.Rating, error)
	ListByTherapist(ctx context.Context, therapistID primitive.ObjectID) ([]models.Rating, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.Rating, error)
}

type sessionReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error)
}

type RatingService struct {
	ratings  ratingStore
	sessions sessionReader
	cache    cacheInvalidator
	now      func() time.Time
}

func NewRatingService(ratings ratingStore, sessions sessionReader, cache cacheInvalidator) *RatingService {
	return &RatingService{
		ratings:  ratings,
		sessions: sessions,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RatingInput struct {
	SessionID string `json:"session_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Review    string `json:"review" validate:"max=500"`
}

// SubmitRating stores the caller's rating of one of their completed sessions.
// A second submission for the same session replaces the first; created reports which happened.
func (s *RatingService) SubmitRating(ctx context.Context, caller *Principal, input RatingInput) (rating *models.Rating, created bool, err error) {
	input.Review = strings.TrimSpace(input.Review)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, false, err
	}
	sessionID, err := primitive.ObjectIDFromHex(strings.TrimSpace(input.SessionID))
	if err != nil {
		return nil, false, utils.NewValidationError("session_id", "session_id is invalid")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, ErrSessionNotFound
		}
		return nil, false, err
	}
	if session.ClientID != caller.UserID {
		return nil, false, ErrSessionNotFound
	}
	if session.Status != models.SessionCompleted {
		return nil, false, ErrSessionNotCompleted
	}

	// BSON dates keep milliseconds; truncate so the upserted created_at compares equal.
	now := s.now().Truncate(time.Millisecond)
	saved, err := s.ratings.Upsert(ctx, &models.Rating{
		ClientID:    caller.UserID,
		TherapistID: session.TherapistID,
		SessionID:   session.ID,
		Rating:      input.Rating,
		Review:      input.Review,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, false, err
	}

	invalidateStats(ctx, s.cache)
	return saved, saved.CreatedAt.Equal(now), nil
}

type TherapistRatings struct {
	Ratings       []models.Rating `json:"ratings"`
	AverageRating float64         `json:"averageRating"`
	TotalRatings  int             `json:"totalRatings"`
}

func (s *RatingService) TherapistRatings(ctx context.Context, therapistID string) (*TherapistRatings, error) {
	id, err := primitive.ObjectIDFromHex(therapistID)
	if err != nil {
		return nil, ErrTherapistNotFound
	}
	ratings, err := s.ratings.ListByTherapist(ctx, id)
	if err != nil {
		return nil, err
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	avg := 0.0
	if len(ratings) > 0 {
		avg = roundTo(float64(sum)/float64(len(ratings)), 1)
	}
	return &TherapistRatings{Ratings: ratings, AverageRating: avg, TotalRatings: len(ratings)}, nil
}

func (s *RatingService) MyRatings(ctx context.Context, caller *Principal) ([]models.Rating, error) {
	return s.ratings.ListByClient(ctx, caller.UserID)
}
