package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type therapistStore interface {
	therapistReader
	Create(ctx context.Context, therapist *models.Therapist) error
	List(ctx context.Context, activeOnly bool) ([]models.Therapist, error)
	Update(ctx context.Context, therapist *models.Therapist) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type userLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type TherapistService struct {
	therapists therapistStore
	users      userLookup
	uploader   FileUploader
	cache      cacheInvalidator
	now        func() time.Time
}

func NewTherapistService(therapists therapistStore, users userLookup, uploader FileUploader, cache cacheInvalidator) *TherapistService {
	return &TherapistService{
		therapists: therapists,
		users:      users,
		uploader:   uploader,
		cache:      cache,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// TherapistInput is the admin profile form. Languages arrive comma separated.
type TherapistInput struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Specialization string  `json:"specialization" validate:"required,max=200"`
	Bio            string  `json:"bio" validate:"max=5000"`
	WhatsApp       string  `json:"whatsapp" validate:"max=20"`
	Languages      string  `json:"languages" validate:"max=500"`
	Experience     int     `json:"experience" validate:"gte=0,lte=80"`
	Price          float64 `json:"price" validate:"gte=0"`
	Status         string  `json:"status" validate:"omitempty,oneof=active inactive"`
	UserID         string  `json:"user_id"`
}

func splitLanguages(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *TherapistService) ListActive(ctx context.Context) ([]models.Therapist, error) {
	return s.therapists.List(ctx, true)
}

func (s *TherapistService) ListAll(ctx context.Context) ([]models.Therapist, error) {
	return s.therapists.List(ctx, false)
}

func (s *TherapistService) Get(ctx context.Context, therapistID string) (*models.Therapist, error) {
	id, err := primitive.ObjectIDFromHex(therapistID)
	if err != nil {
		return nil, ErrTherapistNotFound
	}
	therapist, err := s.therapists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	return therapist, nil
}

// linkedUser resolves the optional login account of a therapist profile. It must be a therapist user.
func (s *TherapistService) linkedUser(ctx context.Context, raw string) (*primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, utils.NewValidationError("user_id", "user_id is invalid")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewValidationError("user_id", "user_id does not reference a user")
		}
		return nil, err
	}
	if user.Role != models.RoleTherapist {
		return nil, utils.NewValidationError("user_id", "user_id must reference a therapist account")
	}
	return &id, nil
}

func (s *TherapistService) uploadPhoto(ctx context.Context, photo *multipart.FileHeader) (string, error) {
	if photo == nil {
		return "", nil
	}
	if s.uploader == nil {
		return "", utils.NewValidationError("photo", "photo uploads are not available")
	}
	url, err := s.uploader.UploadFileFromHeader(ctx, photo, TherapistPhotoFolder)
	if errors.Is(err, ErrInvalidInput) {
		return "", utils.NewValidationError("photo", "photo must be at most 5MB")
	}
	return url, err
}

func (s *TherapistService) Create(ctx context.Context, input TherapistInput, photo *multipart.FileHeader) (*models.Therapist, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	userID, err := s.linkedUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	url, err := s.uploadPhoto(ctx, photo)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.TherapistActive
	}
	now := s.now()
	therapist := &models.Therapist{
		CreatedAt:      now,
		UpdatedAt:      now,
		UserID:         userID,
		Name:           strings.TrimSpace(input.Name),
		Specialization: strings.TrimSpace(input.Specialization),
		Bio:            strings.TrimSpace(input.Bio),
		WhatsApp:       strings.TrimSpace(input.WhatsApp),
		Languages:      splitLanguages(input.Languages),
		Photo:          url,
		Experience:     input.Experience,
		Price:          input.Price,
		Status:         status,
	}
	if err := s.therapists.Create(ctx, therapist); err != nil {
		return nil, err
	}
	invalidateStats(ctx, s.cache)
	return therapist, nil
}

// Update replaces the profile. The photo is kept unless a new one is uploaded.
func (s *TherapistService) Update(ctx context.Context, therapistID string, input TherapistInput, photo *multipart.FileHeader) (*models.Therapist, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	therapist, err := s.Get(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.UserID) != "" {
		if therapist.UserID, err = s.linkedUser(ctx, input.UserID); err != nil {
			return nil, err
		}
	}
	if photo != nil {
		if therapist.Photo, err = s.uploadPhoto(ctx, photo); err != nil {
			return nil, err
		}
	}

	therapist.Name = strings.TrimSpace(input.Name)
	therapist.Specialization = strings.TrimSpace(input.Specialization)
	therapist.Bio = strings.TrimSpace(input.Bio)
	therapist.WhatsApp = strings.TrimSpace(input.WhatsApp)
	therapist.Languages = splitLanguages(input.Languages)
	therapist.Experience = input.Experience
	therapist.Price = input.Price
	if input.Status != "" {
		therapist.Status = input.Status
	}
	therapist.UpdatedAt = s.now()

	if err := s.therapists.Update(ctx, therapist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	invalidateStats(ctx, s.cache)
	return therapist, nil
}

func (s *TherapistService) Delete(ctx context.Context, therapistID string) error {
	id, err := primitive.ObjectIDFromHex(therapistID)
	if err != nil {
		return ErrTherapistNotFound
	}
	if err := s.therapists.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTherapistNotFound
		}
		return err
	}
	invalidateStats(ctx, s.cache)
	return nil
}
