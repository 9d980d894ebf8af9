package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type jobStore interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	GetBySlug(ctx context.Context, slug string) (*models.Job, error)
	SlugExists(ctx context.Context, slug string, exclude primitive.ObjectID) (bool, error)
	List(ctx context.Context) ([]models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddApplicant(ctx context.Context, slug string, applicant models.Applicant) error
	UpdateApplicant(ctx context.Context, jobID, applicantID primitive.ObjectID, status models.ApplicantStatus, notes string, now time.Time) error
}

type JobService struct {
	jobs     jobStore
	uploader FileUploader
	now      func() time.Time
}

// NewJobService wires the careers board. uploader may be nil, in which case résumé files are refused.
func NewJobService(jobs jobStore, uploader FileUploader) *JobService {
	return &JobService{
		jobs:     jobs,
		uploader: uploader,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type JobInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Dept        string `json:"dept" validate:"required,max=100"`
	Type        string `json:"type" validate:"required,max=50"`
	Location    string `json:"location" validate:"required,max=100"`
	Level       string `json:"level" validate:"required,max=50"`
	Tag         string `json:"tag" validate:"max=50"`
	Description string `json:"description" validate:"max=10000"`
}

func (in *JobInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Dept = strings.TrimSpace(in.Dept)
	in.Type = strings.TrimSpace(in.Type)
	in.Location = strings.TrimSpace(in.Location)
	in.Level = strings.TrimSpace(in.Level)
	in.Tag = strings.TrimSpace(in.Tag)
	in.Description = strings.TrimSpace(in.Description)
}

// uniqueSlug derives a slug from title, suffixing the current unix millis when it is taken.
func (s *JobService) uniqueSlug(ctx context.Context, title string, exclude primitive.ObjectID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", utils.NewValidationError("title", "title must contain letters or digits")
	}
	taken, err := s.jobs.SlugExists(ctx, base, exclude)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, s.now().UnixMilli()), nil
}

func (s *JobService) CreateJob(ctx context.Context, input JobInput) (*models.Job, error) {
	input.trim()
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	jobSlug, err := s.uniqueSlug(ctx, input.Title, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job := &models.Job{
		Title:       input.Title,
		Dept:        input.Dept,
		Type:        input.Type,
		Location:    input.Location,
		Level:       input.Level,
		Tag:         input.Tag,
		Description: input.Description,
		Slug:        jobSlug,
		Applicants:  []models.Applicant{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: slug %q is taken", ErrConflict, jobSlug)
		}
		return nil, err
	}
	return job, nil
}

// UpdateJob replaces the job fields and regenerates the slug when the title changes.
func (s *JobService) UpdateJob(ctx context.Context, jobID string, input JobInput) (*models.Job, error) {
	input.trim()
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if input.Title != job.Title {
		jobSlug, err := s.uniqueSlug(ctx, input.Title, job.ID)
		if err != nil {
			return nil, err
		}
		job.Slug = jobSlug
	}
	job.Title = input.Title
	job.Dept = input.Dept
	job.Type = input.Type
	job.Location = input.Location
	job.Level = input.Level
	job.Tag = input.Tag
	job.Description = input.Description
	job.UpdatedAt = s.now()

	if err := s.jobs.Update(ctx, job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrJobNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: slug %q is taken", ErrConflict, job.Slug)
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) getJob(ctx context.Context, jobID string) (*models.Job, error) {
	id, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return nil, ErrJobNotFound
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) ListJobs(ctx context.Context) ([]models.Job, error) {
	return s.jobs.List(ctx)
}

func (s *JobService) GetJobBySlug(ctx context.Context, jobSlug string) (*models.Job, error) {
	job, err := s.jobs.GetBySlug(ctx, jobSlug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *JobService) DeleteJob(ctx context.Context, jobID string) error {
	id, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return ErrJobNotFound
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrJobNotFound
		}
		return err
	}
	return nil
}

type ApplyInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=20"`
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
}

// Apply appends an applicant to the job. The résumé, when given, is uploaded first.
func (s *JobService) Apply(ctx context.Context, jobSlug string, input ApplyInput, resume *multipart.FileHeader) (*models.Applicant, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.CoverLetter = strings.TrimSpace(input.CoverLetter)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	if _, err := s.GetJobBySlug(ctx, jobSlug); err != nil {
		return nil, err
	}

	applicant := models.Applicant{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		CoverLetter: input.CoverLetter,
		Status:      models.ApplicantPending,
		Notes:       "",
		SubmittedAt: s.now(),
	}

	if resume != nil {
		if s.uploader == nil {
			return nil, utils.NewValidationError("resume", "resume uploads are not available")
		}
		url, err := s.uploader.UploadFileFromHeader(ctx, resume, ResumeFolder)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				return nil, utils.NewValidationError("resume", "resume must be at most 5MB")
			}
			return nil, err
		}
		applicant.Resume = url
	}

	if err := s.jobs.AddApplicant(ctx, jobSlug, applicant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &applicant, nil
}

func (s *JobService) ListApplicants(ctx context.Context, jobID string) ([]models.Applicant, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Applicants == nil {
		return []models.Applicant{}, nil
	}
	return job.Applicants, nil
}

type ApplicantUpdateInput struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected interview"`
	Notes  string `json:"notes" validate:"max=5000"`
}

func (s *JobService) UpdateApplicant(ctx context.Context, jobID, applicantID string, input ApplicantUpdateInput) error {
	input.Notes = strings.TrimSpace(input.Notes)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	jid, err := primitive.ObjectIDFromHex(jobID)
	if err != nil {
		return ErrJobNotFound
	}
	aid, err := primitive.ObjectIDFromHex(applicantID)
	if err != nil {
		return ErrApplicantNotFound
	}

	err = s.jobs.UpdateApplicant(ctx, jid, aid, models.ApplicantStatus(input.Status), input.Notes, s.now())
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrApplicantNotFound
	}
	return err
}
