package services

import (
	"context"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
)

type contactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	List(ctx context.Context, page, limit int) ([]models.Contact, int, error)
}

type ContactService struct {
	contacts contactStore
	now      func() time.Time
}

func NewContactService(contacts contactStore) *ContactService {
	return &ContactService{contacts: contacts, now: func() time.Time { return time.Now().UTC() }}
}

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (s *ContactService) Submit(ctx context.Context, input ContactInput, ip string) (*models.Contact, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Message = strings.TrimSpace(input.Message)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	contact := &models.Contact{
		CreatedAt: s.now(),
		Name:      input.Name,
		Email:     input.Email,
		Message:   input.Message,
		IPAddress: ip,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, page, limit int) ([]models.Contact, int, error) {
	return s.contacts.List(ctx, page, limit)
}
