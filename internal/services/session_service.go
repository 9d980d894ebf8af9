package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/events"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/repository"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type sessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error)
	GetByRoomID(ctx context.Context, roomID string) (*models.Session, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.SessionStatus, now time.Time) (*models.Session, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.SessionView, int, error)
}

type therapistReader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Therapist, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Therapist, error)
}

type paymentCreator interface {
	Create(ctx context.Context, payment *models.Payment) error
}

type SessionService struct {
	tx          transactor
	sessions    sessionStore
	payments    paymentCreator
	therapists  therapistReader
	publisher   EventPublisher
	cache       cacheInvalidator
	autoConfirm bool
	now         func() time.Time
}

// NewSessionService wires booking and lifecycle. With autoConfirm a new session starts
// confirmed; otherwise it waits at pending. publisher and cache may be nil.
func NewSessionService(
	tx transactor,
	sessions sessionStore,
	payments paymentCreator,
	therapists therapistReader,
	publisher EventPublisher,
	cache cacheInvalidator,
	autoConfirm bool,
) *SessionService {
	return &SessionService{
		tx:          tx,
		sessions:    sessions,
		payments:    payments,
		therapists:  therapists,
		publisher:   publisher,
		cache:       cache,
		autoConfirm: autoConfirm,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type BookSessionInput struct {
	TherapistID string   `json:"therapist_id" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=chat audio video"`
	Date        string   `json:"date" validate:"required,isodate"`
	Time        string   `json:"time" validate:"omitempty,clock"`
	Notes       string   `json:"notes" validate:"max=1000"`
	Amount      *float64 `json:"amount" validate:"required,gte=0"`
	TxnID       string   `json:"txn_id" validate:"max=128"`
}

type BookingResult struct {
	Session *models.Session `json:"session"`
	Payment *models.Payment `json:"payment,omitempty"`
}

// BookSession creates a session for the client and, when a transaction id and a
// positive amount are supplied, an unreviewed payment linked to it. Both documents
// are written in one transaction.
func (s *SessionService) BookSession(ctx context.Context, clientID primitive.ObjectID, input BookSessionInput) (*BookingResult, error) {
	input.TherapistID = strings.TrimSpace(input.TherapistID)
	input.TxnID = strings.TrimSpace(input.TxnID)
	input.Notes = strings.TrimSpace(input.Notes)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	therapistID, err := primitive.ObjectIDFromHex(input.TherapistID)
	if err != nil {
		return nil, utils.NewValidationError("therapist_id", "therapist_id is invalid")
	}
	therapist, err := s.therapists.GetByID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	if !therapist.IsActive() {
		return nil, ErrTherapistInactive
	}

	now := s.now()
	status := models.SessionPending
	if s.autoConfirm {
		status = models.SessionConfirmed
	}

	session := &models.Session{
		ID:            primitive.NewObjectID(),
		ClientID:      clientID,
		TherapistID:   therapistID,
		Type:          models.SessionType(input.Type),
		Date:          input.Date,
		Time:          input.Time,
		Notes:         input.Notes,
		Amount:        *input.Amount,
		Paid:          false,
		PaymentStatus: models.PaymentPending,
		TxnID:         input.TxnID,
		Status:        status,
		RoomID:        uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var payment *models.Payment
	if input.TxnID != "" && *input.Amount > 0 {
		session.PaymentStatus = models.PaymentSubmitted
		payment = &models.Payment{
			ID:        primitive.NewObjectID(),
			SessionID: session.ID,
			ClientID:  clientID,
			Amount:    *input.Amount,
			TxnID:     input.TxnID,
			Verified:  models.VerificationUnreviewed,
			CreatedAt: now,
		}
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.sessions.Create(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if payment != nil {
			if err := s.payments.Create(ctx, payment); err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterBooking(ctx, session)
	return &BookingResult{Session: session, Payment: payment}, nil
}

func (s *SessionService) afterBooking(ctx context.Context, session *models.Session) {
	if s.publisher != nil {
		event := events.New(events.SessionBooked, session.CreatedAt)
		event.SessionID = session.ID.Hex()
		event.ClientID = session.ClientID.Hex()
		event.TherapistID = session.TherapistID.Hex()
		event.SessionType = string(session.Type)
		event.Date = session.Date
		event.Time = session.Time
		event.Amount = session.Amount
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("⚠️  Failed to publish %s for session %s: %v", events.SessionBooked, session.ID.Hex(), err)
		}
	}
	invalidateStats(ctx, s.cache)
}

// UpdateSessionStatus overwrites the lifecycle status of a session. Payment fields
// are never touched. Clients may only update their own sessions.
func (s *SessionService) UpdateSessionStatus(ctx context.Context, caller *Principal, sessionID, status string) (*models.Session, error) {
	next := models.SessionStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, utils.NewValidationError("status", "status must be one of: pending confirmed completed cancelled")
	}
	id, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if caller.Role == models.RoleClient {
		existing, err := s.sessions.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if existing.ClientID != caller.UserID {
			return nil, ErrForbidden
		}
	}

	updated, err := s.sessions.UpdateStatus(ctx, id, next, s.now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// GetSession returns a session visible to the caller: its client, its therapist, or an admin.
func (s *SessionService) GetSession(ctx context.Context, caller *Principal, sessionID string) (*models.Session, error) {
	id, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, caller, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RoomSession resolves a room id to a confirmed session the caller takes part in.
func (s *SessionService) RoomSession(ctx context.Context, caller *Principal, roomID string) (*models.Session, error) {
	session, err := s.sessions.GetByRoomID(ctx, roomID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if caller.Role == models.RoleAdmin {
		return nil, ErrForbidden
	}
	if err := s.authorizeParticipant(ctx, caller, session); err != nil {
		return nil, err
	}
	if session.Status != models.SessionConfirmed {
		return nil, fmt.Errorf("%w: session is %s", ErrConflict, session.Status)
	}
	return session, nil
}

func (s *SessionService) authorizeParticipant(ctx context.Context, caller *Principal, session *models.Session) error {
	switch caller.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleClient:
		if session.ClientID == caller.UserID {
			return nil
		}
	case models.RoleTherapist:
		therapist, err := s.therapists.GetByUserID(ctx, caller.UserID)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
		if therapist != nil && therapist.ID == session.TherapistID {
			return nil
		}
	}
	return ErrForbidden
}

// ListClientSessions lists the caller's own bookings.
func (s *SessionService) ListClientSessions(ctx context.Context, caller *Principal, page, limit int) ([]models.SessionView, int, error) {
	clientID := caller.UserID
	return s.sessions.List(ctx, repository.SessionListFilter{ClientID: &clientID, Page: page, Limit: limit})
}

// ListTherapistSessions lists sessions of the therapist profile linked to the caller. Admins see all sessions.
func (s *SessionService) ListTherapistSessions(ctx context.Context, caller *Principal, page, limit int) ([]models.SessionView, int, error) {
	filter := repository.SessionListFilter{Page: page, Limit: limit}
	if caller.Role != models.RoleAdmin {
		therapist, err := s.therapists.GetByUserID(ctx, caller.UserID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, 0, ErrTherapistNotFound
			}
			return nil, 0, err
		}
		filter.TherapistID = &therapist.ID
	}
	return s.sessions.List(ctx, filter)
}

// ListAllSessions backs the admin sessions table.
func (s *SessionService) ListAllSessions(ctx context.Context, status string, page, limit int) ([]models.SessionView, int, error) {
	filter := repository.SessionListFilter{Page: page, Limit: limit}
	if status != "" && status != "all" {
		st := models.SessionStatus(status)
		if !st.Valid() {
			return nil, 0, utils.NewValidationError("status", "status must be one of: pending confirmed completed cancelled")
		}
		filter.Status = st
	}
	return s.sessions.List(ctx, filter)
}
