package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/events"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const orphanedPaymentWarning = "payment resolved, but its session no longer exists"

type transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	Resolve(ctx context.Context, id primitive.ObjectID, verdict models.Verification, adminID string, now time.Time) (*models.Payment, error)
	List(ctx context.Context, filter repository.PaymentListFilter) ([]models.PaymentView, int, error)
}

type sessionPaymentWriter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error)
	ApplyPaymentState(ctx context.Context, id primitive.ObjectID, state models.SessionPaymentState, now time.Time) (*models.Session, error)
	RepairPaymentState(ctx context.Context, id primitive.ObjectID, state models.SessionPaymentState, now time.Time) (*models.Session, error)
}

type reviewLedger interface {
	Record(ctx context.Context, review *models.PaymentReview) error
	ListByPayment(ctx context.Context, paymentID string) ([]models.PaymentReview, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type cacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// VerificationResult is the outcome of an admin verdict on a payment.
type VerificationResult struct {
	Payment *models.Payment `json:"payment"`
	Session *models.Session `json:"session,omitempty"`

	// Transitioned is false when the same verdict had already been applied.
	Transitioned   bool   `json:"transitioned"`
	SessionMissing bool   `json:"session_missing"`
	Warning        string `json:"warning,omitempty"`
}

type PaymentService struct {
	tx        transactor
	payments  paymentStore
	sessions  sessionPaymentWriter
	reviews   reviewLedger
	publisher EventPublisher
	cache     cacheInvalidator
	now       func() time.Time
}

// NewPaymentService wires the verification engine. reviews, publisher and cache may be nil.
func NewPaymentService(
	tx transactor,
	payments paymentStore,
	sessions sessionPaymentWriter,
	reviews reviewLedger,
	publisher EventPublisher,
	cache cacheInvalidator,
) *PaymentService {
	return &PaymentService{
		tx:        tx,
		payments:  payments,
		sessions:  sessions,
		reviews:   reviews,
		publisher: publisher,
		cache:     cache,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// VerifyPayment applies an admin verdict to an unreviewed payment and cascades it
// into the linked session in the same transaction.
//
// Repeating the verdict already stored is a no-op. The opposite verdict on a
// resolved payment fails with ErrPaymentAlreadyResolved. A payment whose session
// is gone is still resolved, and the result carries SessionMissing and a warning.
func (s *PaymentService) VerifyPayment(
	ctx context.Context,
	paymentID string,
	verified bool,
	adminID string,
) (*VerificationResult, error) {
	id, err := primitive.ObjectIDFromHex(paymentID)
	if err != nil {
		return nil, ErrPaymentNotFound
	}

	verdict := models.VerificationFromBool(verified)
	now := s.now()

	var result VerificationResult
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// The callback may be retried on transient transaction errors.
		result = VerificationResult{}

		payment, err := s.payments.Resolve(ctx, id, verdict, adminID, now)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.replay(ctx, id, verdict, now, &result)
		}
		if err != nil {
			return fmt.Errorf("resolve payment: %w", err)
		}
		result.Payment = payment
		result.Transitioned = true

		state, _ := models.CascadeFor(verdict)
		session, err := s.sessions.ApplyPaymentState(ctx, payment.SessionID, state, now)
		if errors.Is(err, mongo.ErrNoDocuments) {
			result.SessionMissing = true
			result.Warning = orphanedPaymentWarning
			return nil
		}
		if err != nil {
			return fmt.Errorf("cascade to session: %w", err)
		}
		result.Session = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Transitioned {
		s.afterVerification(ctx, &result, adminID, now)
	}
	return &result, nil
}

// replay handles a payment that the compare-and-swap did not match: either it does
// not exist or it is already resolved. A session that missed the cascade of the
// stored verdict is repaired so the admin's retry converges it.
func (s *PaymentService) replay(ctx context.Context, id primitive.ObjectID, verdict models.Verification, now time.Time, result *VerificationResult) error {
	current, err := s.payments.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if current.Verified != verdict {
		return ErrPaymentAlreadyResolved
	}

	result.Payment = current
	session, err := s.sessions.GetByID(ctx, current.SessionID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		result.SessionMissing = true
		result.Warning = orphanedPaymentWarning
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if want, _ := models.CascadeFor(verdict); !want.Holds(*session) {
		log.Printf("⚠️  Session %s missed the %s cascade of payment %s, repairing", session.ID.Hex(), verdict, id.Hex())
		session, err = s.sessions.RepairPaymentState(ctx, session.ID, want, now)
		if err != nil {
			return fmt.Errorf("repair session: %w", err)
		}
	}
	result.Session = session
	return nil
}

// afterVerification runs best-effort side effects once the verdict has committed.
func (s *PaymentService) afterVerification(ctx context.Context, result *VerificationResult, adminID string, now time.Time) {
	payment := result.Payment

	if s.reviews != nil {
		review := &models.PaymentReview{
			PaymentID:      payment.ID.Hex(),
			SessionID:      payment.SessionID.Hex(),
			AdminID:        adminID,
			Verdict:        payment.Verified.String(),
			SessionMissing: result.SessionMissing,
			CreatedAt:      now,
		}
		if err := s.reviews.Record(ctx, review); err != nil {
			log.Printf("⚠️  Failed to record payment review %s: %v", payment.ID.Hex(), err)
		}
	}

	if s.publisher != nil {
		eventType := events.PaymentApproved
		if payment.Verified == models.VerificationRejected {
			eventType = events.PaymentRejected
		}
		event := events.New(eventType, now)
		event.PaymentID = payment.ID.Hex()
		event.SessionID = payment.SessionID.Hex()
		event.ClientID = payment.ClientID.Hex()
		event.Amount = payment.Amount
		if result.Session != nil {
			event.TherapistID = result.Session.TherapistID.Hex()
			event.SessionType = string(result.Session.Type)
			event.Date = result.Session.Date
			event.Time = result.Session.Time
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("⚠️  Failed to publish %s for payment %s: %v", eventType, payment.ID.Hex(), err)
		}
	}

	invalidateStats(ctx, s.cache)
}

// ListPayments returns payments for the admin panel. status is pending, approved, rejected or empty for all.
func (s *PaymentService) ListPayments(ctx context.Context, status string, page, limit int) ([]models.PaymentView, int, error) {
	filter := repository.PaymentListFilter{Page: page, Limit: limit}
	if status != "" && status != "all" {
		v, ok := models.ParseVerificationFilter(status)
		if !ok {
			return nil, 0, fmt.Errorf("%w: status must be one of pending, approved, rejected", ErrInvalidInput)
		}
		filter.Verified = &v
	}
	return s.payments.List(ctx, filter)
}

// PaymentReviews returns the verdict history of one payment, oldest first.
func (s *PaymentService) PaymentReviews(ctx context.Context, paymentID string) ([]models.PaymentReview, error) {
	if _, err := primitive.ObjectIDFromHex(paymentID); err != nil {
		return nil, ErrPaymentNotFound
	}
	if s.reviews == nil {
		return nil, ErrReviewLedgerDisabled
	}
	return s.reviews.ListByPayment(ctx, paymentID)
}
