package services

import (
	"context"
	"errors"
	"testing"

	"github.com/AnshRaj112/therapy-booking-backend/internal/events"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentFixture struct {
	db        *memDB
	svc       *PaymentService
	reviews   *recordingReviews
	publisher *recordingPublisher
	cache     *memCache
}

func newPaymentFixture() *paymentFixture {
	db := newMemDB()
	f := &paymentFixture{
		db:        db,
		reviews:   &recordingReviews{},
		publisher: &recordingPublisher{},
		cache:     newMemCache(),
	}
	f.svc = NewPaymentService(&memTx{db: db}, memPayments{db}, memSessions{db}, f.reviews, f.publisher, f.cache)
	f.svc.now = clockAt(fixedNow)
	return f
}

// seed stores a submitted session and its unreviewed payment.
func (f *paymentFixture) seed(status models.SessionStatus) (models.Session, models.Payment) {
	session := models.Session{
		ID:            primitive.NewObjectID(),
		ClientID:      primitive.NewObjectID(),
		TherapistID:   primitive.NewObjectID(),
		Type:          models.SessionTypeVideo,
		Date:          "2024-06-20",
		Time:          "10:00",
		Amount:        800,
		PaymentStatus: models.PaymentSubmitted,
		TxnID:         "UPI123",
		Status:        status,
	}
	payment := models.Payment{
		ID:        primitive.NewObjectID(),
		SessionID: session.ID,
		ClientID:  session.ClientID,
		Amount:    800,
		TxnID:     "UPI123",
	}
	f.db.sessions[session.ID] = session
	f.db.payments[payment.ID] = payment
	return session, payment
}

func TestVerifyPaymentApproveCascadesToSession(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionPending)

	res, err := f.svc.VerifyPayment(context.Background(), payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)

	assert.True(t, res.Transitioned)
	assert.False(t, res.SessionMissing)
	assert.Equal(t, models.VerificationApproved, res.Payment.Verified)
	assert.Equal(t, "admin-1", res.Payment.ReviewedBy)
	require.NotNil(t, res.Payment.ReviewedAt)
	assert.Equal(t, fixedNow, *res.Payment.ReviewedAt)

	stored := f.db.sessions[session.ID]
	assert.True(t, stored.Paid)
	assert.Equal(t, models.PaymentVerified, stored.PaymentStatus)
	assert.Equal(t, models.SessionConfirmed, stored.Status)
	assert.Equal(t, stored, *res.Session)

	require.Len(t, f.reviews.reviews, 1)
	assert.Equal(t, "approved", f.reviews.reviews[0].Verdict)
	assert.Equal(t, payment.ID.Hex(), f.reviews.reviews[0].PaymentID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.PaymentApproved, f.publisher.events[0].Type)
	assert.Equal(t, session.TherapistID.Hex(), f.publisher.events[0].TherapistID)
	assert.Equal(t, 1, f.cache.deletes)
}

func TestVerifyPaymentRejectCascadesToSession(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionConfirmed)

	res, err := f.svc.VerifyPayment(context.Background(), payment.ID.Hex(), false, "admin-1")
	require.NoError(t, err)

	assert.True(t, res.Transitioned)
	assert.Equal(t, models.VerificationRejected, f.db.payments[payment.ID].Verified)

	stored := f.db.sessions[session.ID]
	assert.False(t, stored.Paid)
	assert.Equal(t, models.PaymentRejected, stored.PaymentStatus)
	assert.Equal(t, models.SessionPending, stored.Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.PaymentRejected, f.publisher.events[0].Type)
}

func TestVerifyPaymentSameVerdictIsNoOp(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionPending)
	ctx := context.Background()

	_, err := f.svc.VerifyPayment(ctx, payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)
	first := f.db.sessions[session.ID]

	res, err := f.svc.VerifyPayment(ctx, payment.ID.Hex(), true, "admin-2")
	require.NoError(t, err)

	assert.False(t, res.Transitioned)
	assert.Equal(t, "admin-1", res.Payment.ReviewedBy)
	assert.Equal(t, first, f.db.sessions[session.ID])
	assert.Len(t, f.publisher.events, 1)
	assert.Len(t, f.reviews.reviews, 1)
}

func TestVerifyPaymentRetryRepairsMissedCascade(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionPending)
	ctx := context.Background()

	// payment resolved, session write lost
	payment.Verified = models.VerificationApproved
	payment.ReviewedBy = "admin-1"
	f.db.payments[payment.ID] = payment

	res, err := f.svc.VerifyPayment(ctx, payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)

	assert.False(t, res.Transitioned)
	require.NotNil(t, res.Session)
	assert.True(t, res.Session.Paid)
	assert.Equal(t, models.PaymentVerified, res.Session.PaymentStatus)
	assert.Equal(t, models.SessionConfirmed, res.Session.Status)
	assert.Equal(t, *res.Session, f.db.sessions[session.ID])
	assert.Empty(t, f.publisher.events)
}

func TestVerifyPaymentRetryKeepsCompletedSession(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionCompleted)

	payment.Verified = models.VerificationApproved
	f.db.payments[payment.ID] = payment

	res, err := f.svc.VerifyPayment(context.Background(), payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentVerified, res.Session.PaymentStatus)
	assert.Equal(t, models.SessionCompleted, f.db.sessions[session.ID].Status)
}

func TestPaymentReviews(t *testing.T) {
	f := newPaymentFixture()
	_, payment := f.seed(models.SessionPending)
	ctx := context.Background()

	_, err := f.svc.VerifyPayment(ctx, payment.ID.Hex(), false, "admin-1")
	require.NoError(t, err)

	reviews, err := f.svc.PaymentReviews(ctx, payment.ID.Hex())
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "rejected", reviews[0].Verdict)
	assert.Equal(t, "admin-1", reviews[0].AdminID)

	_, err = f.svc.PaymentReviews(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	bare := NewPaymentService(&memTx{db: f.db}, memPayments{f.db}, memSessions{f.db}, nil, nil, nil)
	_, err = bare.PaymentReviews(ctx, payment.ID.Hex())
	assert.ErrorIs(t, err, ErrReviewLedgerDisabled)
}

func TestVerifyPaymentOppositeVerdictConflicts(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionPending)
	ctx := context.Background()

	_, err := f.svc.VerifyPayment(ctx, payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, payment.ID.Hex(), false, "admin-1")
	assert.ErrorIs(t, err, ErrPaymentAlreadyResolved)

	assert.Equal(t, models.VerificationApproved, f.db.payments[payment.ID].Verified)
	assert.True(t, f.db.sessions[session.ID].Paid)
}

func TestVerifyPaymentOrphanedSession(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionPending)
	delete(f.db.sessions, session.ID)

	res, err := f.svc.VerifyPayment(context.Background(), payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)

	assert.True(t, res.Transitioned)
	assert.True(t, res.SessionMissing)
	assert.NotEmpty(t, res.Warning)
	assert.Nil(t, res.Session)
	assert.Equal(t, models.VerificationApproved, f.db.payments[payment.ID].Verified)

	require.Len(t, f.reviews.reviews, 1)
	assert.True(t, f.reviews.reviews[0].SessionMissing)
}

func TestVerifyPaymentRollsBackWhenSessionWriteFails(t *testing.T) {
	f := newPaymentFixture()
	session, payment := f.seed(models.SessionPending)
	f.db.failSessionWrite = errors.New("write conflict")

	_, err := f.svc.VerifyPayment(context.Background(), payment.ID.Hex(), true, "admin-1")
	require.Error(t, err)

	assert.Equal(t, models.VerificationUnreviewed, f.db.payments[payment.ID].Verified)
	assert.Nil(t, f.db.payments[payment.ID].ReviewedAt)
	assert.Equal(t, session, f.db.sessions[session.ID])
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.reviews.reviews)

	// once the store recovers the same verdict goes through
	f.db.failSessionWrite = nil
	res, err := f.svc.VerifyPayment(context.Background(), payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
}

func TestVerifyPaymentNotFound(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.svc.VerifyPayment(context.Background(), primitive.NewObjectID().Hex(), true, "admin-1")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.svc.VerifyPayment(context.Background(), "not-an-id", true, "admin-1")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestVerifyPaymentSideEffectFailuresDoNotFailVerdict(t *testing.T) {
	f := newPaymentFixture()
	_, payment := f.seed(models.SessionPending)
	f.publisher.err = errors.New("broker down")

	res, err := f.svc.VerifyPayment(context.Background(), payment.ID.Hex(), true, "admin-1")
	require.NoError(t, err)
	assert.True(t, res.Transitioned)
}

func TestVerifyPaymentWithoutOptionalCollaborators(t *testing.T) {
	db := newMemDB()
	svc := NewPaymentService(&memTx{db: db}, memPayments{db}, memSessions{db}, nil, nil, nil)
	f := &paymentFixture{db: db}
	_, payment := f.seed(models.SessionPending)

	res, err := svc.VerifyPayment(context.Background(), payment.ID.Hex(), false, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRejected, res.Session.PaymentStatus)
}

func TestListPaymentsFiltersByStatus(t *testing.T) {
	f := newPaymentFixture()
	_, pending := f.seed(models.SessionPending)
	_, approved := f.seed(models.SessionPending)
	_, err := f.svc.VerifyPayment(context.Background(), approved.ID.Hex(), true, "admin-1")
	require.NoError(t, err)

	views, total, err := f.svc.ListPayments(context.Background(), "pending", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, pending.ID, views[0].ID)

	_, total, err = f.svc.ListPayments(context.Background(), "all", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = f.svc.ListPayments(context.Background(), "bogus", 1, 20)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
