package services

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func reviewedAt(t time.Time) *time.Time { return &t }

func TestLatestPerSessionPrefersNewestReview(t *testing.T) {
	sessionID := primitive.NewObjectID()
	older := models.Payment{ID: primitive.NewObjectID(), SessionID: sessionID, Verified: models.VerificationRejected, ReviewedAt: reviewedAt(fixedNow.Add(-time.Hour))}
	newer := models.Payment{ID: primitive.NewObjectID(), SessionID: sessionID, Verified: models.VerificationApproved, ReviewedAt: reviewedAt(fixedNow)}
	legacy := models.Payment{ID: primitive.NewObjectID(), SessionID: sessionID, Verified: models.VerificationRejected}

	latest := latestPerSession([]models.Payment{newer, older, legacy})
	assert.Equal(t, newer.ID, latest[sessionID].ID)
}

func TestPlanRepairs(t *testing.T) {
	inSync := models.Session{ID: primitive.NewObjectID(), Paid: true, PaymentStatus: models.PaymentVerified, Status: models.SessionCompleted}
	drifted := models.Session{ID: primitive.NewObjectID(), PaymentStatus: models.PaymentSubmitted, Status: models.SessionPending}
	missingID := primitive.NewObjectID()

	latest := map[primitive.ObjectID]models.Payment{
		inSync.ID:  {ID: primitive.NewObjectID(), SessionID: inSync.ID, Verified: models.VerificationApproved},
		drifted.ID: {ID: primitive.NewObjectID(), SessionID: drifted.ID, Verified: models.VerificationRejected},
		missingID:  {ID: primitive.NewObjectID(), SessionID: missingID, Verified: models.VerificationApproved},
	}
	sessions := map[primitive.ObjectID]models.Session{inSync.ID: inSync, drifted.ID: drifted}

	repairs, orphans := planRepairs(latest, sessions)

	require.Len(t, repairs, 1)
	assert.Equal(t, drifted.ID, repairs[0].SessionID)
	assert.Equal(t, models.PaymentRejected, repairs[0].Want.PaymentStatus)
	assert.False(t, repairs[0].Want.Paid)

	require.Len(t, orphans, 1)
	assert.Equal(t, missingID, orphans[0].SessionID)
}

func TestReconcilerRunRepairsDriftedSessions(t *testing.T) {
	db := newMemDB()
	drifted := models.Session{ID: primitive.NewObjectID(), PaymentStatus: models.PaymentSubmitted, Status: models.SessionPending}
	paidNoApproval := models.Session{ID: primitive.NewObjectID(), Paid: true, PaymentStatus: models.PaymentVerified, Status: models.SessionConfirmed}
	db.sessions[drifted.ID] = drifted
	db.sessions[paidNoApproval.ID] = paidNoApproval
	approved := models.Payment{ID: primitive.NewObjectID(), SessionID: drifted.ID, Verified: models.VerificationApproved, ReviewedAt: reviewedAt(fixedNow)}
	orphan := models.Payment{ID: primitive.NewObjectID(), SessionID: primitive.NewObjectID(), Verified: models.VerificationRejected}
	db.payments[approved.ID] = approved
	db.payments[orphan.ID] = orphan

	r := NewReconciler(memPayments{db}, memSessions{db})
	r.now = clockAt(fixedNow)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, 1, report.Orphaned)
	assert.Equal(t, 1, report.Violations)

	fixed := db.sessions[drifted.ID]
	assert.True(t, fixed.Paid)
	assert.Equal(t, models.PaymentVerified, fixed.PaymentStatus)
	assert.Equal(t, models.SessionConfirmed, fixed.Status)

	// violations are reported, never rewritten
	assert.Equal(t, paidNoApproval, db.sessions[paidNoApproval.ID])

	report, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Repaired)
}

func TestReconcilerKeepsLaterLifecycleStatus(t *testing.T) {
	db := newMemDB()
	completed := models.Session{ID: primitive.NewObjectID(), PaymentStatus: models.PaymentSubmitted, Status: models.SessionCompleted}
	cancelled := models.Session{ID: primitive.NewObjectID(), Paid: true, PaymentStatus: models.PaymentVerified, Status: models.SessionCancelled}
	db.sessions[completed.ID] = completed
	db.sessions[cancelled.ID] = cancelled
	approved := models.Payment{ID: primitive.NewObjectID(), SessionID: completed.ID, Verified: models.VerificationApproved, ReviewedAt: reviewedAt(fixedNow)}
	rejected := models.Payment{ID: primitive.NewObjectID(), SessionID: cancelled.ID, Verified: models.VerificationRejected, ReviewedAt: reviewedAt(fixedNow)}
	db.payments[approved.ID] = approved
	db.payments[rejected.ID] = rejected

	r := NewReconciler(memPayments{db}, memSessions{db})
	r.now = clockAt(fixedNow)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Repaired)

	got := db.sessions[completed.ID]
	assert.True(t, got.Paid)
	assert.Equal(t, models.PaymentVerified, got.PaymentStatus)
	assert.Equal(t, models.SessionCompleted, got.Status)

	got = db.sessions[cancelled.ID]
	assert.False(t, got.Paid)
	assert.Equal(t, models.PaymentRejected, got.PaymentStatus)
	assert.Equal(t, models.SessionCancelled, got.Status)
}

func TestReconcilerScheduleLeavesStartupLoggingToCaller(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	db := newMemDB()
	sched, err := NewReconciler(memPayments{db}, memSessions{db}).Schedule(context.Background(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, sched.Shutdown())

	assert.Empty(t, buf.String())
}
