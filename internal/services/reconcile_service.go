package services

import (
	"context"
	"log"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/go-co-op/gocron/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const reconcileBatch = 500

type reconcilePayments interface {
	ListResolvedAfter(ctx context.Context, after primitive.ObjectID, limit int64) ([]models.Payment, error)
}

type reconcileSessions interface {
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Session, error)
	RepairPaymentState(ctx context.Context, id primitive.ObjectID, state models.SessionPaymentState, now time.Time) (*models.Session, error)
	ListPaidWithoutApproval(ctx context.Context, limit int64) ([]models.Session, error)
}

// Repair re-applies the cascade of a resolved payment to a session that missed it.
type Repair struct {
	PaymentID primitive.ObjectID
	SessionID primitive.ObjectID
	Want      models.SessionPaymentState
}

type ReconcileReport struct {
	Scanned    int `json:"scanned"`
	Repaired   int `json:"repaired"`
	Orphaned   int `json:"orphaned"`
	Violations int `json:"violations"`
}

// Reconciler finds sessions whose payment fields disagree with their resolved payment.
type Reconciler struct {
	payments reconcilePayments
	sessions reconcileSessions
	now      func() time.Time
}

func NewReconciler(payments reconcilePayments, sessions reconcileSessions) *Reconciler {
	return &Reconciler{
		payments: payments,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// latestPerSession keeps, for every session, the most recently reviewed payment.
func latestPerSession(payments []models.Payment) map[primitive.ObjectID]models.Payment {
	latest := make(map[primitive.ObjectID]models.Payment, len(payments))
	for _, p := range payments {
		cur, ok := latest[p.SessionID]
		if !ok || reviewedAfter(p, cur) {
			latest[p.SessionID] = p
		}
	}
	return latest
}

func reviewedAfter(a, b models.Payment) bool {
	switch {
	case a.ReviewedAt != nil && b.ReviewedAt != nil && !a.ReviewedAt.Equal(*b.ReviewedAt):
		return a.ReviewedAt.After(*b.ReviewedAt)
	case a.ReviewedAt != nil && b.ReviewedAt == nil:
		return true
	case a.ReviewedAt == nil && b.ReviewedAt != nil:
		return false
	}
	return a.ID.Hex() > b.ID.Hex()
}

// planRepairs compares each session against the cascade of its latest resolved payment.
// Payments whose session is missing are returned as orphans.
func planRepairs(latest map[primitive.ObjectID]models.Payment, sessions map[primitive.ObjectID]models.Session) (repairs []Repair, orphans []models.Payment) {
	for sessionID, payment := range latest {
		if !payment.Verified.Resolved() {
			continue
		}
		want, _ := models.CascadeFor(payment.Verified)
		session, found := sessions[sessionID]
		if !found {
			orphans = append(orphans, payment)
			continue
		}
		if !want.Holds(session) {
			repairs = append(repairs, Repair{PaymentID: payment.ID, SessionID: sessionID, Want: want})
		}
	}
	return repairs, orphans
}

func (r *Reconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	var all []models.Payment
	after := primitive.NilObjectID
	for {
		batch, err := r.payments.ListResolvedAfter(ctx, after, reconcileBatch)
		if err != nil {
			return report, err
		}
		all = append(all, batch...)
		if len(batch) < reconcileBatch {
			break
		}
		after = batch[len(batch)-1].ID
	}
	report.Scanned = len(all)

	latest := latestPerSession(all)
	ids := make([]primitive.ObjectID, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sessions, err := r.sessions.ListByIDs(ctx, ids)
	if err != nil {
		return report, err
	}

	repairs, orphans := planRepairs(latest, sessions)
	for _, p := range orphans {
		log.Printf("⚠️  Orphaned payment %s references missing session %s", p.ID.Hex(), p.SessionID.Hex())
	}
	report.Orphaned = len(orphans)

	now := r.now()
	for _, rep := range repairs {
		if _, err := r.sessions.RepairPaymentState(ctx, rep.SessionID, rep.Want, now); err != nil {
			log.Printf("❌ Failed to repair session %s from payment %s: %v", rep.SessionID.Hex(), rep.PaymentID.Hex(), err)
			continue
		}
		report.Repaired++
	}

	violations, err := r.sessions.ListPaidWithoutApproval(ctx, reconcileBatch)
	if err != nil {
		return report, err
	}
	for _, s := range violations {
		log.Printf("⚠️  Session %s is marked paid without an approved payment", s.ID.Hex())
	}
	report.Violations = len(violations)

	return report, nil
}

// Schedule runs the reconciler every interval. The caller owns the returned scheduler and must shut it down.
func (r *Reconciler) Schedule(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			report, err := r.Run(ctx)
			if err != nil {
				log.Printf("❌ Reconciliation failed: %v", err)
				return
			}
			if report.Repaired > 0 || report.Orphaned > 0 || report.Violations > 0 {
				log.Printf("Reconciliation: scanned=%d repaired=%d orphaned=%d violations=%d",
					report.Scanned, report.Repaired, report.Orphaned, report.Violations)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	return sched, nil
}
