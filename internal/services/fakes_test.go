package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AnshRaj112/therapy-booking-backend/internal/events"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memDB backs the in-memory stores. memTx snapshots it so a failed callback
// leaves it exactly as it was, like an aborted Mongo transaction.
type memDB struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]models.Session
	payments map[primitive.ObjectID]models.Payment

	failSessionWrite error
	failPaymentWrite error
}

func newMemDB() *memDB {
	return &memDB{
		sessions: map[primitive.ObjectID]models.Session{},
		payments: map[primitive.ObjectID]models.Payment{},
	}
}

type memTx struct {
	db    *memDB
	calls int
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	t.db.mu.Lock()
	sessions := make(map[primitive.ObjectID]models.Session, len(t.db.sessions))
	for k, v := range t.db.sessions {
		sessions[k] = v
	}
	payments := make(map[primitive.ObjectID]models.Payment, len(t.db.payments))
	for k, v := range t.db.payments {
		payments[k] = v
	}
	t.db.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.db.mu.Lock()
		t.db.sessions = sessions
		t.db.payments = payments
		t.db.mu.Unlock()
		return err
	}
	return nil
}

type memSessions struct{ db *memDB }

func (m memSessions) Create(ctx context.Context, s *models.Session) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.failSessionWrite != nil {
		return m.db.failSessionWrite
	}
	m.db.sessions[s.ID] = *s
	return nil
}

func (m memSessions) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &s, nil
}

func (m memSessions) GetByRoomID(ctx context.Context, roomID string) (*models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, s := range m.db.sessions {
		if s.RoomID == roomID {
			return &s, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m memSessions) ApplyPaymentState(ctx context.Context, id primitive.ObjectID, state models.SessionPaymentState, now time.Time) (*models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.failSessionWrite != nil {
		return nil, m.db.failSessionWrite
	}
	s, ok := m.db.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	s.Paid = state.Paid
	s.PaymentStatus = state.PaymentStatus
	s.Status = state.Status
	s.UpdatedAt = now
	m.db.sessions[id] = s
	return &s, nil
}

func (m memSessions) RepairPaymentState(ctx context.Context, id primitive.ObjectID, state models.SessionPaymentState, now time.Time) (*models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.failSessionWrite != nil {
		return nil, m.db.failSessionWrite
	}
	s, ok := m.db.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	state = state.Onto(s.Status)
	s.Paid = state.Paid
	s.PaymentStatus = state.PaymentStatus
	s.Status = state.Status
	s.UpdatedAt = now
	m.db.sessions[id] = s
	return &s, nil
}

func (m memSessions) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.SessionStatus, now time.Time) (*models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	s.Status = status
	s.UpdatedAt = now
	m.db.sessions[id] = s
	return &s, nil
}

func (m memSessions) List(ctx context.Context, filter repository.SessionListFilter) ([]models.SessionView, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.SessionView
	for _, s := range m.db.sessions {
		if filter.ClientID != nil && s.ClientID != *filter.ClientID {
			continue
		}
		if filter.TherapistID != nil && s.TherapistID != *filter.TherapistID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, models.SessionView{Session: s})
	}
	return out, len(out), nil
}

func (m memSessions) ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Session, len(ids))
	for _, id := range ids {
		if s, ok := m.db.sessions[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m memSessions) ListPaidWithoutApproval(ctx context.Context, limit int64) ([]models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	approved := map[primitive.ObjectID]bool{}
	for _, p := range m.db.payments {
		if p.Verified == models.VerificationApproved {
			approved[p.SessionID] = true
		}
	}
	var out []models.Session
	for id, s := range m.db.sessions {
		if s.Paid && !approved[id] {
			out = append(out, s)
		}
	}
	return out, nil
}

type memPayments struct{ db *memDB }

func (m memPayments) Create(ctx context.Context, p *models.Payment) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.failPaymentWrite != nil {
		return m.db.failPaymentWrite
	}
	m.db.payments[p.ID] = *p
	return nil
}

func (m memPayments) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.payments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (m memPayments) Resolve(ctx context.Context, id primitive.ObjectID, verdict models.Verification, adminID string, now time.Time) (*models.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.payments[id]
	if !ok || p.Verified != models.VerificationUnreviewed {
		return nil, mongo.ErrNoDocuments
	}
	p.Verified = verdict
	p.ReviewedAt = &now
	p.ReviewedBy = adminID
	m.db.payments[id] = p
	return &p, nil
}

func (m memPayments) List(ctx context.Context, filter repository.PaymentListFilter) ([]models.PaymentView, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.PaymentView
	for _, p := range m.db.payments {
		if filter.Verified != nil && p.Verified != *filter.Verified {
			continue
		}
		out = append(out, models.PaymentView{Payment: p})
	}
	return out, len(out), nil
}

func (m memPayments) ListResolvedAfter(ctx context.Context, after primitive.ObjectID, limit int64) ([]models.Payment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var out []models.Payment
	for _, p := range m.db.payments {
		if p.Verified.Resolved() && p.ID.Hex() > after.Hex() {
			out = append(out, p)
		}
	}
	return out, nil
}

type memTherapists struct {
	byID map[primitive.ObjectID]*models.Therapist
}

func newMemTherapists(ts ...*models.Therapist) *memTherapists {
	m := &memTherapists{byID: map[primitive.ObjectID]*models.Therapist{}}
	for _, t := range ts {
		m.byID[t.ID] = t
	}
	return m
}

func (m *memTherapists) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Therapist, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return t, nil
}

func (m *memTherapists) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Therapist, error) {
	for _, t := range m.byID {
		if t.UserID != nil && *t.UserID == userID {
			return t, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

type recordingReviews struct {
	reviews []models.PaymentReview
}

func (r *recordingReviews) Record(ctx context.Context, review *models.PaymentReview) error {
	review.ID = int64(len(r.reviews) + 1)
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *recordingReviews) ListByPayment(ctx context.Context, paymentID string) ([]models.PaymentReview, error) {
	out := []models.PaymentReview{}
	for _, review := range r.reviews {
		if review.PaymentID == paymentID {
			out = append(out, review)
		}
	}
	return out, nil
}

// memCache is a JSON round-tripping stand-in for the Redis cache.
type memCache struct {
	data    map[string][]byte
	deletes int
	gets    int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.deletes++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

var fixedNow = time.Date(2024, 6, 12, 10, 30, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }
