package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubSessions struct {
	booked     services.BookSessionInput
	bookResult *services.BookingResult
	statusErr  error
	lastStatus string
	listTotal  int
}

func (s *stubSessions) BookSession(ctx context.Context, clientID primitive.ObjectID, input services.BookSessionInput) (*services.BookingResult, error) {
	s.booked = input
	return s.bookResult, nil
}

func (s *stubSessions) UpdateSessionStatus(ctx context.Context, caller *services.Principal, sessionID, status string) (*models.Session, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	s.lastStatus = status
	return &models.Session{Status: models.SessionStatus(status), PaymentStatus: models.PaymentSubmitted}, nil
}

func (s *stubSessions) GetSession(ctx context.Context, caller *services.Principal, sessionID string) (*models.Session, error) {
	return nil, services.ErrSessionNotFound
}

func (s *stubSessions) ListClientSessions(ctx context.Context, caller *services.Principal, page, limit int) ([]models.SessionView, int, error) {
	return nil, s.listTotal, nil
}

func (s *stubSessions) ListTherapistSessions(ctx context.Context, caller *services.Principal, page, limit int) ([]models.SessionView, int, error) {
	return nil, 0, services.ErrTherapistNotFound
}

func (s *stubSessions) ListAllSessions(ctx context.Context, status string, page, limit int) ([]models.SessionView, int, error) {
	return []models.SessionView{{}}, 41, nil
}

func sessionRouter(h *SessionHandler, p *services.Principal) http.Handler {
	r := chi.NewRouter()
	r.Use(as(p))
	r.Post("/api/sessions", h.Book)
	r.Get("/api/sessions/my-sessions", h.MySessions)
	r.Get("/api/sessions/therapist-sessions", h.TherapistSessions)
	r.Get("/api/sessions/{id}", h.Get)
	r.Patch("/api/sessions/{id}", h.UpdateStatus)
	r.Get("/api/admin/sessions", h.AdminList)
	return r
}

func TestBookReturnsSessionAndPayment(t *testing.T) {
	stub := &stubSessions{bookResult: &services.BookingResult{
		Session: &models.Session{Status: models.SessionConfirmed, PaymentStatus: models.PaymentSubmitted},
		Payment: &models.Payment{Amount: 500, TxnID: "UPI123"},
	}}
	router := sessionRouter(NewSessionHandler(stub), principal(models.RoleClient))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", jsonBody(t, map[string]interface{}{
		"therapist_id": "T1", "type": "video", "date": "2024-06-01", "amount": 500, "txn_id": "UPI123",
	}))
	rec := serve(router, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.True(t, gjson.Get(body, "success").Bool())
	assert.Equal(t, "submitted", gjson.Get(body, "session.payment_status").String())
	assert.Equal(t, "confirmed", gjson.Get(body, "session.status").String())
	assert.Equal(t, "UPI123", gjson.Get(body, "payment.txn_id").String())
	assert.Equal(t, gjson.Null, gjson.Get(body, "payment.verified").Type)
	require.NotNil(t, stub.booked.Amount)
	assert.Equal(t, 500.0, *stub.booked.Amount)
}

func TestBookWithoutPaymentOmitsIt(t *testing.T) {
	stub := &stubSessions{bookResult: &services.BookingResult{Session: &models.Session{PaymentStatus: models.PaymentPending}}}
	router := sessionRouter(NewSessionHandler(stub), principal(models.RoleClient))

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/sessions", jsonBody(t, map[string]interface{}{"type": "chat"})))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "payment").Exists())
}

func TestBookRejectsMalformedJSON(t *testing.T) {
	router := sessionRouter(NewSessionHandler(&stubSessions{}), principal(models.RoleClient))
	rec := serve(router, httptest.NewRequest(http.MethodPost, "/api/sessions", jsonBody(t, "not an object")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", gjson.Get(rec.Body.String(), "message").String())
}

func TestUpdateStatus(t *testing.T) {
	stub := &stubSessions{}
	router := sessionRouter(NewSessionHandler(stub), principal(models.RoleTherapist))

	rec := serve(router, httptest.NewRequest(http.MethodPatch, "/api/sessions/abc", jsonBody(t, map[string]string{"status": "completed"})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", stub.lastStatus)
	assert.Equal(t, "completed", gjson.Get(rec.Body.String(), "session.status").String())
	assert.Equal(t, "submitted", gjson.Get(rec.Body.String(), "session.payment_status").String())

	stub.statusErr = services.ErrForbidden
	rec = serve(router, httptest.NewRequest(http.MethodPatch, "/api/sessions/abc", jsonBody(t, map[string]string{"status": "completed"})))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionListsAndLookups(t *testing.T) {
	router := sessionRouter(NewSessionHandler(&stubSessions{listTotal: 0}), principal(models.RoleAdmin))

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/sessions/my-sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "sessions").IsArray())
	assert.Equal(t, int64(0), gjson.Get(rec.Body.String(), "sessions.#").Int())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/sessions?limit=20&page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(41), gjson.Get(rec.Body.String(), "pagination.total").Int())
	assert.Equal(t, int64(3), gjson.Get(rec.Body.String(), "pagination.total_pages").Int())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/sessions/therapist-sessions", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
