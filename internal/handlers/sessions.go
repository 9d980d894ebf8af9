package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sessionAPI interface {
	BookSession(ctx context.Context, clientID primitive.ObjectID, input services.BookSessionInput) (*services.BookingResult, error)
	UpdateSessionStatus(ctx context.Context, caller *services.Principal, sessionID, status string) (*models.Session, error)
	GetSession(ctx context.Context, caller *services.Principal, sessionID string) (*models.Session, error)
	ListClientSessions(ctx context.Context, caller *services.Principal, page, limit int) ([]models.SessionView, int, error)
	ListTherapistSessions(ctx context.Context, caller *services.Principal, page, limit int) ([]models.SessionView, int, error)
	ListAllSessions(ctx context.Context, status string, page, limit int) ([]models.SessionView, int, error)
}

type SessionHandler struct {
	sessions sessionAPI
}

func NewSessionHandler(sessions sessionAPI) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Book handles POST /api/sessions (client).
func (h *SessionHandler) Book(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var input services.BookSessionInput
	if !decodeJSON(w, r, &input) {
		return
	}

	res, err := h.sessions.BookSession(r.Context(), p.UserID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	fields := envelope{"session": res.Session}
	if res.Payment != nil {
		fields["payment"] = res.Payment
	}
	writeSuccess(w, http.StatusCreated, "Session booked successfully", fields)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/sessions/{id}. Only the lifecycle status is written.
func (h *SessionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.sessions.UpdateSessionStatus(r.Context(), p, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Session updated successfully", envelope{"session": session})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.GetSession(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"session": session})
}

func (h *SessionHandler) MySessions(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	page, limit := pagination(r)
	views, total, err := h.sessions.ListClientSessions(r.Context(), p, page, limit)
	h.writeList(w, r, views, page, limit, total, err)
}

func (h *SessionHandler) TherapistSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	page, limit := pagination(r)
	views, total, err := h.sessions.ListTherapistSessions(r.Context(), p, page, limit)
	h.writeList(w, r, views, page, limit, total, err)
}

// AdminList handles GET /api/admin/sessions?status=.
func (h *SessionHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	views, total, err := h.sessions.ListAllSessions(r.Context(), queryParam(r, "status"), page, limit)
	h.writeList(w, r, views, page, limit, total, err)
}

func (h *SessionHandler) writeList(w http.ResponseWriter, r *http.Request, views []models.SessionView, page, limit, total int, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []models.SessionView{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{
		"sessions":   views,
		"pagination": paginationMeta(page, limit, total),
	})
}
