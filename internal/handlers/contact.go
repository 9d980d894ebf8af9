package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/clientip"
)

type contactAPI interface {
	Submit(ctx context.Context, input services.ContactInput, ip string) (*models.Contact, error)
	List(ctx context.Context, page, limit int) ([]models.Contact, int, error)
}

type ContactHandler struct {
	contacts   contactAPI
	trustProxy bool
}

func NewContactHandler(contacts contactAPI, trustProxy bool) *ContactHandler {
	return &ContactHandler{contacts: contacts, trustProxy: trustProxy}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.ContactInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if _, err := h.contacts.Submit(r.Context(), input, clientip.FromRequest(r, h.trustProxy)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Contact form submitted successfully. We'll get back to you soon!", nil)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	contacts, total, err := h.contacts.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{"contacts": contacts, "pagination": paginationMeta(page, limit, total)})
}
