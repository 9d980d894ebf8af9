package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type therapistAPI interface {
	ListActive(ctx context.Context) ([]models.Therapist, error)
	ListAll(ctx context.Context) ([]models.Therapist, error)
	Get(ctx context.Context, therapistID string) (*models.Therapist, error)
	Create(ctx context.Context, input services.TherapistInput, photo *multipart.FileHeader) (*models.Therapist, error)
	Update(ctx context.Context, therapistID string, input services.TherapistInput, photo *multipart.FileHeader) (*models.Therapist, error)
	Delete(ctx context.Context, therapistID string) error
}

type TherapistHandler struct {
	therapists therapistAPI
}

func NewTherapistHandler(therapists therapistAPI) *TherapistHandler {
	return &TherapistHandler{therapists: therapists}
}

func (h *TherapistHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := h.therapists.ListActive(r.Context())
	h.writeList(w, r, list, err)
}

func (h *TherapistHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.therapists.ListAll(r.Context())
	h.writeList(w, r, list, err)
}

func (h *TherapistHandler) writeList(w http.ResponseWriter, r *http.Request, list []models.Therapist, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Therapist{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{"therapists": list})
}

func (h *TherapistHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.therapists.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"therapist": t})
}

// therapistForm reads the multipart admin form. The photo file is optional.
func therapistForm(w http.ResponseWriter, r *http.Request) (services.TherapistInput, *multipart.FileHeader, bool) {
	if !parseMultipart(w, r) {
		return services.TherapistInput{}, nil, false
	}
	experience, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("experience")))
	price, _ := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	input := services.TherapistInput{
		Name:           r.FormValue("name"),
		Specialization: r.FormValue("specialization"),
		Bio:            r.FormValue("bio"),
		WhatsApp:       r.FormValue("whatsapp"),
		Languages:      r.FormValue("languages"),
		Experience:     experience,
		Price:          price,
		Status:         r.FormValue("status"),
		UserID:         r.FormValue("user_id"),
	}

	var photo *multipart.FileHeader
	if files := r.MultipartForm.File["photo"]; len(files) > 0 {
		photo = files[0]
	}
	return input, photo, true
}

func (h *TherapistHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, photo, ok := therapistForm(w, r)
	if !ok {
		return
	}
	t, err := h.therapists.Create(r.Context(), input, photo)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Therapist created successfully", envelope{"therapist": t})
}

func (h *TherapistHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, photo, ok := therapistForm(w, r)
	if !ok {
		return
	}
	t, err := h.therapists.Update(r.Context(), chi.URLParam(r, "id"), input, photo)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Therapist updated successfully", envelope{"therapist": t})
}

func (h *TherapistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.therapists.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Therapist deleted successfully", nil)
}
