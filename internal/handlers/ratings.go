package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type ratingAPI interface {
	SubmitRating(ctx context.Context, caller *services.Principal, input services.RatingInput) (*models.Rating, bool, error)
	TherapistRatings(ctx context.Context, therapistID string) (*services.TherapistRatings, error)
	MyRatings(ctx context.Context, caller *services.Principal) ([]models.Rating, error)
}

type RatingHandler struct {
	ratings ratingAPI
}

func NewRatingHandler(ratings ratingAPI) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// Submit handles POST /api/ratings. A repeat submission for the same session updates the rating.
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var input services.RatingInput
	if !decodeJSON(w, r, &input) {
		return
	}
	rating, created, err := h.ratings.SubmitRating(r.Context(), p, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if created {
		writeSuccess(w, http.StatusCreated, "Rating submitted successfully", envelope{"rating": rating})
		return
	}
	writeSuccess(w, http.StatusOK, "Rating updated successfully", envelope{"rating": rating})
}

func (h *RatingHandler) ForTherapist(w http.ResponseWriter, r *http.Request) {
	res, err := h.ratings.TherapistRatings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ratings := res.Ratings
	if ratings == nil {
		ratings = []models.Rating{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{
		"ratings":       ratings,
		"averageRating": res.AverageRating,
		"totalRatings":  res.TotalRatings,
	})
}

func (h *RatingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	ratings, err := h.ratings.MyRatings(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{"ratings": ratings})
}
