package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type paymentAPI interface {
	VerifyPayment(ctx context.Context, paymentID string, verified bool, adminID string) (*services.VerificationResult, error)
	ListPayments(ctx context.Context, status string, page, limit int) ([]models.PaymentView, int, error)
	PaymentReviews(ctx context.Context, paymentID string) ([]models.PaymentReview, error)
}

type PaymentHandler struct {
	payments paymentAPI
}

func NewPaymentHandler(payments paymentAPI) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type verifyPaymentRequest struct {
	Verified *bool `json:"verified"`
}

// Verify handles PATCH /api/admin/payments/{id}/verify.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	var req verifyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Verified == nil {
		writeValidationError(w, "verified", "verified must be true or false")
		return
	}

	res, err := h.payments.VerifyPayment(r.Context(), chi.URLParam(r, "id"), *req.Verified, p.UserID.Hex())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	message := "Payment rejected"
	if *req.Verified {
		message = "Payment verified"
	}
	if !res.Transitioned {
		message = "Payment was already " + res.Payment.Verified.String()
	}
	fields := envelope{
		"payment":         res.Payment,
		"session":         res.Session,
		"transitioned":    res.Transitioned,
		"session_missing": res.SessionMissing,
	}
	if res.Warning != "" {
		fields["warning"] = res.Warning
	}
	writeSuccess(w, http.StatusOK, message, fields)
}

// List handles GET /api/admin/payments?status=pending|approved|rejected.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	views, total, err := h.payments.ListPayments(r.Context(), queryParam(r, "status"), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []models.PaymentView{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{
		"payments":   views,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Reviews handles GET /api/admin/payments/{id}/reviews.
func (h *PaymentHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.payments.PaymentReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"reviews": reviews})
}
