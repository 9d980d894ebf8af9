package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/AnshRaj112/therapy-booking-backend/internal/middleware"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/AnshRaj112/therapy-booking-backend/pkg/utils"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = services.MaxUploadBytes + 1<<20
	defaultPageSize  = 20
	maxPageSize      = 100
)

// envelope is the response body shape shared by every endpoint.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, fields envelope) {
	body := envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": message, "field": field})
}

// writeServiceError maps service errors to a status code. Unknown errors are logged and
// reported as an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *utils.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeValidationError(w, vErr.Field, vErr.Message)
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrAccountInactive):
		writeError(w, http.StatusForbidden, err.Error())
	case services.NotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPaymentAlreadyResolved),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrSessionNotCompleted),
		errors.Is(err, services.ErrTherapistInactive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrReviewLedgerDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Printf("❌ %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// decodeJSON reads a bounded JSON body into dst and writes a 400 when it is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parseMultipart parses a multipart form bounded by maxMultipartBody.
func parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data or file too large")
		return false
	}
	return true
}

// pagination reads page and limit query params, clamped to sane bounds.
func pagination(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func paginationMeta(page, limit, total int) models.PaginationMeta {
	return models.NewPaginationMeta(page, limit, total)
}

func queryParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// caller returns the authenticated principal. Routes behind RequireAuth always have one.
func caller(w http.ResponseWriter, r *http.Request) (*services.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return p, true
}
