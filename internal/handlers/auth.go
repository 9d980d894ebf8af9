package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type authAPI interface {
	Signup(ctx context.Context, input services.SignupInput) (*services.AuthResult, error)
	Signin(ctx context.Context, email, password string) (*services.AuthResult, error)
	Signout(ctx context.Context, caller *services.Principal) error
	Me(ctx context.Context, caller *services.Principal) (*models.User, error)
	ListUsers(ctx context.Context, role string, page, limit int) ([]models.User, int, error)
	ToggleUserStatus(ctx context.Context, userID string) (*models.User, error)
}

type AuthHandler struct {
	auth authAPI
}

func NewAuthHandler(auth authAPI) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input services.SignupInput
	if !decodeJSON(w, r, &input) {
		return
	}
	res, err := h.auth.Signup(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Account created successfully", envelope{"token": res.Token, "user": res.User})
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	res, err := h.auth.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Signed in successfully", envelope{"token": res.Token, "user": res.User})
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.auth.Signout(r.Context(), p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Signed out successfully", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Me(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"user": user})
}

// ListUsers handles GET /api/admin/users?role=.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	users, total, err := h.auth.ListUsers(r.Context(), queryParam(r, "role"), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{"users": users, "pagination": paginationMeta(page, limit, total)})
}

// ToggleUser handles PATCH /api/admin/users/{id}/deactivate, which flips active and inactive.
func (h *AuthHandler) ToggleUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.ToggleUserStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	message := "User activated"
	if !user.IsActive() {
		message = "User deactivated"
	}
	writeSuccess(w, http.StatusOK, message, envelope{"user": user})
}
