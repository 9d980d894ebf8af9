package routes

import (
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/handlers"
	"github.com/AnshRaj112/therapy-booking-backend/internal/middleware"
	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Sessions   *handlers.SessionHandler
	Payments   *handlers.PaymentHandler
	Therapists *handlers.TherapistHandler
	Ratings    *handlers.RatingHandler
	Contact    *handlers.ContactHandler
	Jobs       *handlers.JobHandler
	Stats      *handlers.StatsHandler
	Rooms      *handlers.RoomHandler
}

func SetupRoutes(r chi.Router, h Handlers, auth middleware.Authenticator) {
	requireAuth := middleware.RequireAuth(auth)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth
	r.Post("/api/auth/signup", h.Auth.Signup)
	r.Post("/api/auth/signin", h.Auth.Signin)
	r.With(requireAuth).Post("/api/auth/signout", h.Auth.Signout)
	r.With(requireAuth).Get("/api/auth/me", h.Auth.Me)

	// Public catalogue and forms
	r.Get("/api/therapists", h.Therapists.ListActive)
	r.Get("/api/therapists/{id}", h.Therapists.Get)
	r.Get("/api/ratings/therapist/{id}", h.Ratings.ForTherapist)
	r.Get("/api/stats", h.Stats.Public)
	r.Post("/api/contact", h.Contact.Submit)
	r.Get("/api/jobs", h.Jobs.List)
	r.Get("/api/jobs/slug/{slug}", h.Jobs.GetBySlug)
	r.Post("/api/jobs/apply/{slug}", h.Jobs.Apply)

	// Sessions
	r.Route("/api/sessions", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(middleware.RequireRole(models.RoleClient)).Post("/", h.Sessions.Book)
		r.With(middleware.RequireRole(models.RoleClient)).Get("/my-sessions", h.Sessions.MySessions)
		r.With(middleware.RequireRole(models.RoleTherapist, models.RoleAdmin)).Get("/therapist-sessions", h.Sessions.TherapistSessions)
		r.Get("/{id}", h.Sessions.Get)
		r.Patch("/{id}", h.Sessions.UpdateStatus)
	})

	// Ratings
	r.Group(func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireRole(models.RoleClient))
		r.Post("/api/ratings", h.Ratings.Submit)
		r.Get("/api/ratings/my-ratings", h.Ratings.Mine)
	})

	// Job postings management
	r.Group(func(r chi.Router) {
		r.Use(requireAuth, adminOnly)
		r.Post("/api/jobs", h.Jobs.Create)
		r.Put("/api/jobs/{id}", h.Jobs.Update)
		r.Delete("/api/jobs/{id}", h.Jobs.Delete)
		r.Get("/api/jobs/{id}/applicants", h.Jobs.Applicants)
		r.Patch("/api/jobs/{id}/applicants/{applicantID}", h.Jobs.UpdateApplicant)
	})

	// Admin
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth, adminOnly)

		r.Get("/payments", h.Payments.List)
		r.Patch("/payments/{id}/verify", h.Payments.Verify)
		r.Put("/payments/{id}/verify", h.Payments.Verify)
		r.Get("/payments/{id}/reviews", h.Payments.Reviews)

		r.Get("/sessions", h.Sessions.AdminList)
		r.Get("/users", h.Auth.ListUsers)
		r.Patch("/users/{id}/deactivate", h.Auth.ToggleUser)
		r.Get("/contacts", h.Contact.List)

		r.Get("/therapists", h.Therapists.ListAll)
		r.Post("/therapists", h.Therapists.Create)
		r.Put("/therapists/{id}", h.Therapists.Update)
		r.Delete("/therapists/{id}", h.Therapists.Delete)

		r.Get("/dashboard-stats", h.Stats.Dashboard)
		r.Get("/stats", h.Stats.Totals)
		r.Get("/analytics", h.Stats.Analytics)
	})

	// WebSocket gateway for session rooms (token via ?token= since browsers cannot set headers)
	r.With(requireAuth).Get("/ws/rooms/{roomID}", h.Rooms.Connect)
}
