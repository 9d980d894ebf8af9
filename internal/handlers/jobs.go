package handlers

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
	"github.com/AnshRaj112/therapy-booking-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

type jobAPI interface {
	CreateJob(ctx context.Context, input services.JobInput) (*models.Job, error)
	UpdateJob(ctx context.Context, jobID string, input services.JobInput) (*models.Job, error)
	ListJobs(ctx context.Context) ([]models.Job, error)
	GetJobBySlug(ctx context.Context, slug string) (*models.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	Apply(ctx context.Context, slug string, input services.ApplyInput, resume *multipart.FileHeader) (*models.Applicant, error)
	ListApplicants(ctx context.Context, jobID string) ([]models.Applicant, error)
	UpdateApplicant(ctx context.Context, jobID, applicantID string, input services.ApplicantUpdateInput) error
}

type JobHandler struct {
	jobs jobAPI
}

func NewJobHandler(jobs jobAPI) *JobHandler {
	return &JobHandler{jobs: jobs}
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.JobInput
	if !decodeJSON(w, r, &input) {
		return
	}
	job, err := h.jobs.CreateJob(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Job created successfully", envelope{"job": job})
}

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input services.JobInput
	if !decodeJSON(w, r, &input) {
		return
	}
	job, err := h.jobs.UpdateJob(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Job updated successfully", envelope{"job": job})
}

func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListJobs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	writeSuccess(w, http.StatusOK, "", envelope{"jobs": jobs})
}

func (h *JobHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJobBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"job": job})
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.DeleteJob(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Job deleted successfully", nil)
}

// Apply handles POST /api/jobs/apply/{slug} as multipart with an optional resume file.
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r) {
		return
	}
	input := services.ApplyInput{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		Phone:       r.FormValue("phone"),
		CoverLetter: r.FormValue("cover_letter"),
	}
	var resume *multipart.FileHeader
	if files := r.MultipartForm.File["resume"]; len(files) > 0 {
		resume = files[0]
	}

	applicant, err := h.jobs.Apply(r.Context(), chi.URLParam(r, "slug"), input, resume)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Application submitted successfully", envelope{"applicant": applicant})
}

func (h *JobHandler) Applicants(w http.ResponseWriter, r *http.Request) {
	applicants, err := h.jobs.ListApplicants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"applicants": applicants})
}

func (h *JobHandler) UpdateApplicant(w http.ResponseWriter, r *http.Request) {
	var input services.ApplicantUpdateInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.jobs.UpdateApplicant(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "applicantID"), input); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Applicant updated successfully", nil)
}
