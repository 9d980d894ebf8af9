package handlers

import (
	"context"
	"net/http"

	"github.com/AnshRaj112/therapy-booking-backend/internal/models"
)

type statsAPI interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Analytics(ctx context.Context, rangeParam string) (*models.Analytics, error)
	PublicStats(ctx context.Context) (*models.PublicStats, error)
}

type StatsHandler struct {
	stats statsAPI
}

func NewStatsHandler(stats statsAPI) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Dashboard handles GET /api/admin/dashboard-stats.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.stats.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"stats": d.Stats, "chartData": d.ChartData})
}

// Totals handles GET /api/admin/stats, the dashboard cards without the chart.
func (h *StatsHandler) Totals(w http.ResponseWriter, r *http.Request) {
	d, err := h.stats.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"stats": d.Stats})
}

// Analytics handles GET /api/admin/analytics?range=7d|30d|90d|1y.
func (h *StatsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.stats.Analytics(r.Context(), queryParam(r, "range"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"analytics": a})
}

// Public handles GET /api/stats.
func (h *StatsHandler) Public(w http.ResponseWriter, r *http.Request) {
	p, err := h.stats.PublicStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", envelope{"stats": p})
}
