package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vasiliy-maslov/soap-shop/internal/dashboard"
)

type DashboardHandler struct {
	service dashboard.Service
}

func NewDashboardHandler(service dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/api/admin/dashboard", h.handleSummary)
}

// handleSummary never fails on upstream errors: the service already degrades
// to an empty summary.
func (h *DashboardHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := dashboard.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.Summary(r.Context(), period))
}
