package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/services"
	"invoice-backend/internal/timeutil"
	"invoice-backend/pkg/utils"
)

type DashboardHandler struct {
	Stats  *services.StatsService
	Events logging.Events
}

func NewDashboardHandler(stats *services.StatsService, events logging.Events) *DashboardHandler {
	return &DashboardHandler{Stats: stats, Events: events}
}

// GetStats returns the dashboard for ?year= (default: current year).
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	year := timeutil.Now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1970 || n > 9999 {
			writeError(w, r, h.Events, fmt.Errorf("%w: invalid year", apperr.ErrValidation))
			return
		}
		year = n
	}
	d, err := h.Stats.Dashboard(r.Context(), year)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}
