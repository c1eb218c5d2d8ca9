package handlers

import (
	"errors"
	"net/http"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/config"
	"invoice-backend/internal/health"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/repositories"
	"invoice-backend/internal/services"
	"invoice-backend/internal/timeutil"
	"invoice-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.HealthChecker
	stats   *services.StatsService
	users   *repositories.UserRepository
	cfg     *config.Config
	events  logging.Events
}

func NewHealthHandler(checker *health.HealthChecker, stats *services.StatsService, users *repositories.UserRepository, cfg *config.Config, events logging.Events) *HealthHandler {
	return &HealthHandler{checker: checker, stats: stats, users: users, cfg: cfg, events: events}
}

// BasicHealth - for liveness checks
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": timeutil.Now(),
	})
}

// ReadinessHealth - fails while the store is unreachable
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

// DebugHealth reports store, disk, record counts and whether the configured
// admin exists.
func (h *HealthHandler) DebugHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckDetailed(r.Context())
	resp := map[string]any{
		"status":    status.Status,
		"timestamp": status.Timestamp,
		"storage":   status.Storage,
		"disk":      status.Disk,
		"system":    status.System,
		"environment": map[string]any{
			"api_version":          "/api/v1",
			"storage_driver":       h.cfg.Storage.Driver,
			"lock_driver":          h.cfg.Lock.Driver,
			"token_expire_minutes": h.cfg.JWT.ExpirationMinutes,
		},
	}

	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		h.events.Error(err, "debug health stats", 0)
		resp["status"] = "unhealthy"
		resp["error"] = "stats unavailable"
	} else {
		resp["stats"] = stats
	}

	_, err = h.users.FindByEmail(r.Context(), h.cfg.Admin.Email)
	resp["admin_user_exists"] = err == nil
	resp["admin_email"] = h.cfg.Admin.Email
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		h.events.Error(err, "debug health admin lookup", 0)
	}

	utils.JSON(w, http.StatusOK, resp)
}
