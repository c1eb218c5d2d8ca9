package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"invoice-backend/internal/logging"
	"invoice-backend/internal/middleware"
	"invoice-backend/internal/services"
	"invoice-backend/pkg/utils"
)

type BackupHandler struct {
	Service *services.BackupService
	Events  logging.Events
}

func NewBackupHandler(s *services.BackupService, events logging.Events) *BackupHandler {
	return &BackupHandler{Service: s, Events: events}
}

func (h *BackupHandler) available(w http.ResponseWriter) bool {
	if h.Service == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Backups are not configured")
		return false
	}
	return true
}

func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	backups, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	b, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusCreated, b)
}

func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	stamp := mux.Vars(r)["stamp"]
	if err := h.Service.Restore(r.Context(), stamp, middleware.UserIDFromContext(r.Context())); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Backup " + stamp + " restored"})
}
