package handlers

import (
	"net/http"

	"invoice-backend/internal/logging"
	"invoice-backend/internal/middleware"
	"invoice-backend/internal/models"
	"invoice-backend/internal/services"
	"invoice-backend/pkg/utils"
)

type UserHandler struct {
	Service *services.UserService
	Events  logging.Events
}

func NewUserHandler(s *services.UserService, events logging.Events) *UserHandler {
	return &UserHandler{Service: s, Events: events}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	out := make([]models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.Response()
	}
	utils.JSON(w, http.StatusOK, out)
}

// DebugUsers reports how many users exist and lists them without password hashes.
func (h *UserHandler) DebugUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	out := make([]models.UserResponse, len(users))
	for i, u := range users {
		out[i] = u.Response()
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"user_count": len(out),
		"users":      out,
	})
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	user, err := h.Service.CreateUser(r.Context(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusCreated, user.Response())
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	var p models.UserUpdate
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	user, err := h.Service.UpdateUser(r.Context(), id, p, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, user.Response())
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	if err := h.Service.DeleteUser(r.Context(), id, middleware.UserIDFromContext(r.Context())); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	deleted(w, "User")
}
