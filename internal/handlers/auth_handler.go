package handlers

import (
	"errors"
	"net/http"
	"strings"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/middleware"
	"invoice-backend/internal/models"
	"invoice-backend/internal/services"
	"invoice-backend/pkg/utils"
)

type AuthHandler struct {
	Service *services.AuthService
	Events  logging.Events
}

func NewAuthHandler(s *services.AuthService, events logging.Events) *AuthHandler {
	return &AuthHandler{Service: s, Events: events}
}

// Login accepts JSON {email, password} or an OAuth2 password form
// (username, password).
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.Service.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, apperr.ErrAuth) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		utils.Error(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, token)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	utils.JSON(w, http.StatusOK, user.Response())
}
