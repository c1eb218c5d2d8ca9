package handlers

import (
	"net/http"

	"invoice-backend/internal/logging"
	"invoice-backend/internal/middleware"
	"invoice-backend/internal/models"
	"invoice-backend/internal/services"
	"invoice-backend/pkg/utils"
)

type ClientHandler struct {
	Service *services.ClientService
	Events  logging.Events
}

func NewClientHandler(s *services.ClientService, events logging.Events) *ClientHandler {
	return &ClientHandler{Service: s, Events: events}
}

func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClients(r.Context())
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	c.Base = models.Base{}
	created, err := h.Service.CreateClient(r.Context(), &c, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusCreated, created)
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	c, err := h.Service.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	var p models.ClientUpdate
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	c, err := h.Service.UpdateClient(r.Context(), id, p, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	if err := h.Service.DeleteClient(r.Context(), id, middleware.UserIDFromContext(r.Context())); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	deleted(w, "Client")
}
