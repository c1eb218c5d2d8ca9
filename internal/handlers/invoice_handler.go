package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/middleware"
	"invoice-backend/internal/models"
	"invoice-backend/internal/services"
	"invoice-backend/pkg/utils"
)

type InvoiceHandler struct {
	Service *services.InvoiceService
	Clients *services.ClientService
	Reports *services.ReportService
	Events  logging.Events
}

func NewInvoiceHandler(s *services.InvoiceService, clients *services.ClientService, reports *services.ReportService, events logging.Events) *InvoiceHandler {
	return &InvoiceHandler{Service: s, Clients: clients, Reports: reports, Events: events}
}

func (h *InvoiceHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	inv, err := h.Service.CreateInvoice(r.Context(), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusCreated, inv)
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	inv, err := h.Service.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) GetInvoiceByNumber(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.GetInvoiceByNumber(r.Context(), mux.Vars(r)["number"])
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, inv)
}

// ListInvoices supports ?status= and ?client_id= filters.
func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := models.InvoiceStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, h.Events, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, status))
		return
	}
	clientID := 0
	if v := q.Get("client_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, h.Events, fmt.Errorf("%w: invalid client_id", apperr.ErrValidation))
			return
		}
		clientID = n
	}
	invoices, err := h.Service.ListInvoices(r.Context(), status, clientID)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	var p models.InvoiceUpdate
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	inv, err := h.Service.UpdateInvoice(r.Context(), id, p, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	utils.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	if err := h.Service.DeleteInvoice(r.Context(), id, middleware.UserIDFromContext(r.Context())); err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	deleted(w, "Invoice")
}

// InvoicePDF streams the printable invoice.
func (h *InvoiceHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	inv, err := h.Service.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	client, err := h.Clients.GetClient(r.Context(), inv.ClientID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		writeError(w, r, h.Events, err)
		return
	}
	pdf, err := h.Reports.InvoicePDF(inv, client)
	if err != nil {
		writeError(w, r, h.Events, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, inv.InvoiceNumber))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Write(pdf)
}
