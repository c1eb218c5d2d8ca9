package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/invoice"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/metrics"
	"invoice-backend/internal/models"
	"invoice-backend/internal/repositories"
)

type InvoiceService struct {
	Invoices *repositories.InvoiceRepository
	Clients  *repositories.ClientRepository
	Events   logging.Events
	Cache    DashboardCache
}

func NewInvoiceService(invoices *repositories.InvoiceRepository, clients *repositories.ClientRepository, events logging.Events, cache DashboardCache) *InvoiceService {
	if cache == nil {
		cache = NoCache()
	}
	return &InvoiceService{
		Invoices: invoices,
		Clients:  clients,
		Events:   events,
		Cache:    cache,
	}
}

func (s *InvoiceService) requireClient(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: client_id is required", apperr.ErrValidation)
	}
	if _, err := s.Clients.FindByID(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: client %d does not exist", apperr.ErrValidation, id)
		}
		return err
	}
	return nil
}

func numberTaken(existing []*models.Invoice, number string, exceptID int) bool {
	for _, inv := range existing {
		if inv.InvoiceNumber == number && inv.ID != exceptID {
			return true
		}
	}
	return false
}

// CreateInvoice prices the invoice and stores it. Without an invoice number
// the next one in sequence is assigned under the collection lock.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest, createdBy int) (*models.Invoice, error) {
	if err := s.requireClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		PONumber:      req.PONumber,
		InvoiceDate:   req.InvoiceDate,
		DueDate:       req.DueDate,
		Status:        req.Status,
		Notes:         req.Notes,
		ClientID:      req.ClientID,
		CreatedBy:     createdBy,
		Items:         req.Items,
	}
	if err := invoice.Apply(inv); err != nil {
		return nil, err
	}

	created, err := s.Invoices.Create(ctx, inv, func(existing []*models.Invoice, inv *models.Invoice) error {
		if inv.InvoiceNumber == "" {
			inv.InvoiceNumber = invoice.NextInvoiceNumber(existing)
		}
		if numberTaken(existing, inv.InvoiceNumber, 0) {
			return fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, apperr.ErrDuplicate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.InvoicesCreatedTotal.Inc()
	s.Events.Database("create", "invoices", created.ID, createdBy)
	s.Events.Business("invoice_created", "Invoice "+created.InvoiceNumber+" created", createdBy,
		zap.String("invoice_number", created.InvoiceNumber),
		zap.Float64("total_amount", created.TotalAmount),
		zap.Int("client_id", created.ClientID),
	)
	s.invalidate(ctx)
	return created, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id int) (*models.Invoice, error) {
	return s.Invoices.FindByID(ctx, id)
}

func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	return s.Invoices.FindByNumber(ctx, number)
}

// ListInvoices returns invoices newest first, optionally filtered by status
// and client.
func (s *InvoiceService) ListInvoices(ctx context.Context, status models.InvoiceStatus, clientID int) ([]*models.Invoice, error) {
	all, err := s.Invoices.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Invoice, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		inv := all[i]
		if status != "" && inv.Status != status {
			continue
		}
		if clientID != 0 && inv.ClientID != clientID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

// UpdateInvoice merges p and recomputes every derived field.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id int, p models.InvoiceUpdate, actorID int) (*models.Invoice, error) {
	if p.ClientID != nil {
		if err := s.requireClient(ctx, *p.ClientID); err != nil {
			return nil, err
		}
	}
	updated, err := s.Invoices.Update(ctx, id, func(inv *models.Invoice) error {
		p.Apply(inv)
		return invoice.Apply(inv)
	})
	if err != nil {
		return nil, err
	}
	s.Events.Database("update", "invoices", id, actorID)
	s.invalidate(ctx)
	return updated, nil
}

func (s *InvoiceService) DeleteInvoice(ctx context.Context, id int, actorID int) error {
	removed, err := s.Invoices.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("invoice %d: %w", id, apperr.ErrNotFound)
	}
	s.Events.Database("delete", "invoices", id, actorID)
	s.invalidate(ctx)
	return nil
}

// MarkOverdue moves sent invoices whose due date is before now to overdue
// and returns how many changed.
func (s *InvoiceService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	changed, err := s.Invoices.UpdateWhere(ctx,
		func(inv *models.Invoice) bool {
			return inv.Status == models.InvoiceStatusSent && inv.DueDate != nil && inv.DueDate.Before(now)
		},
		func(inv *models.Invoice) { inv.Status = models.InvoiceStatusOverdue },
	)
	if err != nil {
		return 0, err
	}
	if len(changed) > 0 {
		numbers := make([]string, len(changed))
		for i, inv := range changed {
			numbers[i] = inv.InvoiceNumber
		}
		s.Events.Business("invoices_overdue", fmt.Sprintf("%d invoice(s) marked overdue", len(changed)), 0,
			zap.Strings("invoice_numbers", numbers))
		s.invalidate(ctx)
	}
	return len(changed), nil
}

func (s *InvoiceService) invalidate(ctx context.Context) {
	invalidateDashboards(ctx, s.Cache, s.Events, 0)
}
