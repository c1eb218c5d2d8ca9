package repositories

import (
	"context"
	"fmt"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/models"
	"invoice-backend/internal/store"
)

const invoicesCollection = "invoices"

type InvoiceRepository struct {
	invoices *store.Collection[*models.Invoice]
}

func NewInvoiceRepository(s *store.Store) *InvoiceRepository {
	return &InvoiceRepository{invoices: store.NewCollection[*models.Invoice](s, invoicesCollection)}
}

func (r *InvoiceRepository) Collection() *store.Collection[*models.Invoice] {
	return r.invoices
}

// Create appends inv. prepare runs under the collection lock with the current
// invoices so numbering and uniqueness see a consistent view.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice, prepare func(existing []*models.Invoice, inv *models.Invoice) error) (*models.Invoice, error) {
	return r.invoices.Insert(ctx, inv, prepare)
}

func (r *InvoiceRepository) FindByID(ctx context.Context, id int) (*models.Invoice, error) {
	inv, ok, err := r.invoices.Get(ctx, func(inv *models.Invoice) bool { return inv.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, apperr.ErrNotFound)
	}
	return inv, nil
}

func (r *InvoiceRepository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	inv, ok, err := r.invoices.Get(ctx, func(inv *models.Invoice) bool { return inv.InvoiceNumber == number })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", number, apperr.ErrNotFound)
	}
	return inv, nil
}

// List returns all invoices in creation order.
func (r *InvoiceRepository) List(ctx context.Context) ([]*models.Invoice, error) {
	return r.invoices.List(ctx)
}

func (r *InvoiceRepository) Update(ctx context.Context, id int, mutate func(inv *models.Invoice) error) (*models.Invoice, error) {
	return r.invoices.Update(ctx,
		func(inv *models.Invoice) bool { return inv.ID == id },
		func(_ []*models.Invoice, inv *models.Invoice) error { return mutate(inv) })
}

// UpdateWhere applies mutate to every invoice match accepts and returns them,
// with one lock and one write for the whole batch.
func (r *InvoiceRepository) UpdateWhere(ctx context.Context, match func(inv *models.Invoice) bool, mutate func(inv *models.Invoice)) ([]*models.Invoice, error) {
	return r.invoices.UpdateAll(ctx, match, mutate)
}

func (r *InvoiceRepository) Delete(ctx context.Context, id int) (bool, error) {
	return r.invoices.Delete(ctx, func(inv *models.Invoice) bool { return inv.ID == id })
}
