package repositories

import (
	"context"
	"fmt"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/models"
	"invoice-backend/internal/store"
)

const clientsCollection = "clients"

type ClientRepository struct {
	clients *store.Collection[*models.Client]
}

func NewClientRepository(s *store.Store) *ClientRepository {
	return &ClientRepository{clients: store.NewCollection[*models.Client](s, clientsCollection)}
}

func (r *ClientRepository) Collection() *store.Collection[*models.Client] {
	return r.clients
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	return r.clients.Insert(ctx, c, nil)
}

func (r *ClientRepository) FindByID(ctx context.Context, id int) (*models.Client, error) {
	c, ok, err := r.clients.Get(ctx, func(c *models.Client) bool { return c.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("client %d: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	return r.clients.List(ctx)
}

// Update merges the non-nil fields of p into the client.
func (r *ClientRepository) Update(ctx context.Context, id int, p models.ClientUpdate) (*models.Client, error) {
	return r.clients.Update(ctx,
		func(c *models.Client) bool { return c.ID == id },
		func(_ []*models.Client, c *models.Client) error {
			p.Apply(c)
			return nil
		})
}

// Delete removes the client. Invoices that reference it are left as they are.
func (r *ClientRepository) Delete(ctx context.Context, id int) (bool, error) {
	return r.clients.Delete(ctx, func(c *models.Client) bool { return c.ID == id })
}
