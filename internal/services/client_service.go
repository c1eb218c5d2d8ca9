package services

import (
	"context"
	"fmt"
	"strings"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/models"
	"invoice-backend/internal/repositories"
)

type ClientService struct {
	Repo   *repositories.ClientRepository
	Events logging.Events
	Cache  DashboardCache
}

// NewClientService builds the service. Client writes invalidate cache, which may be nil.
func NewClientService(repo *repositories.ClientRepository, events logging.Events, cache DashboardCache) *ClientService {
	if cache == nil {
		cache = NoCache()
	}
	return &ClientService{Repo: repo, Events: events, Cache: cache}
}

func (s *ClientService) CreateClient(ctx context.Context, c *models.Client, actorID int) (*models.Client, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	created, err := s.Repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.Events.Database("create", "clients", created.ID, actorID)
	invalidateDashboards(ctx, s.Cache, s.Events, actorID)
	return created, nil
}

func (s *ClientService) GetClient(ctx context.Context, id int) (*models.Client, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context) ([]*models.Client, error) {
	return s.Repo.List(ctx)
}

// UpdateClient merges the supplied fields only.
func (s *ClientService) UpdateClient(ctx context.Context, id int, p models.ClientUpdate, actorID int) (*models.Client, error) {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", apperr.ErrValidation)
	}
	c, err := s.Repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.Events.Database("update", "clients", id, actorID)
	invalidateDashboards(ctx, s.Cache, s.Events, actorID)
	return c, nil
}

// DeleteClient removes the client. Its invoices keep their client_id.
func (s *ClientService) DeleteClient(ctx context.Context, id int, actorID int) error {
	removed, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("client %d: %w", id, apperr.ErrNotFound)
	}
	s.Events.Database("delete", "clients", id, actorID)
	invalidateDashboards(ctx, s.Cache, s.Events, actorID)
	return nil
}
