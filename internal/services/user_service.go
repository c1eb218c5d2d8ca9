package services

import (
	"context"
	"fmt"
	"strings"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/auth"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/models"
	"invoice-backend/internal/repositories"
)

type UserService struct {
	Repo   *repositories.UserRepository
	Events logging.Events
	Cache  DashboardCache
}

func NewUserService(repo *repositories.UserRepository, events logging.Events, cache DashboardCache) *UserService {
	if cache == nil {
		cache = NoCache()
	}
	return &UserService{Repo: repo, Events: events, Cache: cache}
}

// CreateUser hashes the password and stores a new active user.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest, actorID int) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: name, email, and password are required", apperr.ErrValidation)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.Repo.Create(ctx, req.Email, req.Name, hashedPassword, req.IsAdmin)
	if err != nil {
		return nil, err
	}
	s.Events.Database("create", "users", user.ID, actorID)
	invalidateDashboards(ctx, s.Cache, s.Events, actorID)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.FindByID(ctx, id)
}

// ListUsers returns all users
func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// UpdateUser applies a partial update. A supplied password is re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id int, p models.UserUpdate, actorID int) (*models.User, error) {
	if p.Email != nil && strings.TrimSpace(*p.Email) == "" {
		return nil, fmt.Errorf("%w: email must not be empty", apperr.ErrValidation)
	}
	if p.Password != nil {
		if *p.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", apperr.ErrValidation)
		}
		hashedPassword, err := auth.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		p.PasswordHash = &hashedPassword
	}
	user, err := s.Repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.Events.Database("update", "users", id, actorID)
	return user, nil
}

// DeleteUser deletes a user. Users cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, id int, actorID int) error {
	if id == actorID {
		return fmt.Errorf("%w: cannot delete your own account", apperr.ErrValidation)
	}
	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	removed, err := s.Repo.Delete(ctx, user.Email)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	s.Events.Database("delete", "users", id, actorID)
	invalidateDashboards(ctx, s.Cache, s.Events, actorID)
	return nil
}
