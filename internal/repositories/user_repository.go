package repositories

import (
	"context"
	"fmt"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/models"
	"invoice-backend/internal/store"
)

const usersCollection = "users"

type UserRepository struct {
	users *store.Collection[*models.User]
}

func NewUserRepository(s *store.Store) *UserRepository {
	return &UserRepository{users: store.NewCollection[*models.User](s, usersCollection)}
}

// Collection exposes the raw collection for backups.
func (r *UserRepository) Collection() *store.Collection[*models.User] {
	return r.users
}

func emailTaken(existing []*models.User, email string, exceptID int) bool {
	for _, u := range existing {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

// Create stores a new active user. The email must be unused; on conflict the
// store is left unchanged and ErrDuplicate is returned.
func (r *UserRepository) Create(ctx context.Context, email, name, passwordHash string, isAdmin bool) (*models.User, error) {
	u := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		IsActive:     true,
		IsAdmin:      isAdmin,
	}
	return r.users.Insert(ctx, u, func(existing []*models.User, u *models.User) error {
		if emailTaken(existing, u.Email, 0) {
			return fmt.Errorf("user %s: %w", u.Email, apperr.ErrDuplicate)
		}
		return nil
	})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok, err := r.users.Get(ctx, func(u *models.User) bool { return u.Email == email })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	u, ok, err := r.users.Get(ctx, func(u *models.User) bool { return u.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return u, nil
}

// List returns all users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.users.List(ctx)
}

// Update merges p into the user with id. A changed email is re-checked for
// uniqueness under the same lock.
func (r *UserRepository) Update(ctx context.Context, id int, p models.UserUpdate) (*models.User, error) {
	return r.users.Update(ctx,
		func(u *models.User) bool { return u.ID == id },
		func(existing []*models.User, u *models.User) error {
			if p.Email != nil && emailTaken(existing, *p.Email, id) {
				return fmt.Errorf("user %s: %w", *p.Email, apperr.ErrDuplicate)
			}
			p.Apply(u)
			return nil
		})
}

// Delete removes the user with email and reports whether one existed.
func (r *UserRepository) Delete(ctx context.Context, email string) (bool, error) {
	return r.users.Delete(ctx, func(u *models.User) bool { return u.Email == email })
}
