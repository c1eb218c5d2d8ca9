package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/auth"
	"invoice-backend/internal/config"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/metrics"
	"invoice-backend/internal/models"
	"invoice-backend/internal/repositories"
)

type AuthService struct {
	Users      *repositories.UserRepository
	JWTManager *auth.JWTManager
	Admin      config.AdminConfig
	Events     logging.Events

	// dummyHash is compared against when the email is unknown so both
	// failure paths pay for one bcrypt comparison.
	dummyHash string
}

func NewAuthService(users *repositories.UserRepository, jwtManager *auth.JWTManager, admin config.AdminConfig, events logging.Events) (*AuthService, error) {
	dummy, err := auth.HashPassword("invoice-backend-dummy-password")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		Users:      users,
		JWTManager: jwtManager,
		Admin:      admin,
		Events:     events,
		dummyHash:  dummy,
	}, nil
}

// Authenticate returns the user whose credentials match. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		auth.VerifyPassword(s.dummyHash, password)
		return nil, fmt.Errorf("%w: incorrect email or password", apperr.ErrAuth)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: incorrect email or password", apperr.ErrAuth)
	}
	return user, nil
}

// IssueToken signs a bearer token for user. ttl <= 0 uses the configured lifetime.
func (s *AuthService) IssueToken(user *models.User, ttl time.Duration) (string, error) {
	return s.JWTManager.IssueToken(user, ttl)
}

// VerifyToken returns the email a valid token was issued for.
func (s *AuthService) VerifyToken(token string) (string, error) {
	return s.JWTManager.VerifyToken(token)
}

// Login authenticates an active user and returns a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err == nil && !user.IsActive {
		err = fmt.Errorf("%w: inactive user", apperr.ErrAuth)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrAuth) {
			metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
			s.Events.Auth("login", email, false, err.Error())
		}
		return nil, err
	}

	token, err := s.IssueToken(user, 0)
	if err != nil {
		return nil, err
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	s.Events.Auth("login", email, true, "")
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// CurrentUser resolves a bearer token to its user. A valid token for a
// deleted user is rejected like any other bad token.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	email, err := s.VerifyToken(token)
	if err != nil {
		s.Events.Auth("token_rejected", "", false, logging.MaskToken(token))
		return nil, err
	}
	user, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		s.Events.Auth("token_rejected", email, false, "user no longer exists")
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrAuth)
	}
	return user, err
}

// EnsureAdmin creates the configured admin account when it does not exist.
// It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context) (*models.User, bool, error) {
	existing, err := s.Users.FindByEmail(ctx, s.Admin.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, err
	}

	hash, err := auth.HashPassword(s.Admin.Password)
	if err != nil {
		return nil, false, err
	}
	user, err := s.Users.Create(ctx, s.Admin.Email, s.Admin.Name, hash, true)
	if errors.Is(err, apperr.ErrDuplicate) {
		// Another process bootstrapped it first.
		user, err = s.Users.FindByEmail(ctx, s.Admin.Email)
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	s.Events.Auth("admin_bootstrap", user.Email, true, "")
	return user, true, nil
}
