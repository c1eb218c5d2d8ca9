package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/config"
	"invoice-backend/internal/models"
	"invoice-backend/internal/timeutil"
)

// Claims identify the user by email in the subject.
type Claims struct {
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.ExpirationMinutes) * time.Minute,
	}
}

// TTL is the lifetime used when IssueToken gets none.
func (j *JWTManager) TTL() time.Duration {
	return j.ttl
}

// IssueToken signs a token for user. ttl <= 0 uses the configured lifetime.
func (j *JWTManager) IssueToken(user *models.User, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = j.ttl
	}
	now := timeutil.Now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// VerifyToken returns the subject email of a valid token. Every failure,
// expired or tampered or malformed, is apperr.ErrAuth.
func (j *JWTManager) VerifyToken(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", apperr.ErrAuth)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid token", apperr.ErrAuth)
	}
	return claims.Subject, nil
}
