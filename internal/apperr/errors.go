// Package apperr holds the error kinds shared by the store, the repositories
// and the services. Callers wrap them with fmt.Errorf("...: %w", err) and test
// with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage failure")
	// ErrAuth covers bad credentials and invalid or expired tokens alike.
	ErrAuth      = errors.New("authentication failed")
	ErrForbidden = errors.New("forbidden")
)
