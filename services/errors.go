package services

import "errors"

// Callers map these to transport status codes with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("authentication required")
	ErrForbidden        = errors.New("only the author may do this")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("already exists")
)
