// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import "errors"

// Sentinel errors the handler layer maps to HTTP status codes. Store-layer
// failures are wrapped with context instead and surface as internal errors.
var (
	ErrNotFound           = errors.New("complaint not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidStatus      = errors.New("invalid status")
)
