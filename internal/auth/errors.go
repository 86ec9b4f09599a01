package auth

import "errors"

var (
	// Credential rejections, surfaced to the caller with a specific reason.
	ErrNotRegistered     = errors.New("auth: account is not registered")
	ErrInactive          = errors.New("auth: account is not active")
	ErrIncorrectPassword = errors.New("auth: incorrect password")

	// ErrInvalidToken covers malformed, tampered and unsigned tokens.
	// ErrTokenExpired wraps it so callers can treat both as invalid while
	// logs keep the distinction.
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")

	ErrAccessDenied = errors.New("auth: access denied")

	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
)
