package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// SignInOperator authenticates a field operator against local credentials.
// The checks run in a fixed order and each failure keeps its own reason:
// unknown username, inactive account, then password mismatch. Handlers map
// these to distinct status codes, so the checks must not be collapsed into
// a uniform rejection.
func (s *Service) SignInOperator(ctx context.Context, username, password string) (string, Claims, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", Claims{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	op, err := s.store.Operators().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", Claims{}, ErrNotRegistered
		}
		return "", Claims{}, err
	}
	if op.IsActive == 0 {
		return "", Claims{}, ErrInactive
	}
	if !VerifyPassword(password, op.PasswordHash) {
		return "", Claims{}, ErrIncorrectPassword
	}

	claims := Claims{
		CustomerID: op.CustomerID,
		UserID:     op.ID,
		Username:   op.Username,
		Role:       RoleAgent,
		IsActive:   op.IsActive == 1,
	}
	token, err := s.codec.Encode(claims)
	if err != nil {
		return "", Claims{}, err
	}
	return token, claims, nil
}

// RegisterOperator creates a new local operator credential. Usernames are
// unique across all customers (a legacy schema constraint).
func (s *Service) RegisterOperator(ctx context.Context, customerID int64, username, password string) (*Operator, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLength {
		return nil, fmt.Errorf("%w: username must be at least %d characters", ErrInvalidInput, minUsernameLength)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: customer_id is required", ErrInvalidInput)
	}

	if _, err := s.store.Operators().FindByUsername(ctx, username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	op := &Operator{
		CustomerID:   customerID,
		Username:     username,
		PasswordHash: hash,
		IsActive:     1,
	}
	if err := s.store.Operators().Create(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// RequestPasswordReset flags the account so an administrator can set a new
// password; the operator cannot reset it themselves.
func (s *Service) RequestPasswordReset(ctx context.Context, username string) error {
	op, err := s.store.Operators().FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	return s.store.Operators().SetPasswordResetRequested(ctx, op.ID, true)
}

// ResetPassword sets a new password for the operator and clears the
// pending-reset flag. New hashes are always bcrypt, so a legacy
// pbkdf2_sha256 credential migrates on reset.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	op, err := s.store.Operators().FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.Operators().SetPassword(ctx, op.ID, hash)
}

// UsernameExists reports whether a username is already taken.
func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.store.Operators().FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
