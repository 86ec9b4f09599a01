package auth

import (
	"context"
	"crypto/subtle"
	"errors"
)

const apiKeyBytes = 32

// APIKey returns the customer's current external-API key, or ErrNotFound.
func (s *Service) APIKey(ctx context.Context, customerID int64) (*APIKey, error) {
	return s.store.APIKeys().FindByCustomer(ctx, customerID)
}

// GenerateAPIKey replaces the customer's key with a fresh random one.
// Creating a new key invalidates the previous one.
func (s *Service) GenerateAPIKey(ctx context.Context, customerID int64) (*APIKey, error) {
	key, err := randomKey(apiKeyBytes)
	if err != nil {
		return nil, err
	}
	return s.store.APIKeys().Replace(ctx, customerID, key)
}

// DeleteAPIKey removes the customer's key.
func (s *Service) DeleteAPIKey(ctx context.Context, customerID int64) error {
	return s.store.APIKeys().Delete(ctx, customerID)
}

// VerifyAPIKey is the contract the external export collaborator calls:
// given the customer id a request claims and the key it presented, it
// answers yes/no. A missing key and a mismatched key are indistinguishable
// to the caller.
func (s *Service) VerifyAPIKey(ctx context.Context, customerID int64, key string) error {
	stored, err := s.store.APIKeys().FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAccessDenied
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored.Key), []byte(key)) != 1 {
		return ErrAccessDenied
	}
	return nil
}
