package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ClientInfo returns the customer's display-name record, creating a
// default one on first access.
func (s *Service) ClientInfo(ctx context.Context, customerID int64) (*Client, error) {
	client, err := s.store.Clients().FindByCustomer(ctx, customerID)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.store.Clients().Upsert(ctx, customerID, fmt.Sprintf("Client_%d", customerID))
}

// UpdateClientName sets the customer's display name.
func (s *Service) UpdateClientName(ctx context.Context, customerID int64, name string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: clientname is required", ErrInvalidInput)
	}
	return s.store.Clients().Upsert(ctx, customerID, name)
}
