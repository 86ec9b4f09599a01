package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultDeviceCustomerID is the customer a never-seen device is bound to
// on first contact. Open self-registration under this tenant is a known,
// accepted operational tradeoff; review before hardening.
const DefaultDeviceCustomerID = 1

// Service ties credential storage to the token codec and implements the
// local and device sign-in flows plus the account-lifecycle operations the
// dashboard drives. All methods are stateless request/response
// computations over the injected store and codec.
type Service struct {
	store Store
	codec *Codec
}

// NewService constructs a Service.
func NewService(store Store, codec *Codec) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: token codec is required", ErrInvalidInput)
	}
	return &Service{store: store, codec: codec}, nil
}

// Codec exposes the token codec for request-time verification.
func (s *Service) Codec() *Codec {
	return s.codec
}

func randomKey(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
