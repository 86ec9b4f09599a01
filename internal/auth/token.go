package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the signed token payload. The field names are a wire contract:
// the dashboard, the scanning app and every tenant-filtered query depend on
// this exact shape.
type Claims struct {
	CustomerID int64  `json:"customerId"`
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	IsActive   bool   `json:"isActive"`
	jwt.RegisteredClaims
}

// Codec signs and verifies bearer tokens with a process-wide symmetric
// secret fixed at startup. Rotating the secret invalidates every
// outstanding token; there is no key versioning.
type Codec struct {
	secret   []byte
	method   jwt.SigningMethod
	lifetime time.Duration
	now      func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. An empty secret or unsupported algorithm is
// a configuration error and should abort startup.
func NewCodec(secret, algorithm string, lifetime time.Duration, opts ...CodecOption) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	if lifetime <= 0 {
		return nil, errors.New("auth: token lifetime must be greater than zero")
	}
	var method jwt.SigningMethod
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", algorithm)
	}
	c := &Codec{
		secret:   []byte(secret),
		method:   method,
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lifetime reports the configured token lifetime.
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Encode stamps issued-at, expiry and a token id onto the claims and signs
// them. Expiry is always issued-at plus the configured lifetime.
func (c *Codec) Encode(claims Claims) (string, error) {
	now := c.now().UTC()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.lifetime))
	claims.ID = uuid.NewString()

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiry and returns the embedded claims.
// Any failure yields ErrInvalidToken (or ErrTokenExpired, which wraps it);
// partially trusted claims are never returned.
func (c *Codec) Decode(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, ErrInvalidToken)
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleAdmin && claims.Role != RoleAgent {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
