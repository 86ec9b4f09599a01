package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testClaims() Claims {
	return Claims{
		CustomerID: 42,
		UserID:     7,
		Username:   "scanner01",
		Role:       RoleAgent,
		IsActive:   true,
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec("test-secret", "HS256", 12*time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, err := codec.Encode(testClaims())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	claims, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.CustomerID != 42 || claims.UserID != 7 {
		t.Fatalf("unexpected identity: %+v", claims)
	}
	if claims.Username != "scanner01" || claims.Role != RoleAgent {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
	gap := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if gap != 12*time.Hour {
		t.Fatalf("expected 12h lifetime, got %v", gap)
	}
}

func TestCodecExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := base
	codec, err := NewCodec("test-secret", "HS256", time.Hour,
		WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, err := codec.Encode(testClaims())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	clock = base.Add(2 * time.Hour)
	_, err = codec.Decode(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry to also be an invalid-token error, got %v", err)
	}
}

func TestCodecTampered(t *testing.T) {
	codec, err := NewCodec("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	token, err := codec.Encode(testClaims())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	parts := strings.Split(token, ".")
	parts[1] = strings.Map(func(r rune) rune {
		if r == 'a' {
			return 'b'
		}
		return r
	}, parts[1])
	if _, err := codec.Decode(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered payload, got %v", err)
	}
}

func TestCodecWrongSecret(t *testing.T) {
	signer, _ := NewCodec("secret-a", "HS256", time.Hour)
	verifier, _ := NewCodec("secret-b", "HS256", time.Hour)
	token, err := signer.Encode(testClaims())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := verifier.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodecAlgorithmMismatch(t *testing.T) {
	hs256, _ := NewCodec("test-secret", "HS256", time.Hour)
	hs512, _ := NewCodec("test-secret", "HS512", time.Hour)
	token, err := hs512.Encode(testClaims())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := hs256.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong algorithm, got %v", err)
	}
}

func TestCodecRejectsUnknownRole(t *testing.T) {
	codec, _ := NewCodec("test-secret", "HS256", time.Hour)
	claims := testClaims()
	claims.Role = "superuser"
	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := codec.Decode(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unknown role, got %v", err)
	}
}

func TestCodecEmptyToken(t *testing.T) {
	codec, _ := NewCodec("test-secret", "HS256", time.Hour)
	if _, err := codec.Decode("  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewCodecConfigErrors(t *testing.T) {
	if _, err := NewCodec("", "HS256", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := NewCodec("secret", "RS256", time.Hour); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
	if _, err := NewCodec("secret", "HS256", 0); err == nil {
		t.Fatalf("expected error for zero lifetime")
	}
}
