package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if !VerifyPassword("correct horse battery", hash) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Fatalf("wrong password verified")
	}
}

func TestHashPasswordEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestVerifyPasswordTruncation(t *testing.T) {
	long := strings.Repeat("a", 100)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	// Only the first 72 bytes are significant.
	if !VerifyPassword(strings.Repeat("a", 72)+"different-tail", hash) {
		t.Fatalf("expected truncated verification to pass")
	}
	if VerifyPassword(strings.Repeat("b", 100), hash) {
		t.Fatalf("different prefix verified")
	}
}

func TestTruncatePasswordPartialRune(t *testing.T) {
	// 70 ASCII bytes then a 3-byte rune: the cap at 72 would leave 2 bytes
	// of the rune, which must be dropped.
	password := strings.Repeat("x", 70) + "€"
	got := truncatePassword(password)
	if len(got) != 70 {
		t.Fatalf("expected 70 bytes after dropping partial rune, got %d", len(got))
	}
}

func TestVerifyLegacyPBKDF2(t *testing.T) {
	salt := []byte("0123456789abcdef")
	hash := GeneratePBKDF2Hash("legacy-secret", salt, 29000)
	if !strings.HasPrefix(hash, "$pbkdf2-sha256$29000$") {
		t.Fatalf("unexpected hash format: %q", hash)
	}
	if !VerifyPassword("legacy-secret", hash) {
		t.Fatalf("expected legacy hash to verify")
	}
	if VerifyPassword("not-the-secret", hash) {
		t.Fatalf("wrong password verified against legacy hash")
	}
}

func TestVerifyLegacyPBKDF2Truncation(t *testing.T) {
	long := strings.Repeat("p", 90)
	hash := GeneratePBKDF2Hash(long, []byte("somesaltbytes..."), 1000)
	if !VerifyPassword(strings.Repeat("p", 72)+"tail", hash) {
		t.Fatalf("expected 72-byte prefix to verify")
	}
}

func TestVerifyPasswordMalformedHashes(t *testing.T) {
	cases := []string{
		"",
		"not-a-hash",
		"$pbkdf2-sha256$",
		"$pbkdf2-sha256$abc$salt$digest",
		"$pbkdf2-sha256$0$c2FsdA$ZGlnZXN0",
		"$pbkdf2-sha256$1000$!!!$ZGlnZXN0",
		"$pbkdf2-sha256$1000$c2FsdA$!!!",
	}
	for _, hash := range cases {
		if VerifyPassword("anything", hash) {
			t.Fatalf("malformed hash %q verified", hash)
		}
	}
}
