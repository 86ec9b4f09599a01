package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// bcrypt ignores input beyond 72 bytes. Hashes were historically produced
// from passwords truncated to that limit, so verification must truncate the
// same way instead of rejecting long input.
const passwordByteLimit = 72

const (
	legacyPrefix  = "$pbkdf2-sha256$"
	legacyKeySize = 32
)

// HashPassword hashes a plaintext password with bcrypt. New hashes are
// always bcrypt; the pbkdf2_sha256 scheme is verify-only.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored hash,
// detecting the scheme from the hash prefix. It never returns an error:
// malformed stored hashes simply fail verification.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	plain := truncatePassword(password)
	if strings.HasPrefix(hash, legacyPrefix) {
		return verifyPBKDF2(plain, hash)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), plain) == nil
}

// truncatePassword caps the password at 72 bytes, dropping a trailing
// partial rune the way the previous system did when re-decoding UTF-8.
func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) <= passwordByteLimit {
		return b
	}
	b = b[:passwordByteLimit]
	for len(b) > 0 {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

// verifyPBKDF2 checks a passlib-format pbkdf2_sha256 hash:
// $pbkdf2-sha256$<rounds>$<salt>$<digest>, salt and digest in adapted
// base64 ("." instead of "+", no padding).
func verifyPBKDF2(password []byte, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 || parts[1] != "pbkdf2-sha256" {
		return false
	}
	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds <= 0 {
		return false
	}
	salt, err := decodeAB64(parts[3])
	if err != nil {
		return false
	}
	want, err := decodeAB64(parts[4])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key(password, salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decodeAB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}

// GeneratePBKDF2Hash produces a passlib-compatible pbkdf2_sha256 hash.
// Only used to seed legacy fixtures; production code hashes with bcrypt.
func GeneratePBKDF2Hash(password string, salt []byte, rounds int) string {
	digest := pbkdf2.Key(truncatePassword(password), salt, rounds, legacyKeySize, sha256.New)
	enc := func(b []byte) string {
		return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
	}
	return legacyPrefix + strconv.Itoa(rounds) + "$" + enc(salt) + "$" + enc(digest)
}
