// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"authd/internal/domain/service"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 210_000
	pbkdf2KeyLength  = 32
)

// pbkdf2Hasher is a concrete implementation of the PasswordHasher interface
// using PBKDF2-HMAC-SHA256 with an externally stored per-user salt.
type pbkdf2Hasher struct{}

// NewPBKDF2Hasher is the constructor for pbkdf2Hasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewPBKDF2Hasher() service.PasswordHasher {
	return &pbkdf2Hasher{}
}

// Hash derives a hex-encoded key from the plaintext password and the given salt.
func (h *pbkdf2Hasher) Hash(password, salt string) (string, error) {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha256.New)

	return hex.EncodeToString(key), nil
}

// Check recomputes the hash with the stored salt and compares it against the
// stored hash in constant time.
func (h *pbkdf2Hasher) Check(password, salt, hash string) bool {
	computed, err := h.Hash(password, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
