package krypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLengthBytes is the enforced length of per-entry salts.
	SaltLengthBytes = 16
	// KDFIterations is the fixed PBKDF2 iteration count. Chosen to slow
	// offline brute force while staying interactively fast.
	KDFIterations = 100_000
	// KeyLengthBytes is the derived key length, matching AES-256.
	KeyLengthBytes = 32
)

// ErrInvalidSaltLength reports a salt that is not exactly SaltLengthBytes long.
var ErrInvalidSaltLength = fmt.Errorf("salt must be exactly %d bytes", SaltLengthBytes)

// DeriveKey derives a 32-byte encryption key from the master password and a
// per-entry salt using PBKDF2-HMAC-SHA256. Deterministic: the key is never
// stored and is re-derived from the same inputs on every decrypt.
func DeriveKey(masterPassword string, salt []byte) ([]byte, error) {
	if masterPassword == "" {
		return nil, errors.New("master password is required")
	}
	if len(salt) != SaltLengthBytes {
		return nil, ErrInvalidSaltLength
	}
	return pbkdf2.Key([]byte(masterPassword), salt, KDFIterations, KeyLengthBytes, sha256.New), nil
}

// NewRandomSalt returns a cryptographically secure random 16-byte salt.
func NewRandomSalt() ([]byte, error) {
	salt := make([]byte, SaltLengthBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Zeroize overwrites sensitive byte slices in place to reduce lifetime in memory.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
