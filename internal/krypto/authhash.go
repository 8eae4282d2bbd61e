package krypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashMasterPassword produces a salted bcrypt hash of the master password for
// authentication. The output is self-describing (algorithm, cost, and salt are
// embedded), so verification needs no side lookup.
//
// Deliberately a different algorithm family from DeriveKey: the stored
// authentication hash and the encryption key must not be derivable from one
// another.
func HashMasterPassword(master string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(master), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash master password: %w", err)
	}
	return hash, nil
}

// VerifyMasterPassword reports whether master matches the stored bcrypt hash.
// A mismatch returns false, never an error.
func VerifyMasterPassword(master string, authHash []byte) bool {
	return bcrypt.CompareHashAndPassword(authHash, []byte(master)) == nil
}
