package vault

import (
	"encoding/base64"
	"errors"

	"github.com/dmarkov/passvault/internal/krypto"
)

// Persisted payload layout, kept bit-for-bit compatible with existing vaults:
//
//	stored = base64( salt(16) || base64( iv(16) || ciphertext ) )
//
// The inner blob is base64-encoded before the salt is prepended, so the salt
// bytes are raw while the iv||ciphertext portion is text. The double encoding
// is redundant but deliberate; simplifying it would make stored data
// unreadable.

// encodePayload assembles the stored form from a raw salt and the
// iv||ciphertext blob produced by the cipher unit.
func encodePayload(salt, cipherBlob []byte) []byte {
	inner := make([]byte, base64.StdEncoding.EncodedLen(len(cipherBlob)))
	base64.StdEncoding.Encode(inner, cipherBlob)

	combined := make([]byte, 0, len(salt)+len(inner))
	combined = append(combined, salt...)
	combined = append(combined, inner...)

	stored := make([]byte, base64.StdEncoding.EncodedLen(len(combined)))
	base64.StdEncoding.Encode(stored, combined)
	return stored
}

// decodePayload reverses encodePayload, returning the salt and the raw
// iv||ciphertext blob.
func decodePayload(stored []byte) (salt, cipherBlob []byte, err error) {
	combined, err := base64.StdEncoding.DecodeString(string(stored))
	if err != nil {
		return nil, nil, errors.New("malformed payload encoding")
	}
	if len(combined) < krypto.SaltLengthBytes {
		return nil, nil, errors.New("payload too short to hold salt")
	}

	salt = combined[:krypto.SaltLengthBytes]
	cipherBlob, err = base64.StdEncoding.DecodeString(string(combined[krypto.SaltLengthBytes:]))
	if err != nil {
		return nil, nil, errors.New("malformed inner payload encoding")
	}

	return salt, cipherBlob, nil
}
