package krypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// IVLengthBytes is the AES block size, used for CFB initialization vectors.
const IVLengthBytes = aes.BlockSize

// EncryptCFB encrypts plaintext with AES-256 in CFB mode under a fresh random
// 16-byte IV and returns iv||ciphertext. The IV is not secret and is stored in
// the clear, but it must be unpredictable, hence crypto/rand.
func EncryptCFB(key, plaintext []byte) ([]byte, error) {
	if len(key) != KeyLengthBytes {
		return nil, errors.New("aes-cfb requires a 32-byte key")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	out := make([]byte, IVLengthBytes+len(plaintext))
	iv := out[:IVLengthBytes]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	cipher.NewCFBEncrypter(block, iv).XORKeyStream(out[IVLengthBytes:], plaintext)
	return out, nil
}

// DecryptCFB splits blob into iv||ciphertext and decrypts with AES-256-CFB.
// CFB carries no integrity tag: a wrong key yields garbage bytes, not an
// error. Only a blob too short to hold an IV is rejected.
func DecryptCFB(key, blob []byte) ([]byte, error) {
	if len(key) != KeyLengthBytes {
		return nil, errors.New("aes-cfb requires a 32-byte key")
	}
	if len(blob) < IVLengthBytes {
		return nil, errors.New("encrypted blob too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	iv := blob[:IVLengthBytes]
	ciphertext := blob[IVLengthBytes:]

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plaintext, ciphertext)
	return plaintext, nil
}
