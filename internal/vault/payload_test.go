package vault

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	require.NoError(t, err)

	cipherBlob := make([]byte, 16+27) // iv plus arbitrary ciphertext
	_, err = rand.Read(cipherBlob)
	require.NoError(t, err)

	stored := encodePayload(salt, cipherBlob)

	gotSalt, gotBlob, err := decodePayload(stored)
	require.NoError(t, err)
	assert.Equal(t, salt, gotSalt)
	assert.Equal(t, cipherBlob, gotBlob)
}

// The stored form is base64(salt || base64(iv||ciphertext)): the salt stays
// raw while the cipher blob is base64 text, and the concatenation is encoded
// again. Decoding by hand must recover the (salt, iv, ciphertext) triple
// bit-for-bit.
func TestPayloadLayoutStability(t *testing.T) {
	salt := bytes.Repeat([]byte{0xA5}, 16)
	iv := bytes.Repeat([]byte{0x3C}, 16)
	ciphertext := []byte{0x01, 0x02, 0x03, 0xFF}
	cipherBlob := append(append([]byte{}, iv...), ciphertext...)

	stored := encodePayload(salt, cipherBlob)

	outer, err := base64.StdEncoding.DecodeString(string(stored))
	require.NoError(t, err)
	require.Equal(t, salt, outer[:16])

	inner, err := base64.StdEncoding.DecodeString(string(outer[16:]))
	require.NoError(t, err)
	assert.Equal(t, iv, inner[:16])
	assert.Equal(t, ciphertext, inner[16:])
}

func TestDecodePayloadMalformed(t *testing.T) {
	_, _, err := decodePayload([]byte("!!! not base64 !!!"))
	assert.Error(t, err)

	// Valid outer base64 but too short to hold a salt.
	short := []byte(base64.StdEncoding.EncodeToString([]byte("tiny")))
	_, _, err = decodePayload(short)
	assert.Error(t, err)

	// Valid outer layer with garbage where the inner base64 should be.
	combined := append(bytes.Repeat([]byte{0x00}, 16), 0xFF, 0xFE)
	bad := []byte(base64.StdEncoding.EncodeToString(combined))
	_, _, err = decodePayload(bad)
	assert.Error(t, err)
}
