package vault

import "errors"

// Error kinds crossing the engine boundary. All storage and cryptographic
// failures are normalized into these; no driver or crypto error type reaches
// the caller.
var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or master password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrDecryptionFailed   = errors.New("could not decrypt secret")
	ErrStorage            = errors.New("storage error")
)
