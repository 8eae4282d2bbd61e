package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmarkov/passvault/internal/krypto"
	"github.com/dmarkov/passvault/internal/store"
)

// Session is the caller-owned proof of authentication. It carries the owner's
// row ID and the master password bytes needed to re-derive entry keys; the
// engine never stores one. The master password exists only in process memory
// and is wiped on Logout.
type Session struct {
	ID     uuid.UUID
	UserID int64

	master []byte
}

func (s *Session) authenticated() bool {
	return s != nil && len(s.master) > 0
}

// Engine orchestrates the account store, secret store, and crypto units
// behind the five-operation vault boundary. It holds no session state.
type Engine struct {
	db  *store.DB
	log *slog.Logger
}

// New returns an engine bound to an open vault database. A nil logger falls
// back to slog.Default.
func New(db *store.DB, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{db: db, log: log}
}

// Register creates an account for username, hashing the master password with
// the credential hasher. The caller stays logged out; registering never opens
// a session.
func (e *Engine) Register(username, master string) (int64, error) {
	authHash, err := krypto.HashMasterPassword(master)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	id, err := store.CreateUser(e.db, username, authHash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	e.log.Info("user registered", "username", username, "user_id", id)
	return id, nil
}

// Login verifies username and master password against the stored auth hash
// and returns a fresh Session. An unknown username and a wrong password are
// indistinguishable to the caller.
func (e *Engine) Login(username, master string) (*Session, error) {
	user, err := store.FindUserByUsername(e.db, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if !krypto.VerifyMasterPassword(master, user.AuthHash) {
		e.log.Warn("login failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	s := &Session{
		ID:     uuid.New(),
		UserID: user.ID,
		master: []byte(master),
	}
	e.log.Info("login succeeded", "username", username, "user_id", user.ID, "session", s.ID)
	return s, nil
}

// PutSecret encrypts the secret under a key derived from the session's master
// password and a fresh per-entry salt, then persists it for serviceName.
// Storing the same service name again adds a second entry.
func (e *Engine) PutSecret(s *Session, serviceName, secret string) (int64, error) {
	if !s.authenticated() {
		return 0, ErrNotAuthenticated
	}

	salt, err := krypto.NewRandomSalt()
	if err != nil {
		return 0, fmt.Errorf("put secret: %w", err)
	}

	key, err := krypto.DeriveKey(string(s.master), salt)
	if err != nil {
		return 0, fmt.Errorf("put secret: %w", err)
	}
	defer krypto.Zeroize(key)

	cipherBlob, err := krypto.EncryptCFB(key, []byte(secret))
	if err != nil {
		return 0, fmt.Errorf("put secret: %w", err)
	}

	id, err := store.InsertSecret(e.db, s.UserID, serviceName, encodePayload(salt, cipherBlob))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	e.log.Info("secret stored", "session", s.ID, "service", serviceName, "entry_id", id)
	return id, nil
}

// GetSecret fetches the first stored entry for serviceName, re-derives its
// key from the session's master password, and decrypts. Decode and decrypt
// failures surface as ErrDecryptionFailed; CFB has no integrity tag, so a
// wrong master password may instead yield garbage bytes.
func (e *Engine) GetSecret(s *Session, serviceName string) (string, error) {
	if !s.authenticated() {
		return "", ErrNotAuthenticated
	}

	payload, err := store.FindPayload(e.db, s.UserID, serviceName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	salt, cipherBlob, err := decodePayload(payload)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	key, err := krypto.DeriveKey(string(s.master), salt)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	defer krypto.Zeroize(key)

	plaintext, err := krypto.DecryptCFB(key, cipherBlob)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	e.log.Info("secret retrieved", "session", s.ID, "service", serviceName)
	return string(plaintext), nil
}

// ListServices returns the service names stored for the session's owner in
// insertion order, one per stored entry.
func (e *Engine) ListServices(s *Session) ([]string, error) {
	if !s.authenticated() {
		return nil, ErrNotAuthenticated
	}

	services, err := store.ListServices(e.db, s.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return services, nil
}

// Logout wipes the session's master password bytes. The session is useless
// afterwards; secret operations on it fail with ErrNotAuthenticated.
func (e *Engine) Logout(s *Session) {
	if s == nil {
		return
	}
	krypto.Zeroize(s.master)
	s.master = nil
	e.log.Info("logged out", "session", s.ID, "user_id", s.UserID)
}
