package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateUsername reports a registration attempt for a username that
// already exists. Enforced by the UNIQUE constraint on users.username.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRow represents an account row retrieved from storage.
type UserRow struct {
	ID       int64
	Username string
	AuthHash []byte
}

// CreateUser stores a new account row and returns its database ID.
func CreateUser(d *DB, username string, authHash []byte) (int64, error) {
	if d == nil || d.sql == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	res, err := d.sql.Exec(
		`INSERT INTO users (username, auth_hash) VALUES (?, ?)`,
		username, authHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("fetch insert id: %w", err)
	}

	return id, nil
}

// FindUserByUsername returns the account row for username, or sql.ErrNoRows
// when no such account exists.
func FindUserByUsername(d *DB, username string) (*UserRow, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	var r UserRow
	err := d.sql.QueryRow(
		`SELECT id, username, auth_hash FROM users WHERE username = ?`,
		username,
	).Scan(&r.ID, &r.Username, &r.AuthHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	return &r, nil
}

// isUniqueViolation matches the driver's constraint error text; modernc.org/sqlite
// does not export a typed error for this.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
