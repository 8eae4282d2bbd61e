package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// InsertSecret stores a new encrypted payload for the owner and returns the
// row ID. Re-adding the same service name creates a second row, never an
// overwrite.
func InsertSecret(d *DB, ownerID int64, serviceName string, payload []byte) (int64, error) {
	if d == nil || d.sql == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	res, err := d.sql.Exec(
		`INSERT INTO secrets (owner_id, service_name, payload) VALUES (?, ?, ?)`,
		ownerID, serviceName, payload,
	)
	if err != nil {
		return 0, fmt.Errorf("insert secret: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("fetch insert id: %w", err)
	}

	return id, nil
}

// FindPayload returns the stored payload for (ownerID, serviceName), or
// sql.ErrNoRows when absent. With duplicate service names the row returned is
// whichever the storage engine yields first; callers must not rely on any
// particular ordering.
func FindPayload(d *DB, ownerID int64, serviceName string) ([]byte, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	var payload []byte
	err := d.sql.QueryRow(
		`SELECT payload FROM secrets WHERE owner_id = ? AND service_name = ? LIMIT 1`,
		ownerID, serviceName,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select secret: %w", err)
	}

	return payload, nil
}

// ListServices returns the service names stored for ownerID in insertion
// order. Duplicates appear once per stored row.
func ListServices(d *DB, ownerID int64) ([]string, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	rows, err := d.sql.Query(
		`SELECT service_name FROM secrets WHERE owner_id = ? ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var services []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan service name: %w", err)
		}
		services = append(services, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service rows: %w", err)
	}

	return services, nil
}
