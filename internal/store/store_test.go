package store_test

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmarkov/passvault/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "vault.db")
	d, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		store.Close(d)
	})
	return d
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "data", "vault.db")

	d, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		store.Close(d)
	})

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file to exist at %q: %v", dbPath, err)
	}
}

func TestCreateUserAndFind(t *testing.T) {
	d := openTestDB(t)

	id, err := store.CreateUser(d, "alice", []byte("hash-bytes"))
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero user id")
	}

	row, err := store.FindUserByUsername(d, "alice")
	if err != nil {
		t.Fatalf("FindUserByUsername returned error: %v", err)
	}
	if row.ID != id {
		t.Fatalf("expected user id %d, got %d", id, row.ID)
	}
	if row.Username != "alice" {
		t.Fatalf("expected username 'alice', got %q", row.Username)
	}
	if string(row.AuthHash) != "hash-bytes" {
		t.Fatalf("auth hash mismatch: got %q", row.AuthHash)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	d := openTestDB(t)

	if _, err := store.CreateUser(d, "alice", []byte("h1")); err != nil {
		t.Fatalf("first CreateUser returned error: %v", err)
	}

	_, err := store.CreateUser(d, "alice", []byte("h2"))
	if !errors.Is(err, store.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	// The first registration must remain queryable.
	row, err := store.FindUserByUsername(d, "alice")
	if err != nil {
		t.Fatalf("FindUserByUsername after duplicate insert: %v", err)
	}
	if string(row.AuthHash) != "h1" {
		t.Fatalf("expected original auth hash, got %q", row.AuthHash)
	}
}

func TestFindUserByUsernameAbsent(t *testing.T) {
	d := openTestDB(t)

	_, err := store.FindUserByUsername(d, "nobody")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestInsertAndFindPayload(t *testing.T) {
	d := openTestDB(t)

	ownerID, err := store.CreateUser(d, "alice", []byte("h"))
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	entryID, err := store.InsertSecret(d, ownerID, "github", []byte("payload-1"))
	if err != nil {
		t.Fatalf("InsertSecret returned error: %v", err)
	}
	if entryID == 0 {
		t.Fatal("expected non-zero entry id")
	}

	payload, err := store.FindPayload(d, ownerID, "github")
	if err != nil {
		t.Fatalf("FindPayload returned error: %v", err)
	}
	if string(payload) != "payload-1" {
		t.Fatalf("payload mismatch: got %q", payload)
	}
}

func TestFindPayloadAbsent(t *testing.T) {
	d := openTestDB(t)

	ownerID, err := store.CreateUser(d, "alice", []byte("h"))
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	_, err = store.FindPayload(d, ownerID, "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDuplicateServiceNamesAddRows(t *testing.T) {
	d := openTestDB(t)

	ownerID, err := store.CreateUser(d, "alice", []byte("h"))
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if _, err := store.InsertSecret(d, ownerID, "mail", []byte("first")); err != nil {
		t.Fatalf("InsertSecret returned error: %v", err)
	}
	if _, err := store.InsertSecret(d, ownerID, "mail", []byte("second")); err != nil {
		t.Fatalf("InsertSecret returned error: %v", err)
	}

	// Re-adding never overwrites: both rows survive and list twice.
	services, err := store.ListServices(d, ownerID)
	if err != nil {
		t.Fatalf("ListServices returned error: %v", err)
	}
	if len(services) != 2 || services[0] != "mail" || services[1] != "mail" {
		t.Fatalf("expected [mail mail], got %v", services)
	}

	// FindPayload returns one of the stored rows; which one is unspecified.
	payload, err := store.FindPayload(d, ownerID, "mail")
	if err != nil {
		t.Fatalf("FindPayload returned error: %v", err)
	}
	if string(payload) != "first" && string(payload) != "second" {
		t.Fatalf("unexpected payload %q", payload)
	}
}

func TestListServicesInsertionOrder(t *testing.T) {
	d := openTestDB(t)

	ownerID, err := store.CreateUser(d, "alice", []byte("h"))
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	for _, name := range []string{"github", "mail", "bank"} {
		if _, err := store.InsertSecret(d, ownerID, name, []byte("p")); err != nil {
			t.Fatalf("InsertSecret(%q) returned error: %v", name, err)
		}
	}

	services, err := store.ListServices(d, ownerID)
	if err != nil {
		t.Fatalf("ListServices returned error: %v", err)
	}

	want := []string{"github", "mail", "bank"}
	if len(services) != len(want) {
		t.Fatalf("expected %d services, got %v", len(want), services)
	}
	for i := range want {
		if services[i] != want[i] {
			t.Fatalf("expected services %v, got %v", want, services)
		}
	}
}

func TestSecretsAreScopedByOwner(t *testing.T) {
	d := openTestDB(t)

	aliceID, err := store.CreateUser(d, "alice", []byte("h"))
	if err != nil {
		t.Fatalf("CreateUser(alice) returned error: %v", err)
	}
	bobID, err := store.CreateUser(d, "bob", []byte("h"))
	if err != nil {
		t.Fatalf("CreateUser(bob) returned error: %v", err)
	}

	if _, err := store.InsertSecret(d, aliceID, "mail", []byte("alice-mail")); err != nil {
		t.Fatalf("InsertSecret returned error: %v", err)
	}

	if _, err := store.FindPayload(d, bobID, "mail"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows for other owner, got %v", err)
	}

	services, err := store.ListServices(d, bobID)
	if err != nil {
		t.Fatalf("ListServices returned error: %v", err)
	}
	if len(services) != 0 {
		t.Fatalf("expected no services for bob, got %v", services)
	}
}
