package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/notekeeper/internal/model"
)

// newTestDB opens an in-memory database with the full schema applied. Each
// test gets its own database, so tests never see each other's rows.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(\":memory:\") error = %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestUser inserts a user and returns it with the assigned ID.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:        email,
		Username:     "tester",
		PasswordHash: "$2a$04$notarealhash",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return user
}

// createTestNote inserts a note owned by userID and returns it.
func createTestNote(t *testing.T, db *DB, userID, title, content string) *model.Note {
	t.Helper()

	note := &model.Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if err := db.Notes().Create(context.Background(), note); err != nil {
		t.Fatalf("creating test note %q: %v", title, err)
	}
	return note
}
