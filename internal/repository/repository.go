// Package repository defines the storage interfaces the services program
// against. Services receive these interfaces, never a concrete store type,
// so tests can substitute in-memory fakes and the backend can be swapped
// without touching business logic.
package repository

import (
	"context"
	"time"

	"github.com/sakif/notekeeper/internal/model"
)

// Sort fields and orders accepted by NoteFilter. The service layer validates
// user input against these before they ever reach a query.
const (
	SortByTitle     = "title"
	SortByCreatedAt = "createdAt"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// NoteFilter describes which notes to return and in what order. It is a
// plain value; no query-builder syntax leaks above the repository.
//
// Zero values mean "no constraint": empty UserID matches all owners, nil
// From/To skip the date bounds, zero Limit returns everything. SortBy/Order
// default to newest-first.
type NoteFilter struct {
	UserID string
	Search string     // substring match on title OR content, case-insensitive
	From   *time.Time // inclusive lower bound on created_at
	To     *time.Time // inclusive upper bound on created_at
	SortBy string     // SortByTitle or SortByCreatedAt
	Order  string     // OrderAsc or OrderDesc
	Limit  int
	Offset int
}

// UserFilter describes which users to return. Search matches email or
// username as a substring.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

// UserRepository is the credential store: user records keyed by id with a
// unique email.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, error)
	Count(ctx context.Context, filter UserFilter) (int, error)
}

// NoteRepository is the notes store.
//
// GetOwned filters on (id, userID) together: it reports not-found both when
// the note is absent and when it belongs to someone else, so ownership never
// leaks through error messages.
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, id string) (*model.Note, error)
	GetOwned(ctx context.Context, id, userID string) (*model.Note, error)
	List(ctx context.Context, filter NoteFilter) ([]model.Note, error)
	Count(ctx context.Context, filter NoteFilter) (int, error)
	Update(ctx context.Context, note *model.Note) error
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
