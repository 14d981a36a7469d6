package model

import "time"

// Note is a single note record owned by exactly one user.
//
// UserID is a foreign reference to users.id: a note belongs to a user, it
// does not own it. All owner-scoped lookups filter on (id, user_id)
// together, never on id alone, so one user can never read or mutate
// another's notes.
//
// CreatedAt is assigned once at insert time and never changes. UpdatedAt is
// refreshed on every update.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
