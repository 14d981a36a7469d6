// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash carries the bcrypt digest of the user's password. It is
// tagged `json:"-"` so it can never leak through an API response; the
// encoding/json package skips it entirely. The plaintext password is never
// stored anywhere; it exists only for the duration of a register or login
// request.
//
// Email is UNIQUE at the database level. That constraint, not application
// code, is the source of truth for "one account per email".
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
