package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/repository"
)

// UserStore implements repository.UserRepository on top of the shared
// connection pool.
type UserStore struct {
	conn *sql.DB
}

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new user. The ID and CreatedAt are assigned here and
// written back into the caller's struct.
//
// A violation of the UNIQUE email constraint comes back as a conflict error.
// The driver doesn't export a typed constraint error, so we match on the
// message. Fragile in general, but SQLite's "UNIQUE constraint failed"
// prefix has been stable for a decade.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by exact email match.
// Returns apperror.ErrNotFound if no user exists with that email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &u, nil
}

// GetByID retrieves a user by their internal ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// List returns users matching the filter, newest first.
func (s *UserStore) List(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	query := `SELECT id, email, username, password_hash, created_at FROM users`
	where, args := userWhere(filter)
	query += where + ` ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Count returns the number of users matching the filter, ignoring
// Limit/Offset.
func (s *UserStore) Count(ctx context.Context, filter repository.UserFilter) (int, error) {
	where, args := userWhere(filter)

	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting users: %w", err)
	}
	return count, nil
}

// userWhere builds the WHERE clause shared by List and Count so the two can
// never disagree about which rows match.
func userWhere(filter repository.UserFilter) (string, []any) {
	if filter.Search == "" {
		return "", nil
	}
	pattern := likePattern(filter.Search)
	return ` WHERE email LIKE ? ESCAPE '\' OR username LIKE ? ESCAPE '\'`,
		[]any{pattern, pattern}
}
