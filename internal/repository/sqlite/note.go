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

// NoteStore implements repository.NoteRepository on top of the shared
// connection pool.
type NoteStore struct {
	conn *sql.DB
}

// compile-time check that *NoteStore implements repository.NoteRepository
var _ repository.NoteRepository = (*NoteStore)(nil)

// Create inserts a new note. ID and timestamps are assigned here and written
// back into the caller's struct.
func (s *NoteStore) Create(ctx context.Context, note *model.Note) error {
	note.ID = xid.New().String()

	now := time.Now()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating note: %w", err)
	}

	return nil
}

// GetByID retrieves a single note by its ID, regardless of owner.
func (s *NoteStore) GetByID(ctx context.Context, id string) (*model.Note, error) {
	return s.getNote(ctx,
		`SELECT id, user_id, title, content, created_at, updated_at
		 FROM notes WHERE id = ?`,
		id, id)
}

// GetOwned retrieves a note by ID scoped to its owner. A note that exists
// but belongs to a different user is reported exactly like a note that
// doesn't exist.
func (s *NoteStore) GetOwned(ctx context.Context, id, userID string) (*model.Note, error) {
	return s.getNote(ctx,
		`SELECT id, user_id, title, content, created_at, updated_at
		 FROM notes WHERE id = ? AND user_id = ?`,
		id, id, userID)
}

func (s *NoteStore) getNote(ctx context.Context, query, id string, args ...any) (*model.Note, error) {
	var n model.Note

	err := s.conn.QueryRowContext(ctx, query, args...).Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("note", id)
		}
		return nil, fmt.Errorf("sqlite: getting note %s: %w", id, err)
	}

	return &n, nil
}

// List returns the notes matching the filter.
//
// The filter compiles down to WHERE / ORDER BY / LIMIT clauses here and
// nowhere else, so the service layer stays SQL-free. Default ordering is
// newest first; a secondary sort on id keeps equal keys in insertion order
// (xids are monotone within a process).
func (s *NoteStore) List(ctx context.Context, filter repository.NoteFilter) ([]model.Note, error) {
	query := `SELECT id, user_id, title, content, created_at, updated_at FROM notes`
	where, args := noteWhere(filter)
	query += where + noteOrder(filter)

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}

	return notes, nil
}

// Count returns the number of notes matching the filter, ignoring
// Limit/Offset.
func (s *NoteStore) Count(ctx context.Context, filter repository.NoteFilter) (int, error) {
	where, args := noteWhere(filter)

	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting notes: %w", err)
	}
	return count, nil
}

// Update persists the note's title, content, and updated_at. ID, owner, and
// created_at are immutable.
func (s *NoteStore) Update(ctx context.Context, note *model.Note) error {
	note.UpdatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		note.Title,
		note.Content,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating note %s: %w", note.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("note", note.ID)
	}

	return nil
}

// Delete removes a note by its ID.
func (s *NoteStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting note %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("note", id)
	}

	return nil
}

// DeleteAllForUser removes every note owned by userID and returns how many
// were deleted. Deleting zero notes is not an error at this layer; the
// service decides what an empty result means.
func (s *NoteStore) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM notes WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting notes for user %s: %w", userID, err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return count, nil
}

// noteWhere builds the WHERE clause shared by List and Count.
func noteWhere(filter repository.NoteFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.UserID != "" {
		conds = append(conds, `user_id = ?`)
		args = append(args, filter.UserID)
	}
	if filter.Search != "" {
		// LIKE is case-insensitive for ASCII in SQLite, which is the
		// search behavior we want.
		pattern := likePattern(filter.Search)
		conds = append(conds, `(title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if filter.From != nil {
		conds = append(conds, `created_at >= ?`)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conds = append(conds, `created_at <= ?`)
		args = append(args, *filter.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

// noteOrder maps the filter's sort field/order onto an ORDER BY clause.
// Column names come from a fixed map, never from user input, so this cannot
// be used for SQL injection even though it's string concatenation.
func noteOrder(filter repository.NoteFilter) string {
	column := "created_at"
	if filter.SortBy == repository.SortByTitle {
		column = "title"
	}

	dir := "DESC"
	if filter.Order == repository.OrderAsc {
		dir = "ASC"
	}

	return fmt.Sprintf(` ORDER BY %s %s, id ASC`, column, dir)
}

// likePattern wraps a search term for substring matching, escaping LIKE
// metacharacters so a literal "%" or "_" in the term matches itself.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}
