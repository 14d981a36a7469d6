package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/repository"
)

// Validation constants for note input.
const (
	MaxTitleLength   = 200
	MaxContentLength = 100000 // ~100KB
)

// dateLayouts are the accepted formats for date-range bounds: a plain
// calendar date or a full RFC 3339 timestamp.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// NoteService handles business logic for notes: CRUD plus the query
// operations (sorting, date-range filtering, pagination, search).
//
// Every operation is scoped to an owner except ListAll and GetOne, which are
// the administrative unscoped variants. Owner scoping happens by always
// querying on (id, userID) together, never by id alone.
type NoteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger
}

// NewNoteService creates a NoteService.
func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{repo: repo, logger: logger}
}

// NotePatch is a partial update: nil fields are left unchanged.
type NotePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// NotePage is the paginated listing result.
type NotePage struct {
	Data        []model.Note `json:"data"`
	TotalNotes  int          `json:"totalNotes"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	PageSize    int          `json:"pageSize"`
}

// DeleteAllResult reports how many notes a bulk delete removed.
type DeleteAllResult struct {
	Count int64 `json:"count"`
}

// ListAll returns every note in the store, newest first, with no ownership
// scoping. Administrative.
func (s *NoteService) ListAll(ctx context.Context) ([]model.Note, error) {
	return s.repo.List(ctx, repository.NoteFilter{})
}

// ListForUser returns all notes owned by userID, newest first. A user with
// no notes gets an empty list, not an error.
func (s *NoteService) ListForUser(ctx context.Context, userID string) ([]model.Note, error) {
	return s.repo.List(ctx, repository.NoteFilter{UserID: userID})
}

// GetOne returns a single note by ID regardless of owner. Administrative.
func (s *NoteService) GetOne(ctx context.Context, id string) (*model.Note, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// GetOwned returns a note by ID only if userID owns it. Absent and
// not-owned are indistinguishable in the result.
func (s *NoteService) GetOwned(ctx context.Context, id, userID string) (*model.Note, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}
	return s.repo.GetOwned(ctx, id, userID)
}

// Create validates and persists a new note owned by userID.
func (s *NoteService) Create(ctx context.Context, userID, title, content string) (*model.Note, error) {
	if title == "" || content == "" {
		return nil, apperror.ValidationFailed("", "Title and content are required.")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title", "title is too long")
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content", "content is too long")
	}

	note := &model.Note{
		UserID:  userID,
		Title:   title,
		Content: content,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("note created",
		slog.String("id", note.ID),
		slog.String("userID", userID),
	)

	return note, nil
}

// Update applies a partial patch to an owned note.
//
// The note is resolved via the owner-scoped lookup first, so "not yours"
// surfaces as not-found before the patch is even examined. A patch with
// neither field set is rejected.
func (s *NoteService) Update(ctx context.Context, id, userID string, patch NotePatch) (*model.Note, error) {
	note, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Title == nil && patch.Content == nil {
		return nil, apperror.ValidationFailed("", "At least one field (title or content) is required to update.")
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, apperror.ValidationFailed("title", "title cannot be empty")
		}
		if len(*patch.Title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title", "title is too long")
		}
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		if len(*patch.Content) > MaxContentLength {
			return nil, apperror.ValidationFailed("content", "content is too long")
		}
		note.Content = *patch.Content
	}

	if err := s.repo.Update(ctx, note); err != nil {
		s.logger.Error("failed to update note",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("note updated", slog.String("id", note.ID))

	return note, nil
}

// Delete removes an owned note and returns the removed note's data.
func (s *NoteService) Delete(ctx context.Context, id, userID string) (*model.Note, error) {
	note, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, note.ID); err != nil {
		return nil, err
	}

	s.logger.Info("note deleted", slog.String("id", note.ID))

	return note, nil
}

// DeleteAllForUser removes every note owned by userID. A user with zero
// notes gets not-found, matching the single-delete behavior for an absent
// note.
func (s *NoteService) DeleteAllForUser(ctx context.Context, userID string) (*DeleteAllResult, error) {
	count, err := s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperror.NotFoundMessage("User has no notes to delete.")
	}

	s.logger.Info("all notes deleted",
		slog.String("userID", userID),
		slog.Int64("count", count),
	)

	return &DeleteAllResult{Count: count}, nil
}

// SortForUser returns the user's notes ordered by the given field and
// direction. Empty parameters default to newest-first; anything else outside
// the accepted sets is rejected before the store is touched. Notes with
// equal sort keys stay in insertion order.
func (s *NoteService) SortForUser(ctx context.Context, userID, sortBy, order string) ([]model.Note, error) {
	if sortBy == "" {
		sortBy = repository.SortByCreatedAt
	}
	if order == "" {
		order = repository.OrderDesc
	}

	if sortBy != repository.SortByTitle && sortBy != repository.SortByCreatedAt {
		return nil, apperror.ValidationFailed("sortBy", "Invalid sorting parameters.")
	}
	if order != repository.OrderAsc && order != repository.OrderDesc {
		return nil, apperror.ValidationFailed("order", "Invalid sorting parameters.")
	}

	return s.repo.List(ctx, repository.NoteFilter{
		UserID: userID,
		SortBy: sortBy,
		Order:  order,
	})
}

// FilterByDateRange returns the user's notes whose createdAt falls within
// the inclusive interval [from, to].
//
// The bounds are calendar-date strings ("2024-01-01") or RFC 3339
// timestamps. The owned list is fetched newest-first and then filtered, so
// the result preserves that order.
func (s *NoteService) FilterByDateRange(ctx context.Context, userID, from, to string) ([]model.Note, error) {
	fromDate, err := parseDate(from)
	if err != nil {
		return nil, apperror.ValidationFailed("from", "Invalid date format. Use ISO strings.")
	}
	toDate, err := parseDate(to)
	if err != nil {
		return nil, apperror.ValidationFailed("to", "Invalid date format. Use ISO strings.")
	}
	if fromDate.After(toDate) {
		return nil, apperror.ValidationFailed("from", "'from' date cannot be after 'to' date.")
	}

	notes, err := s.repo.List(ctx, repository.NoteFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	filtered := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if !n.CreatedAt.Before(fromDate) && !n.CreatedAt.After(toDate) {
			filtered = append(filtered, n)
		}
	}

	return filtered, nil
}

// PaginateForUser returns one page of the user's notes, newest first, with
// the page bookkeeping the client needs to render a pager.
func (s *NoteService) PaginateForUser(ctx context.Context, userID string, page, pageSize int) (*NotePage, error) {
	if page < 1 || pageSize < 1 {
		return nil, apperror.ValidationFailed("page", "Page and pageSize must be greater than 0")
	}

	notes, err := s.repo.List(ctx, repository.NoteFilter{
		UserID: userID,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, repository.NoteFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	return &NotePage{
		Data:        notes,
		TotalNotes:  total,
		TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

// SearchForUser returns the user's notes whose title or content contain the
// term, newest first. An empty or whitespace-only term is invalid; a valid
// term with zero matches is not-found.
func (s *NoteService) SearchForUser(ctx context.Context, userID, term string) ([]model.Note, error) {
	if strings.TrimSpace(term) == "" {
		return nil, apperror.ValidationFailed("search", "Search query cannot be empty")
	}

	notes, err := s.repo.List(ctx, repository.NoteFilter{
		UserID: userID,
		Search: term,
	})
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, apperror.NotFoundMessage("No notes found matching the search query")
	}

	return notes, nil
}

// parseDate tries each accepted layout in turn.
func parseDate(value string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
