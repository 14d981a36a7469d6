package service

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/repository"
)

// UserService provides the authenticated user directory: paginated listing
// with search, and a plain search endpoint.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// UserPage is the paginated user listing result.
type UserPage struct {
	Data      []model.User `json:"data"`
	Total     int          `json:"total"`
	Page      int          `json:"page"`
	PageSize  int          `json:"pageSize"`
	PageCount int          `json:"pageCount"`
}

// List returns a page of users whose email or username contain the search
// term, newest first.
//
// The search term is required on this endpoint: an empty term would be an
// unfiltered dump of the whole user table.
func (s *UserService) List(ctx context.Context, page, pageSize int, search string) (*UserPage, error) {
	if strings.TrimSpace(search) == "" {
		return nil, apperror.ValidationFailed("search", "Search query cannot be empty")
	}
	if page < 1 || pageSize < 1 {
		return nil, apperror.ValidationFailed("page", "Page and pageSize must be greater than 0")
	}

	filter := repository.UserFilter{
		Search: search,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.users.Count(ctx, repository.UserFilter{Search: search})
	if err != nil {
		return nil, err
	}

	stripHashes(users)

	return &UserPage{
		Data:      users,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		PageCount: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Search returns all users whose email or username contain the term, newest
// first. No pagination; this backs a typeahead-style endpoint.
func (s *UserService) Search(ctx context.Context, term string) ([]model.User, error) {
	if strings.TrimSpace(term) == "" {
		return nil, apperror.ValidationFailed("search", "Search query cannot be empty")
	}

	users, err := s.users.List(ctx, repository.UserFilter{Search: term})
	if err != nil {
		return nil, err
	}

	stripHashes(users)
	return users, nil
}

// stripHashes zeroes the password hash on every record before it leaves the
// service. Belt and braces on top of the json:"-" tag.
func stripHashes(users []model.User) {
	for i := range users {
		users[i].PasswordHash = ""
	}
}
