// Package service contains the business logic layer of the application.
//
// The layering follows the usual shape:
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates input, enforces rules, orchestrates
//	Repository (DB) → reads/writes rows
//
// Services accept primitives and return domain errors from the apperror
// package; they know nothing about HTTP. Handlers translate those errors to
// status codes at the boundary.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/notekeeper/internal/apperror"
	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/model"
	"github.com/sakif/notekeeper/internal/repository"
)

// AuthService handles registration, credential validation, and token
// issuance.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → sign/verify JWTs
//   - passwords  *auth.PasswordService     → bcrypt hashing
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// TokenResult is returned by login. The JSON key matches what API clients
// expect from a bearer-token endpoint.
type TokenResult struct {
	AccessToken string `json:"access_token"`
}

// Register creates a new user account.
//
// All three fields are required; the email must parse as an address. The
// password is bcrypt-hashed before it goes anywhere near the repository.
//
// A duplicate email comes back from the store as a conflict, but we surface
// it as the same generic creation failure as any other insert problem. A
// register endpoint that says "email already taken" doubles as an oracle for
// which emails have accounts.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "email must be a valid email address")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is not usable")
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Warn("user registration failed",
			slog.String("error", err.Error()),
		)
		return nil, apperror.ValidationFailed("", "failed to create new user")
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// ValidateCredentials checks an email/password pair and returns the matching
// user with the password hash stripped.
//
// "No such user" and "wrong password" both fail with the SAME error. If the
// two cases were distinguishable, the login endpoint would leak which emails
// are registered.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	// Return a copy with the hash zeroed so it can't travel further up the
	// stack. The json:"-" tag already keeps it out of responses; this keeps
	// it out of logs and handler code too.
	stripped := *user
	stripped.PasswordHash = ""
	return &stripped, nil
}

// IssueToken signs {sub: user.ID, email: user.Email} into an access token.
// No side effects beyond the signing call; nothing is persisted.
func (s *AuthService) IssueToken(user *model.User) (*TokenResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &TokenResult{AccessToken: token}, nil
}

// Login validates credentials and issues a token in one step.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResult, error) {
	user, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.IssueToken(user)
}

// Profile returns the user record for the given internal ID. Used by the
// guarded profile route after the middleware has decoded the token.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stripped := *user
	stripped.PasswordHash = ""
	return &stripped, nil
}
