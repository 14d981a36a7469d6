// Package auth provides JWT token generation and validation for the notes API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. POST /auth/register → user row is created with a bcrypt password hash
// 2. POST /auth/login → credentials verified, server issues a JWT access token
// 3. The client sends "Authorization: Bearer <token>" on every API call
// 4. Middleware validates the JWT and sets the caller's identity in the
//    request context: no DB lookup, no server-side session state
//
// The token payload carries exactly two identity claims: the user's internal
// ID in "sub" (the standard Subject claim) and their email. Decoding a token
// with the same secret recovers those two fields unchanged.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "notekeeper"

// accessTokenTTL is how long an issued token stays valid. After expiry the
// client must log in again.
const accessTokenTTL = 24 * time.Hour

// Identity is the decoded payload of a validated token: who the caller is.
// It mirrors the claims minted at login; nothing more is ever encoded.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (Subject,
// ExpiresAt, IssuedAt, Issuer) and adds the email claim.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate creates and signs a new access token for the given identity.
//
// Signing algorithm: HS256 (HMAC-SHA256), symmetric: same key signs and
// verifies. Fine for a single-server deployment; switch to RS256 if tokens
// ever need to be verified by other services.
func (s *TokenService) Generate(userID, email string) (string, error) {
	return s.GenerateWithDuration(userID, email, accessTokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it
// encodes.
//
// Checks performed (by the jwt library):
//   - Signature is valid (token wasn't tampered with)
//   - Token is not expired
//   - Issuer matches ours (rejects tokens minted by other apps)
//   - Algorithm is HS256; passing jwt.WithValidMethods prevents the
//     classic algorithm-confusion attack where an attacker submits a token
//     signed with "none"
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
