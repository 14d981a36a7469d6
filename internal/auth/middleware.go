package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("auth: missing bearer token")

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions: only this package can
// create a key of type contextKey, so only this package can read or write
// identity values in the context.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the standard "Authorization: Bearer <token>" header,
// validates it, and stores the decoded identity in the request context. If
// the token is missing, malformed, expired, or fails the signature check, it
// returns 401 Unauthorized and stops the request chain before the handler runs.
//
// The middleware never touches the database; everything it needs is inside
// the signed token. It has no side effects beyond the context attachment, so
// stacking it twice is harmless.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}`))
				return
			}

			// Store the identity in context so handlers can read it
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller's identity from the
// request context.
//
// Returns (Identity{}, false) if no valid token was presented, which should
// never happen on a RequireAuth-protected route, but handlers check anyway
// rather than trusting middleware ordering.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// extractIdentity reads and validates the bearer token from the
// Authorization header.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	header := r.Header.Get("Authorization")

	// The scheme comparison is case-insensitive per RFC 7235.
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return Identity{}, errNoToken
	}

	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}
