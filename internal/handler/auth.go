package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/service"
)

// AuthHandler exposes registration, login, profile lookup, and the
// authenticated user directory.
type AuthHandler struct {
	auths  *service.AuthService
	users  *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auths *service.AuthService, users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auths: auths, users: users, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /auth/register
// Body: {"username":"...","email":"...","password":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "Invalid JSON body"})
		return
	}

	user, err := h.auths.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin validates credentials and returns a bearer token.
//
// HTTP: POST /auth/login
// Body: {"email":"...","password":"..."}
// Response: {"access_token":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "Invalid JSON body"})
		return
	}

	result, err := h.auths.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleProfile returns the authenticated caller's identity and profile.
//
// HTTP: GET /auth/profile (guarded)
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required"})
		return
	}

	user, err := h.auths.Profile(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleListUsers returns a paginated, searched user listing.
//
// HTTP: GET /auth/users?page=1&pageSize=10&search=term (guarded)
func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 10)
	search := r.URL.Query().Get("search")

	result, err := h.users.List(r.Context(), page, pageSize, search)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleSearchUsers returns users matching a search term.
//
// HTTP: GET /auth/search?search=term (guarded)
func (h *AuthHandler) HandleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent. A present-but-unparsable value returns -1 so the
// service rejects it as out of range rather than silently using the default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
