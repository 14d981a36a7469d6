package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/handler"
	"github.com/sakif/notekeeper/internal/repository/sqlite"
	"github.com/sakif/notekeeper/internal/service"
)

const testJWTSecret = "handler-test-secret-0123456789"

// newTestAPI wires the real services over an in-memory database and mounts
// the handlers on the same routes the server uses. Going through the router
// (rather than calling handler methods directly) exercises the auth
// middleware and path parameters exactly as production requests do.
func newTestAPI(t *testing.T) *chi.Mux {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testJWTSecret)
	require.NoError(t, err, "creating token service")
	passwords := auth.NewPasswordServiceForTest(4)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authService := service.NewAuthService(db.Users(), tokens, passwords, logger)
	userService := service.NewUserService(db.Users(), logger)
	noteService := service.NewNoteService(db.Notes(), logger)

	authHandler := handler.NewAuthHandler(authService, userService, logger)
	noteHandler := handler.NewNoteHandler(noteService, logger)

	requireAuth := auth.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", authHandler.HandleProfile)
			r.Get("/users", authHandler.HandleListUsers)
			r.Get("/search", authHandler.HandleSearchUsers)
		})
	})
	router.Route("/api/notes", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", noteHandler.HandleListAll)
		r.Post("/", noteHandler.HandleCreate)
		r.Delete("/", noteHandler.HandleDeleteAll)
		r.Get("/mine", noteHandler.HandleListMine)
		r.Get("/mine/sorted", noteHandler.HandleSorted)
		r.Get("/mine/date-range", noteHandler.HandleDateRange)
		r.Get("/mine/paginated", noteHandler.HandlePaginated)
		r.Get("/mine/search", noteHandler.HandleSearch)
		r.Get("/mine/{id}", noteHandler.HandleGetMine)
		r.Get("/{id}", noteHandler.HandleGetOne)
		r.Patch("/{id}", noteHandler.HandleUpdate)
		r.Delete("/{id}", noteHandler.HandleDelete)
	})

	return router
}

// doRequest runs one request through the router. A non-empty token goes into
// the Authorization header; a non-nil body is JSON-encoded.
func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err, "encoding request body")
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates an account and returns a usable bearer token.
func registerAndLogin(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "tester",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register: %s", rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, "login: %s", rec.Body.String())

	var result struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.AccessToken)
	return result.AccessToken
}

// createNote posts a note and returns its decoded body.
func createNote(t *testing.T, router http.Handler, token, title, content string) map[string]any {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/notes", token, map[string]string{
		"title":   title,
		"content": content,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "create note: %s", rec.Body.String())

	var note map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	return note
}

// decodeError unpacks the standard error envelope.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (errType, message string) {
	t.Helper()

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error, body.Message
}
