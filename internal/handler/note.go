package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/service"
)

// NoteHandler exposes the notes CRUD and query endpoints. Every route is
// behind RequireAuth; the owner scope comes from the token identity, never
// from the URL, so a caller can only ever name their own notes.
type NoteHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a NoteHandler.
func NewNoteHandler(notes *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// identity pulls the caller out of the request context. The zero return
// only happens if the route was wired without RequireAuth: a programming
// error, answered with a 401 all the same.
func (h *NoteHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required"})
	}
	return id, ok
}

// HandleListAll returns every note in the store, newest first.
//
// HTTP: GET /api/notes
func (h *NoteHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleListMine returns the caller's notes, newest first.
//
// HTTP: GET /api/notes/mine
func (h *NoteHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.ListForUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleGetOne returns a note by ID regardless of owner.
//
// HTTP: GET /api/notes/{id}
func (h *NoteHandler) HandleGetOne(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.GetOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleGetMine returns one of the caller's notes by ID.
//
// HTTP: GET /api/notes/mine/{id}
func (h *NoteHandler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	note, err := h.notes.GetOwned(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleCreate creates a note owned by the caller.
//
// HTTP: POST /api/notes
// Body: {"title":"...","content":"..."}
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "Invalid JSON body"})
		return
	}

	note, err := h.notes.Create(r.Context(), id.UserID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// HandleUpdate applies a partial update to one of the caller's notes.
// Fields absent from the body are left unchanged.
//
// HTTP: PATCH /api/notes/{id}
// Body: {"title":"..."} and/or {"content":"..."}
func (h *NoteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var patch service.NotePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "Invalid JSON body"})
		return
	}

	note, err := h.notes.Update(r.Context(), chi.URLParam(r, "id"), id.UserID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleDelete removes one of the caller's notes and returns its data.
//
// HTTP: DELETE /api/notes/{id}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	note, err := h.notes.Delete(r.Context(), chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleDeleteAll removes every note the caller owns.
//
// HTTP: DELETE /api/notes
// Response: {"count": N}
func (h *NoteHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	result, err := h.notes.DeleteAllForUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleSorted returns the caller's notes in the requested order.
//
// HTTP: GET /api/notes/mine/sorted?sortBy=title|createdAt&order=asc|desc
func (h *NoteHandler) HandleSorted(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	notes, err := h.notes.SortForUser(r.Context(), id.UserID, q.Get("sortBy"), q.Get("order"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandleDateRange returns the caller's notes created within [from, to].
//
// HTTP: GET /api/notes/mine/date-range?from=2024-01-01&to=2024-12-31
func (h *NoteHandler) HandleDateRange(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	notes, err := h.notes.FilterByDateRange(r.Context(), id.UserID, q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// HandlePaginated returns one page of the caller's notes.
//
// HTTP: GET /api/notes/mine/paginated?page=1&pageSize=10
func (h *NoteHandler) HandlePaginated(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 10)

	result, err := h.notes.PaginateForUser(r.Context(), id.UserID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleSearch returns the caller's notes matching a substring search.
//
// HTTP: GET /api/notes/mine/search?search=term
func (h *NoteHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.SearchForUser(r.Context(), id.UserID, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}
