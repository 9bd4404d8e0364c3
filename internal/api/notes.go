package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/bronotion/backend/internal/store"
)

// NoteResponse is the note shape consumed by the sync agent: the exact
// fields of GET /api/notes/{noteId}.
type NoteResponse struct {
	NoteID    uint      `json:"note_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	TagID     *uint     `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func noteResponse(n *store.Note) NoteResponse {
	return NoteResponse{
		NoteID:    n.NoteID,
		Title:     n.Title,
		Content:   n.Content,
		TagID:     n.TagID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	TagID   *uint  `json:"tagId"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	TagID   *uint   `json:"tagId"`
}

func noteIDVar(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["noteId"], 10, 32)
	return uint(id), err
}

// canRead reports whether the user owns the note or has any share on it.
func (a *API) canRead(note *store.Note, userID string) bool {
	if note.OwnerID == userID {
		return true
	}
	_, err := a.store.Shares.Find(note.NoteID, userID)
	return err == nil
}

// canEdit reports whether the user owns the note or holds an edit share.
func (a *API) canEdit(note *store.Note, userID string) bool {
	if note.OwnerID == userID {
		return true
	}
	share, err := a.store.Shares.Find(note.NoteID, userID)
	return err == nil && share.CanEdit
}

func (a *API) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	notes, err := a.store.Notes.ListForUser(currentUserID(r))
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to list notes")
		return
	}

	response := make([]NoteResponse, len(notes))
	for i, n := range notes {
		response[i] = noteResponse(n)
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"notes": response})
}

func (a *API) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == "" {
		req.Title = "Untitled"
	}
	note := &store.Note{
		OwnerID: currentUserID(r),
		Title:   req.Title,
		Content: req.Content,
		TagID:   req.TagID,
	}
	if err := a.store.Notes.Create(note); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to create note")
		return
	}

	jsonResponse(w, http.StatusCreated, noteResponse(note))
}

func (a *API) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := noteIDVar(r)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	note, err := a.store.Notes.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "Note not found")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to get note")
		return
	}

	if !a.canRead(note, currentUserID(r)) {
		errorResponse(w, http.StatusForbidden, "No access to this note")
		return
	}

	jsonResponse(w, http.StatusOK, noteResponse(note))
}

// UpdateNoteHandler is the explicit-save path: the only way note content
// reaches the store.
func (a *API) UpdateNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := noteIDVar(r)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	var req UpdateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := a.store.Notes.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "Note not found")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to get note")
		return
	}

	if !a.canEdit(note, currentUserID(r)) {
		errorResponse(w, http.StatusForbidden, "No edit access to this note")
		return
	}

	fields := make(map[string]interface{})
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if req.TagID != nil {
		fields["tag_id"] = *req.TagID
	}
	if len(fields) == 0 {
		errorResponse(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	if err := a.store.Notes.Update(id, fields); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to update note")
		return
	}

	updated, err := a.store.Notes.Get(id)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to get note")
		return
	}
	jsonResponse(w, http.StatusOK, noteResponse(updated))
}

func (a *API) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := noteIDVar(r)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	note, err := a.store.Notes.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "Note not found")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to get note")
		return
	}

	if note.OwnerID != currentUserID(r) {
		errorResponse(w, http.StatusForbidden, "Only the owner can delete a note")
		return
	}

	if err := a.store.Notes.SoftDelete(id); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to delete note")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Note deleted"})
}

func (a *API) RestoreNoteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := noteIDVar(r)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	note, err := a.store.Notes.GetDeleted(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "No deleted note with this ID")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to get note")
		return
	}

	if note.OwnerID != currentUserID(r) {
		errorResponse(w, http.StatusForbidden, "Only the owner can restore a note")
		return
	}

	if err := a.store.Notes.Restore(id); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to restore note")
		return
	}

	restored, err := a.store.Notes.Get(id)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to get note")
		return
	}
	jsonResponse(w, http.StatusOK, noteResponse(restored))
}
