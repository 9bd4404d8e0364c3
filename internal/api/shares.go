package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bronotion/backend/internal/store"
)

type CreateShareRequest struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	CanEdit bool   `json:"canEdit"`
}

// ownedNote loads a note and enforces that the requester owns it. Share
// administration is owner-only.
func (a *API) ownedNote(w http.ResponseWriter, r *http.Request) *store.Note {
	id, err := noteIDVar(r)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid note ID")
		return nil
	}

	note, err := a.store.Notes.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "Note not found")
			return nil
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to get note")
		return nil
	}

	if note.OwnerID != currentUserID(r) {
		errorResponse(w, http.StatusForbidden, "Only the owner can manage shares")
		return nil
	}
	return note
}

func (a *API) ListSharesHandler(w http.ResponseWriter, r *http.Request) {
	note := a.ownedNote(w, r)
	if note == nil {
		return
	}

	shares, err := a.store.Shares.ListForNote(note.NoteID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to list shares")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"shares": shares})
}

func (a *API) CreateShareHandler(w http.ResponseWriter, r *http.Request) {
	note := a.ownedNote(w, r)
	if note == nil {
		return
	}

	var req CreateShareRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := req.UserID
	if userID == "" && req.Email != "" {
		user, err := a.store.Users.FindByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
		if err != nil {
			errorResponse(w, http.StatusNotFound, "No user with this email")
			return
		}
		userID = user.ID
	}
	if userID == "" {
		errorResponse(w, http.StatusBadRequest, "userId or email is required")
		return
	}
	if userID == note.OwnerID {
		errorResponse(w, http.StatusBadRequest, "Cannot share a note with its owner")
		return
	}
	if _, err := a.store.Users.FindByID(userID); err != nil {
		errorResponse(w, http.StatusNotFound, "User not found")
		return
	}

	share := &store.NoteShare{NoteID: note.NoteID, UserID: userID, CanEdit: req.CanEdit}
	if err := a.store.Shares.Upsert(share); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to share note")
		return
	}
	jsonResponse(w, http.StatusCreated, share)
}

func (a *API) DeleteShareHandler(w http.ResponseWriter, r *http.Request) {
	note := a.ownedNote(w, r)
	if note == nil {
		return
	}

	userID := mux.Vars(r)["userId"]
	if err := a.store.Shares.Delete(note.NoteID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "Share not found")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to remove share")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Share removed"})
}
