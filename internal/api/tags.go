package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/bronotion/backend/internal/store"
)

type CreateTagRequest struct {
	Name string `json:"name"`
}

func (a *API) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := a.store.Tags.ListForUser(currentUserID(r))
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to list tags")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

func (a *API) CreateTagHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errorResponse(w, http.StatusBadRequest, "Tag name is required")
		return
	}

	tag := &store.Tag{OwnerID: currentUserID(r), Name: req.Name}
	if err := a.store.Tags.Create(tag); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errorResponse(w, http.StatusConflict, "Tag already exists")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to create tag")
		return
	}
	jsonResponse(w, http.StatusCreated, tag)
}

func (a *API) DeleteTagHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["tagId"], 10, 32)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid tag ID")
		return
	}

	if err := a.store.Tags.Delete(uint(id), currentUserID(r)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			errorResponse(w, http.StatusNotFound, "Tag not found")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to delete tag")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Tag deleted"})
}
