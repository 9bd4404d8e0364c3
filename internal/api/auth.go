package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/bronotion/backend/internal/auth"
	"github.com/bronotion/backend/internal/store"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OAuthRequest struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatarUrl"`
}

type AuthResponse struct {
	User  *store.User `json:"user"`
	Token string      `json:"token"`
}

func (a *API) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || len(req.Password) < 8 {
		errorResponse(w, http.StatusBadRequest, "Username, email and a password of at least 8 characters are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := a.store.Users.Create(user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errorResponse(w, http.StatusConflict, "Username or email already taken")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	a.respondWithToken(w, http.StatusCreated, user)
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := a.store.Users.FindByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// OAuth-only accounts have no password to check
	if user.PasswordHash == "" || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		errorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	a.respondWithToken(w, http.StatusOK, user)
}

// OAuthHandler signs in (or up) a user whose identity was already
// established with an external provider upstream. Accounts are matched
// by provider identity first, then linked by email.
func (a *API) OAuthHandler(w http.ResponseWriter, r *http.Request) {
	var req OAuthRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Provider == "" || req.ProviderID == "" || req.Email == "" {
		errorResponse(w, http.StatusBadRequest, "Provider, providerId and email are required")
		return
	}

	user, err := a.store.Users.FindByProvider(req.Provider, req.ProviderID)
	if err == nil {
		a.respondWithToken(w, http.StatusOK, user)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		errorResponse(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	if user, err = a.store.Users.FindByEmail(req.Email); err == nil {
		if err := a.store.Users.LinkProvider(user.ID, req.Provider, req.ProviderID); err != nil {
			errorResponse(w, http.StatusInternalServerError, "Failed to link account")
			return
		}
		a.respondWithToken(w, http.StatusOK, user)
		return
	}

	username := req.Username
	if username == "" {
		username = strings.SplitN(req.Email, "@", 2)[0]
	}
	user = &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        req.Email,
		AuthProvider: &req.Provider,
		ProviderID:   &req.ProviderID,
		AvatarURL:    req.AvatarURL,
	}
	if err := a.store.Users.Create(user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			errorResponse(w, http.StatusConflict, "Username already taken")
			return
		}
		errorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	a.respondWithToken(w, http.StatusCreated, user)
}

func (a *API) respondWithToken(w http.ResponseWriter, status int, user *store.User) {
	token, err := a.tokens.Generate(user.ID, user.Email)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	jsonResponse(w, status, AuthResponse{User: user, Token: token})
}
