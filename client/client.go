// Package client implements the note-editing sync agent: REST access to
// the note store plus a live relay session per open note. Note content
// is persisted only through explicit SaveNote calls; relay traffic never
// touches the store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when a note does not exist (or is deleted).
var ErrNotFound = errors.New("note not found")

// Note mirrors the note shape served by GET /api/notes/{noteId}.
type Note struct {
	NoteID    uint      `json:"note_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	TagID     *uint     `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client talks to the note store REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login authenticates with email and password and keeps the returned
// token for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", resp.Status)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	c.token = out.Token
	return out.Token, nil
}

// FetchNote loads a note's current content from the store.
func (c *Client) FetchNote(ctx context.Context, noteID uint) (*Note, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/notes/%d", noteID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("fetch note %d: %s", noteID, resp.Status)
	}

	var note Note
	if err := json.NewDecoder(resp.Body).Decode(&note); err != nil {
		return nil, fmt.Errorf("failed to decode note: %w", err)
	}
	return &note, nil
}

// SaveNote writes content to the store. This is the only write path;
// failures leave the local buffer untouched and are reported to the
// caller.
func (c *Client) SaveNote(ctx context.Context, noteID uint, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/notes/%d", noteID), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("save note %d: %s", noteID, resp.Status)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}
