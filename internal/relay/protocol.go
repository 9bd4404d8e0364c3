package relay

import (
	"encoding/json"
	"errors"
	"strings"
)

// Wire event names. These are shared with browser clients, so they must
// not change.
const (
	// Client -> relay
	EventJoinNote   = "join-note"
	EventLeaveNote  = "leave-note"
	EventUpdateNote = "update-note"

	// Relay -> clients
	EventNoteUpdated      = "note-updated"
	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
)

// Identifiers arrive as arbitrary strings; anything longer than this is
// rejected before it can become a map key.
const maxIDLen = 128

var (
	ErrEmptyID   = errors.New("empty identifier")
	ErrIDTooLong = errors.New("identifier too long")
)

// RoomID identifies one note's editing session.
type RoomID string

// UserID identifies a user within a room's presence set.
type UserID string

// ParseRoomID validates a raw room identifier from the wire.
func ParseRoomID(raw string) (RoomID, error) {
	id, err := parseID(raw)
	return RoomID(id), err
}

// ParseUserID validates a raw user identifier from the wire.
func ParseUserID(raw string) (UserID, error) {
	id, err := parseID(raw)
	return UserID(id), err
}

func parseID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyID
	}
	if len(id) > maxIDLen {
		return "", ErrIDTooLong
	}
	return id, nil
}

// Envelope is the frame shape for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ID is a wire identifier. Note ids are numeric for stored notes but
// clients may send them as JSON numbers or strings; both decode to the
// same room key.
type ID string

func (i *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*i = ID(n.String())
	return nil
}

// JoinPayload is the data of join-note and leave-note. UserID is empty
// for clients speaking the basic protocol, which carries no identity.
type JoinPayload struct {
	NoteID ID `json:"noteId"`
	UserID ID `json:"userId"`
}

// UpdatePayload is the data of update-note. Content is the full note
// text, not a diff.
type UpdatePayload struct {
	NoteID  ID     `json:"noteId"`
	Content string `json:"content"`
}

// NewEnvelope marshals a payload into an Envelope for the given event.
func NewEnvelope(event string, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// EncodeNoteUpdated builds the note-updated frame. The data is the bare
// content string: receivers are already scoped to the right room.
func EncodeNoteUpdated(content string) ([]byte, error) {
	env, err := NewEnvelope(EventNoteUpdated, content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// EncodePresence builds a user-connected or user-disconnected frame
// carrying the room's full presence list.
func EncodePresence(event string, users []string) ([]byte, error) {
	env, err := NewEnvelope(event, users)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
