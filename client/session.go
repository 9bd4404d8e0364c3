package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bronotion/backend/internal/relay"
)

const (
	sessionWriteWait = 10 * time.Second
	initialBackoff   = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
)

// errNotConnected is returned when an event is written before Connect.
var errNotConnected = errors.New("session not connected")

// Session is one live relay connection for one open note. It holds the
// local editable buffer: local edits go out as update-note events,
// inbound note-updated events overwrite the buffer unconditionally
// (last write wins, no merge). If the connection drops, the session
// reconnects with backoff; the only state restored is the join.
type Session struct {
	wsURL  string
	noteID string
	userID string

	mu     sync.Mutex
	conn   *websocket.Conn
	buffer string

	onUpdate   func(content string)
	onPresence func(event string, users []string)

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

func NewSession(wsURL, noteID, userID string) *Session {
	return &Session{
		wsURL:  wsURL,
		noteID: noteID,
		userID: userID,
		closed: make(chan struct{}),
	}
}

// OnUpdate registers the callback for inbound content. Must be set
// before Connect.
func (s *Session) OnUpdate(f func(content string)) {
	s.onUpdate = f
}

// OnPresence registers the callback for presence changes. The event is
// user-connected or user-disconnected; users is the room's full sorted
// presence list. Must be set before Connect.
func (s *Session) OnPresence(f func(event string, users []string)) {
	s.onPresence = f
}

// Connect dials the relay, joins the note's room and starts the read
// loop. The context governs the session's lifetime: cancelling it stops
// reconnect attempts.
func (s *Session) Connect(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx, conn)
	return nil
}

// SetContent records a local edit and broadcasts it to peers. The
// buffer is updated even if the send fails; edits simply stop
// propagating until the session reconnects.
func (s *Session) SetContent(content string) error {
	s.mu.Lock()
	s.buffer = content
	s.mu.Unlock()

	return s.writeEvent(relay.EventUpdateNote, relay.UpdatePayload{
		NoteID:  relay.ID(s.noteID),
		Content: content,
	})
}

// Content returns the current local buffer.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// Seed sets the buffer without broadcasting, for the initial content
// fetched from the store.
func (s *Session) Seed(content string) {
	s.mu.Lock()
	s.buffer = content
	s.mu.Unlock()
}

// Close leaves the room and shuts the session down.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		// Best effort; the disconnect is an implicit leave anyway
		_ = s.writeEvent(relay.EventLeaveNote, relay.JoinPayload{
			NoteID: relay.ID(s.noteID),
			UserID: relay.ID(s.userID),
		})
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
	return nil
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return nil, err
	}

	env, err := relay.NewEnvelope(relay.EventJoinNote, relay.JoinPayload{
		NoteID: relay.ID(s.noteID),
		UserID: relay.ID(s.userID),
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	if err := conn.WriteJSON(env); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (s *Session) run(ctx context.Context, conn *websocket.Conn) {
	defer s.wg.Done()

	backoff := initialBackoff
	for {
		s.readLoop(conn)
		conn.Close()

		if s.isClosed() || ctx.Err() != nil {
			return
		}

		// Reconnect with capped backoff, re-issuing the join
		for {
			select {
			case <-s.closed:
				return
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}

			next, err := s.dial(ctx)
			if err == nil {
				s.mu.Lock()
				s.conn = next
				s.mu.Unlock()
				conn = next
				backoff = initialBackoff
				break
			}

			log.Printf("Relay reconnect failed: %v (retrying in %v)", err, backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func (s *Session) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env relay.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			continue
		}

		switch env.Event {
		case relay.EventNoteUpdated:
			var content string
			if err := json.Unmarshal(env.Data, &content); err != nil {
				continue
			}
			s.mu.Lock()
			s.buffer = content
			cb := s.onUpdate
			s.mu.Unlock()
			if cb != nil {
				cb(content)
			}

		case relay.EventUserConnected, relay.EventUserDisconnected:
			var users []string
			if err := json.Unmarshal(env.Data, &users); err != nil {
				continue
			}
			if s.onPresence != nil {
				s.onPresence(env.Event, users)
			}
		}
	}
}

func (s *Session) writeEvent(event string, payload interface{}) error {
	env, err := relay.NewEnvelope(event, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return errNotConnected
	}
	s.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	return s.conn.WriteJSON(env)
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
