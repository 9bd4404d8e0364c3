package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bronotion/backend/internal/relay"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// fakeRelay accepts one connection at a time, records inbound
// envelopes and lets the test push frames to the client.
type fakeRelay struct {
	server   *httptest.Server
	conns    chan *websocket.Conn
	inbound  chan relay.Envelope
	outbound chan relay.Envelope
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()

	f := &fakeRelay{
		conns:    make(chan *websocket.Conn, 4),
		inbound:  make(chan relay.Envelope, 16),
		outbound: make(chan relay.Envelope, 16),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var env relay.Envelope
				if err := conn.ReadJSON(&env); err != nil {
					return
				}
				f.inbound <- env
			}
		}()
		for {
			select {
			case env := <-f.outbound:
				if err := conn.WriteJSON(env); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRelay) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeRelay) expect(t *testing.T, event string) relay.Envelope {
	t.Helper()
	select {
	case env := <-f.inbound:
		if env.Event != event {
			t.Fatalf("Expected %s, got %s", event, env.Event)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for %s", event)
		return relay.Envelope{}
	}
}

func (f *fakeRelay) push(t *testing.T, event string, payload interface{}) {
	t.Helper()
	env, err := relay.NewEnvelope(event, payload)
	if err != nil {
		t.Fatalf("Failed to build envelope: %v", err)
	}
	f.outbound <- env
}

func TestSessionJoinsOnConnect(t *testing.T) {
	f := newFakeRelay(t)

	s := NewSession(f.wsURL(), "7", "alice")
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Close()

	env := f.expect(t, relay.EventJoinNote)
	var p relay.JoinPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("Failed to decode join payload: %v", err)
	}
	if p.NoteID != "7" || p.UserID != "alice" {
		t.Errorf("Unexpected join payload: %+v", p)
	}
}

func TestSessionLocalEditBroadcasts(t *testing.T) {
	f := newFakeRelay(t)

	s := NewSession(f.wsURL(), "7", "alice")
	s.Seed("initial")
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Close()
	f.expect(t, relay.EventJoinNote)

	if err := s.SetContent("initial and more"); err != nil {
		t.Fatalf("SetContent failed: %v", err)
	}

	env := f.expect(t, relay.EventUpdateNote)
	var p relay.UpdatePayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("Failed to decode update payload: %v", err)
	}
	if p.NoteID != "7" || p.Content != "initial and more" {
		t.Errorf("Unexpected update payload: %+v", p)
	}
	if s.Content() != "initial and more" {
		t.Errorf("Buffer not updated locally: %q", s.Content())
	}
}

func TestSessionInboundOverwritesBuffer(t *testing.T) {
	f := newFakeRelay(t)

	updates := make(chan string, 1)
	s := NewSession(f.wsURL(), "7", "alice")
	s.Seed("mine, unsaved")
	s.OnUpdate(func(content string) { updates <- content })
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Close()
	f.expect(t, relay.EventJoinNote)

	// Last write wins: the peer's content replaces the local buffer
	// even with unsaved local edits
	f.push(t, relay.EventNoteUpdated, "theirs")

	select {
	case got := <-updates:
		if got != "theirs" {
			t.Errorf("Expected %q, got %q", "theirs", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for update callback")
	}
	if s.Content() != "theirs" {
		t.Errorf("Buffer should be overwritten, got %q", s.Content())
	}
}

func TestSessionPresenceCallback(t *testing.T) {
	f := newFakeRelay(t)

	type presence struct {
		event string
		users []string
	}
	events := make(chan presence, 1)

	s := NewSession(f.wsURL(), "7", "alice")
	s.OnPresence(func(event string, users []string) {
		events <- presence{event, users}
	})
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Close()
	f.expect(t, relay.EventJoinNote)

	f.push(t, relay.EventUserConnected, []string{"alice", "bob"})

	select {
	case got := <-events:
		if got.event != relay.EventUserConnected || len(got.users) != 2 {
			t.Errorf("Unexpected presence event: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for presence callback")
	}
}

func TestSessionReconnectsAndRejoins(t *testing.T) {
	f := newFakeRelay(t)

	s := NewSession(f.wsURL(), "7", "alice")
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer s.Close()
	f.expect(t, relay.EventJoinNote)

	// Drop the transport server-side; the session must dial back and
	// re-issue the join on its own
	serverConn := <-f.conns
	serverConn.Close()

	env := f.expect(t, relay.EventJoinNote)
	var p relay.JoinPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("Failed to decode rejoin payload: %v", err)
	}
	if p.NoteID != "7" || p.UserID != "alice" {
		t.Errorf("Unexpected rejoin payload: %+v", p)
	}

	// Edits flow again over the new connection
	if err := s.SetContent("back online"); err != nil {
		t.Fatalf("SetContent after reconnect failed: %v", err)
	}
	f.expect(t, relay.EventUpdateNote)
}

func TestSessionWriteBeforeConnect(t *testing.T) {
	s := NewSession("ws://unreachable.invalid/ws", "7", "alice")
	if err := s.SetContent("early"); err != errNotConnected {
		t.Errorf("Expected errNotConnected, got %v", err)
	}
	if s.Content() != "early" {
		t.Errorf("Buffer should keep the edit, got %q", s.Content())
	}
}

func TestSessionCloseSendsLeave(t *testing.T) {
	f := newFakeRelay(t)

	s := NewSession(f.wsURL(), "7", "alice")
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	f.expect(t, relay.EventJoinNote)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	env := f.expect(t, relay.EventLeaveNote)
	var p relay.JoinPayload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("Failed to decode leave payload: %v", err)
	}
	if p.NoteID != "7" || p.UserID != "alice" {
		t.Errorf("Unexpected leave payload: %+v", p)
	}
}
