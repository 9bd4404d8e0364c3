package relay

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/VictoriaMetrics/metrics"
)

var (
	joinsTotal   = metrics.NewCounter("bronotion_relay_joins_total")
	leavesTotal  = metrics.NewCounter("bronotion_relay_leaves_total")
	updatesTotal = metrics.NewCounter("bronotion_relay_updates_total")
	droppedTotal = metrics.NewCounter("bronotion_relay_dropped_events_total")
)

// Hub routes events between the connections editing the same note. It
// owns the room membership and presence maps; every event is processed
// to completion by the Run loop before the next one starts, so no
// cross-connection locking is needed for correctness. The mutex only
// covers the read-side accessors used by the stats endpoint.
type Hub struct {
	// Connections by room
	rooms map[RoomID]map[*Client]bool

	// All live connections, joined or not
	clients map[*Client]bool

	presence *Registry

	// Register requests from new connections
	register chan *Client

	// Unregister requests on transport disconnect
	unregister chan *Client

	// Decoded join/leave/update events from connections
	inbound chan inboundEvent

	mu sync.RWMutex
}

type inboundEvent struct {
	client *Client
	env    Envelope
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[RoomID]map[*Client]bool),
		clients:    make(map[*Client]bool),
		presence:   NewRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundEvent),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.leaveRoom(client)
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case ev := <-h.inbound:
			h.mu.Lock()
			if _, ok := h.clients[ev.client]; ok {
				h.handleEvent(ev.client, ev.env)
			}
			h.mu.Unlock()
		}
	}
}

// handleEvent dispatches one decoded frame. Malformed or out-of-sequence
// events are dropped without erroring the connection.
func (h *Hub) handleEvent(c *Client, env Envelope) {
	switch env.Event {
	case EventJoinNote:
		p, ok := decodeJoin(env.Data)
		if !ok {
			droppedTotal.Inc()
			return
		}
		h.handleJoin(c, p)

	case EventLeaveNote:
		p, ok := decodeJoin(env.Data)
		if !ok {
			droppedTotal.Inc()
			return
		}
		room, err := ParseRoomID(string(p.NoteID))
		if err != nil || c.room != room {
			droppedTotal.Inc()
			return
		}
		h.leaveRoom(c)

	case EventUpdateNote:
		var p UpdatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			droppedTotal.Inc()
			return
		}
		h.handleUpdate(c, p)

	default:
		droppedTotal.Inc()
	}
}

// decodeJoin accepts both payload shapes for join-note and leave-note:
// the object form with noteId and userId, and the bare note id sent by
// clients that carry no identity.
func decodeJoin(data json.RawMessage) (JoinPayload, bool) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err == nil {
		return p, true
	}
	var id ID
	if err := json.Unmarshal(data, &id); err != nil {
		return JoinPayload{}, false
	}
	return JoinPayload{NoteID: id}, true
}

func (h *Hub) handleJoin(c *Client, p JoinPayload) {
	room, err := ParseRoomID(string(p.NoteID))
	if err != nil {
		droppedTotal.Inc()
		return
	}
	var user UserID
	if p.UserID != "" {
		user, err = ParseUserID(string(p.UserID))
		if err != nil {
			droppedTotal.Inc()
			return
		}
	}

	if c.room == room && c.user == user {
		return
	}

	// Join replaces: a connection is in at most one room.
	if c.room != "" {
		h.leaveRoom(c)
	}

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	c.room = room
	c.user = user
	joinsTotal.Inc()

	if user != "" && h.presence.Join(room, user) {
		h.broadcastPresence(room, EventUserConnected)
	}
	log.Printf("Connection %s joined note %s as %q (editors: %d)",
		c.id, room, user, len(h.rooms[room]))
}

// leaveRoom removes the connection from its current room, releases the
// room if it became empty, and re-evaluates presence from the remaining
// connections. Safe to call on connections that never joined.
func (h *Hub) leaveRoom(c *Client) {
	room := c.room
	if room == "" {
		return
	}
	if clients, ok := h.rooms[room]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	user := c.user
	c.room = ""
	c.user = ""
	leavesTotal.Inc()

	if user != "" && h.presence.Leave(room, user) {
		h.broadcastPresence(room, EventUserDisconnected)
	}
}

func (h *Hub) handleUpdate(c *Client, p UpdatePayload) {
	room, err := ParseRoomID(string(p.NoteID))
	if err != nil || c.room != room {
		// Update for a room this connection never joined
		droppedTotal.Inc()
		return
	}

	data, err := EncodeNoteUpdated(p.Content)
	if err != nil {
		droppedTotal.Inc()
		return
	}
	updatesTotal.Inc()
	h.broadcast(room, data, c)
}

// broadcast fans data out to every connection in the room except the
// sender. A connection whose send buffer is full is evicted rather than
// allowed to stall the room.
func (h *Hub) broadcast(room RoomID, data []byte, exclude *Client) {
	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	var evicted []*Client
	for client := range clients {
		if client == exclude {
			continue
		}
		select {
		case client.send <- data:
		default:
			evicted = append(evicted, client)
		}
	}
	for _, client := range evicted {
		// leaveRoom broadcasts presence, which can evict further slow
		// clients before this loop reaches them; tear each one down
		// only once
		if _, ok := h.clients[client]; !ok {
			continue
		}
		log.Printf("Evicting slow connection %s from note %s", client.id, room)
		h.leaveRoom(client)
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) broadcastPresence(room RoomID, event string) {
	data, err := EncodePresence(event, h.presence.Users(room))
	if err != nil {
		return
	}
	// Presence lists go to every member, joiner included.
	h.broadcast(room, data, nil)
}

// GetRoomCount returns the number of rooms with at least one connection.
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetConnectionCount returns the number of live connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetActiveRooms returns connection counts keyed by room id.
func (h *Hub) GetActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	active := make(map[string]int, len(h.rooms))
	for room, clients := range h.rooms {
		active[string(room)] = len(clients)
	}
	return active
}
