package relay

import "sort"

// Registry tracks which user identities are present in each room. A user
// with several connections to the same note (two tabs) appears once; the
// entry survives until the last of those connections leaves.
//
// Not safe for concurrent use. The hub's event loop is the only caller,
// which is what keeps room membership and presence from drifting apart.
type Registry struct {
	rooms map[RoomID]map[UserID]int
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[RoomID]map[UserID]int),
	}
}

// Join records one more connection for user in room. Reports whether the
// room's presence set grew.
func (r *Registry) Join(room RoomID, user UserID) bool {
	users, ok := r.rooms[room]
	if !ok {
		users = make(map[UserID]int)
		r.rooms[room] = users
	}
	users[user]++
	return users[user] == 1
}

// Leave records one connection gone for user in room. Reports whether the
// presence set shrank, i.e. this was the user's last connection there.
// Unknown rooms and users are no-ops.
func (r *Registry) Leave(room RoomID, user UserID) bool {
	users, ok := r.rooms[room]
	if !ok {
		return false
	}
	n, ok := users[user]
	if !ok {
		return false
	}
	if n > 1 {
		users[user] = n - 1
		return false
	}
	delete(users, user)
	if len(users) == 0 {
		delete(r.rooms, room)
	}
	return true
}

// Users returns the room's presence set sorted by user id, so every
// client sees the list in the same order.
func (r *Registry) Users(room RoomID) []string {
	users := r.rooms[room]
	out := make([]string, 0, len(users))
	for user := range users {
		out = append(out, string(user))
	}
	sort.Strings(out)
	return out
}
