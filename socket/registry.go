package socket

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Session is one live connection viewing one card. Sessions are in-memory
// only and vanish on process restart; presence is best-effort, not durable.
type Session struct {
	ConnectionID string `json:"-"`
	CardID       string `json:"-"`
	UserID       string `json:"user_id"`
	DisplayName  string `json:"name"`
}

// Registry is the bookkeeping for which connections are in which card room.
// It is an explicitly constructed object injected into the Hub, and it is
// the only writer of room state; the Hub just reads snapshots from it.
// All state is local to this process — running multiple relay instances
// would need a shared pub/sub layer between them.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session            // connection id -> session
	rooms    map[string]map[string]*Session // card id -> connection id -> session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
	}
}

// NewConnectionID mints the identifier for one connection's lifetime.
func NewConnectionID() string {
	return ulid.Make().String()
}

// Join registers the connection under the card's room. Idempotent per
// connection: a re-join replaces the prior registration, and the card id of
// the room that was left (empty if none, or if re-joining the same room) is
// returned so the caller can refresh its occupancy too.
func (r *Registry) Join(connectionID, cardID, userID, displayName string) (left string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[connectionID]; ok {
		if prev.CardID == cardID {
			return ""
		}
		left = prev.CardID
		r.removeLocked(prev)
	}

	session := &Session{ConnectionID: connectionID, CardID: cardID, UserID: userID, DisplayName: displayName}
	r.sessions[connectionID] = session
	if r.rooms[cardID] == nil {
		r.rooms[cardID] = make(map[string]*Session)
	}
	r.rooms[cardID][connectionID] = session
	return left
}

// Leave removes the connection's session and reports which room it was in.
// Unknown connections are a no-op, which makes duplicate disconnect signals
// harmless.
func (r *Registry) Leave(connectionID string) (cardID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, found := r.sessions[connectionID]
	if !found {
		return "", false
	}
	r.removeLocked(session)
	return session.CardID, true
}

func (r *Registry) removeLocked(session *Session) {
	delete(r.sessions, session.ConnectionID)
	if room := r.rooms[session.CardID]; room != nil {
		delete(room, session.ConnectionID)
		if len(room) == 0 {
			delete(r.rooms, session.CardID)
		}
	}
}

// Occupancy is the current member count; 0 for an unknown or empty room.
func (r *Registry) Occupancy(cardID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[cardID])
}

// Members returns a snapshot of the room's sessions.
func (r *Registry) Members(cardID string) []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]Session, 0, len(r.rooms[cardID]))
	for _, session := range r.rooms[cardID] {
		members = append(members, *session)
	}
	return members
}
