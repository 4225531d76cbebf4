package socket

import (
	"encoding/json"

	"cardsync/pkg/logger"
)

const (
	JoinType         = "JOIN"          // User opened a card
	FieldChangedType = "FIELD_CHANGED" // Live field edit
	TypingType       = "TYPING"        // User is typing in a field
	FileUploadedType = "FILE_UPLOADED" // File attached to a field
	FileRemovedType  = "FILE_REMOVED"  // File detached from a field
	OccupancyType    = "OCCUPANCY"     // Room member count changed
)

type WSMessage struct {
	Type    string          `json:"type"`
	CardID  string          `json:"card_id"`
	UserID  string          `json:"user_id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type OccupancyPayload struct {
	Count int       `json:"count"`
	Users []Session `json:"users"`
}

type inboundMessage struct {
	client *Client
	msg    WSMessage
}

// Hub relays ephemeral room events between the connections the Registry says
// share a card. It never touches durable storage: field edits stream through
// here without a database round-trip, and the authoritative save path is a
// separate HTTP call. One Hub goroutine serializes all room mutations.
type Hub struct {
	registry *Registry
	clients  map[string]*Client // connection id -> client, Run goroutine only

	Register   chan *Client
	Unregister chan *Client
	inbound    chan inboundMessage
	done       chan struct{}
}

func NewHub(registry *Registry) *Hub {
	return &Hub{
		registry:   registry,
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		inbound:    make(chan inboundMessage),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client.ConnectionID] = client

		case client := <-h.Unregister:
			// Guarded by map membership so a duplicate disconnect signal
			// cannot close the channel or broadcast twice.
			if _, ok := h.clients[client.ConnectionID]; !ok {
				continue
			}
			delete(h.clients, client.ConnectionID)
			close(client.Send)
			if cardID, ok := h.registry.Leave(client.ConnectionID); ok {
				h.broadcastOccupancy(cardID)
			}

		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)

		case <-h.done:
			for _, client := range h.clients {
				client.Conn.Close()
			}
			return
		}
	}
}

// Shutdown stops the Run loop and drops every live connection.
func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) handleMessage(client *Client, msg WSMessage) {
	switch msg.Type {
	case JoinType:
		if msg.CardID == "" {
			return
		}
		left := h.registry.Join(client.ConnectionID, msg.CardID, client.UserID, client.DisplayName)
		client.room = msg.CardID
		if left != "" {
			h.broadcastOccupancy(left)
		}
		h.broadcastOccupancy(msg.CardID)

	case FieldChangedType, TypingType, FileUploadedType, FileRemovedType:
		if client.room == "" {
			return
		}
		// Envelope fields are server-authoritative; the payload itself is
		// opaque to the relay and validated, if at all, at save time.
		msg.CardID = client.room
		msg.UserID = client.UserID
		msg.Name = client.DisplayName
		h.relay(client, msg)
	}
}

// relay fans a message out to every room member except the sender.
func (h *Hub) relay(sender *Client, msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling relay message: %v", err)
		return
	}

	for _, member := range h.registry.Members(msg.CardID) {
		if member.ConnectionID == sender.ConnectionID {
			continue
		}
		h.send(member.ConnectionID, payload)
	}
}

// broadcastOccupancy publishes the room's count and member list to everyone
// in it, the joiner or leaver included, so each client's own presence
// indicator stays consistent.
func (h *Hub) broadcastOccupancy(cardID string) {
	members := h.registry.Members(cardID)
	if len(members) == 0 {
		return
	}

	body, err := json.Marshal(OccupancyPayload{Count: len(members), Users: members})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling occupancy payload: %v", err)
		return
	}
	payload, _ := json.Marshal(WSMessage{Type: OccupancyType, CardID: cardID, Payload: body})

	for _, member := range members {
		h.send(member.ConnectionID, payload)
	}
}

// send delivers to one connection, dropping silently if it is gone or
// lagging. A dead member never fails the broadcast for the rest of the room
// and never surfaces an error to the sender.
func (h *Hub) send(connectionID string, payload []byte) {
	client, ok := h.clients[connectionID]
	if !ok {
		return
	}
	select {
	case client.Send <- payload:
	default:
		logger.Sugar.Warnf("Dropping message for lagging connection %s", connectionID)
	}
}
