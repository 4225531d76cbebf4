package socket

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readMessage reads one frame with a deadline so a missing broadcast fails
// the test instead of hanging it.
func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	var msg WSMessage
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	require.NoError(t, json.Unmarshal(p, &msg))
	return msg
}

func readOccupancy(t *testing.T, conn *websocket.Conn) OccupancyPayload {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, OccupancyType, msg.Type)
	var occ OccupancyPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &occ))
	return occ
}

func sendMessage(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(NewRegistry())
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The auth middleware normally supplies these; tests pass them in
		// the query string.
		ServeWs(hub, w, r, r.URL.Query().Get("user_id"), r.URL.Query().Get("name"))
	}))
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, wsURL, userID, name string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id="+userID+"&name="+name, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubOccupancyAndFieldRelay(t *testing.T) {
	_, wsURL := newTestHub(t)
	cardID := "card-1"

	// First client joins and sees itself as the only occupant.
	conn1 := dial(t, wsURL, "user1", "Alice")
	sendMessage(t, conn1, WSMessage{Type: JoinType, CardID: cardID})

	occ := readOccupancy(t, conn1)
	assert.Equal(t, 1, occ.Count)

	// Second client joins; both clients observe count 2.
	conn2 := dial(t, wsURL, "user2", "Bob")
	sendMessage(t, conn2, WSMessage{Type: JoinType, CardID: cardID})

	occ = readOccupancy(t, conn1)
	assert.Equal(t, 2, occ.Count)
	occ = readOccupancy(t, conn2)
	assert.Equal(t, 2, occ.Count)
	userIDs := []string{occ.Users[0].UserID, occ.Users[1].UserID}
	assert.Contains(t, userIDs, "user1")
	assert.Contains(t, userIDs, "user2")

	// A field edit from client 2 reaches client 1 with server-set author
	// fields, and is never echoed back to client 2.
	// Spoofed card and user ids must be overwritten with the
	// server-authoritative values.
	fieldPayload := `{"field_name":"title","value":"Morning rounds"}`
	sendMessage(t, conn2, WSMessage{
		Type:    FieldChangedType,
		CardID:  "spoofed-card",
		UserID:  "spoofed-user",
		Payload: json.RawMessage(fieldPayload),
	})

	relayed := readMessage(t, conn1)
	assert.Equal(t, FieldChangedType, relayed.Type)
	assert.Equal(t, cardID, relayed.CardID)
	assert.Equal(t, "user2", relayed.UserID)
	assert.Equal(t, "Bob", relayed.Name)
	assert.JSONEq(t, fieldPayload, string(relayed.Payload))

	conn2.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn2.ReadMessage()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout(), "sender must not receive its own field event")
}

func TestHubDisconnectBroadcastsOccupancy(t *testing.T) {
	_, wsURL := newTestHub(t)
	cardID := "card-1"

	conn1 := dial(t, wsURL, "user1", "Alice")
	sendMessage(t, conn1, WSMessage{Type: JoinType, CardID: cardID})
	readOccupancy(t, conn1)

	conn2 := dial(t, wsURL, "user2", "Bob")
	sendMessage(t, conn2, WSMessage{Type: JoinType, CardID: cardID})
	readOccupancy(t, conn1)
	readOccupancy(t, conn2)

	// Client 1 drops; the survivor sees the count fall back to 1.
	conn1.Close()

	occ := readOccupancy(t, conn2)
	assert.Equal(t, 1, occ.Count)
	require.Len(t, occ.Users, 1)
	assert.Equal(t, "user2", occ.Users[0].UserID)
}

func TestHubTypingAndFileEventsRelayed(t *testing.T) {
	_, wsURL := newTestHub(t)
	cardID := "card-1"

	conn1 := dial(t, wsURL, "user1", "Alice")
	sendMessage(t, conn1, WSMessage{Type: JoinType, CardID: cardID})
	readOccupancy(t, conn1)

	conn2 := dial(t, wsURL, "user2", "Bob")
	sendMessage(t, conn2, WSMessage{Type: JoinType, CardID: cardID})
	readOccupancy(t, conn1)
	readOccupancy(t, conn2)

	for _, eventType := range []string{TypingType, FileUploadedType, FileRemovedType} {
		sendMessage(t, conn2, WSMessage{Type: eventType, Payload: json.RawMessage(`{"field_name":"photos"}`)})
		relayed := readMessage(t, conn1)
		assert.Equal(t, eventType, relayed.Type)
		assert.Equal(t, "user2", relayed.UserID)
	}
}

func TestHubRoomsAreIsolated(t *testing.T) {
	_, wsURL := newTestHub(t)

	conn1 := dial(t, wsURL, "user1", "Alice")
	sendMessage(t, conn1, WSMessage{Type: JoinType, CardID: "card-1"})
	occ := readOccupancy(t, conn1)
	assert.Equal(t, 1, occ.Count)

	// A join in another room must not reach card-1's member.
	conn2 := dial(t, wsURL, "user2", "Bob")
	sendMessage(t, conn2, WSMessage{Type: JoinType, CardID: "card-2"})
	occ = readOccupancy(t, conn2)
	assert.Equal(t, 1, occ.Count)

	sendMessage(t, conn2, WSMessage{Type: FieldChangedType, Payload: json.RawMessage(`{"field_name":"x"}`)})

	conn1.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn1.ReadMessage()
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}
