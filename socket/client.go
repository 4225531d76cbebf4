package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"cardsync/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The frontend dev server runs on a different origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one WebSocket connection. The room field is owned by the Hub's
// Run goroutine and must not be touched from the pumps.
type Client struct {
	Hub          *Hub
	Conn         *websocket.Conn
	ConnectionID string
	UserID       string
	DisplayName  string
	Send         chan []byte

	room string
}

// ServeWs upgrades the request and attaches the connection to the hub. The
// caller identity comes from the JWT; nothing the client sends later can
// change it.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID, displayName string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		Hub:          hub,
		Conn:         conn,
		ConnectionID: NewConnectionID(),
		UserID:       userID,
		DisplayName:  displayName,
		Send:         make(chan []byte, 256),
	}

	select {
	case client.Hub.Register <- client:
	case <-client.Hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	// The deferred unregister is this connection's single leave signal: it
	// fires exactly once whether the user closed the tab, the network died,
	// or the hub closed the connection.
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("Read error on connection %s: %v", c.ConnectionID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		switch msg.Type {
		case JoinType, FieldChangedType, TypingType, FileUploadedType, FileRemovedType:
			c.Hub.inbound <- inboundMessage{client: c, msg: msg}
		default:
			// Unknown types are dropped, not errors.
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				// Hub closed the channel on unregister.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}
