package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	// A few seconds of game_state frames at the tick rate.
	sendBufferSize = 256
)

// Client is one player connection. Identity fields are filled in by the
// auth handler.
type Client struct {
	ID            string
	AccountID     string
	Nickname      string
	Authenticated bool
	Hub           *Hub
	Conn          *websocket.Conn
	Send          chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Client with a random ID.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
	}
}

// ReadPump forwards frames from the connection to the hub until the
// connection fails or the hub stops.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.Done():
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "client", c.ID, "error", err)
			}
			return
		}
		select {
		case c.Hub.Incoming <- &ClientMessage{Client: c, Data: data}:
		case <-c.Hub.Done():
			slog.Debug("hub stopped, dropping frame", "client", c.ID)
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
// It returns once the send queue is closed by the hub.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Debug("websocket write failed", "client", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues a Message for this client. It never blocks the game
// loop: the message is dropped when the queue is full or already closed.
func (c *Client) SendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal message", "type", msg.Type, "error", err)
		return
	}
	if !c.enqueue(data) {
		slog.Warn("dropping message", "client", c.ID, "type", msg.Type)
	}
}

// SendError queues an error message.
func (c *Client) SendError(text string) {
	c.SendMessage(NewErrorMessage(text))
}

// Close sends a close frame with reason and drops the connection. The read
// pump then unregisters the client.
func (c *Client) Close(code int, reason string) {
	if c.Conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		slog.Debug("close frame not sent", "client", c.ID, "error", err)
	}
	c.Conn.Close()
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send queue once. Later sends are dropped.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ClientMessage wraps a raw message with its source client.
type ClientMessage struct {
	Client *Client
	Data   []byte
}
