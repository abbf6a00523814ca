package gateway

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Connection is one websocket session. It is the EventSink registered for every topic
// the session listens to, and serialises all writes through a single goroutine.
type Connection struct {
	ID       string
	UserID   domain.UserID
	Username string

	ws     *websocket.Conn
	send   chan []byte
	once   sync.Once
	closed chan struct{}
	log    *slog.Logger
}

func NewConnection(user domain.UserRef, ws *websocket.Conn, bufferSize int, log *slog.Logger) *Connection {
	id := uuid.NewString()
	return &Connection{
		ID:       id,
		UserID:   user.ID,
		Username: user.Username,
		ws:       ws,
		send:     make(chan []byte, bufferSize),
		closed:   make(chan struct{}),
		log:      log.With("session", id, "user", user.ID),
	}
}

// Start launches the write loop. Call it once.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Consume encodes the event and queues it for the client.
func (c *Connection) Consume(_ context.Context, e event.DomainEvent) error {
	payload, err := event.Encode(e)
	if err != nil {
		return err
	}
	return c.Send(payload)
}

// Send never blocks: a slow client loses the payload, the session stays open.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.closed:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.log.Debug("Send buffer full, dropping payload", "size", len(payload))
		return errors.ErrSinkFull
	}
}

// Close terminates the session. Safe to call several times and from any goroutine.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.closed)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} { return c.closed }

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.log.Debug("Write failed, closing session", "error", err)
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
