package gateway

import (
	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Subscriptions binds sessions to fan-out topics. runtime.Orchestrator implements it.
type Subscriptions interface {
	RegisterSession(sessionID string, topic event.Topic, sink contract.EventSink)
	UnregisterTopic(sessionID string, topic event.Topic)
	UnregisterSession(sessionID string)
}

// Presence records whether a user has at least one live session.
type Presence interface {
	SetOnline(id domain.UserID, online bool) error
}

const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	frameSend        = "send"
	frameTyping      = "typing"
	frameRead        = "read"
	frameDelivered   = "delivered"
)

const maxFrameSize = 64 << 10

type inboundFrame struct {
	Type              string                `json:"type"`
	ConversationID    domain.ConversationID `json:"conversationId,omitempty"`
	RecipientUsername string                `json:"recipientUsername,omitempty"`
	Content           string                `json:"content,omitempty"`
	MessageType       string                `json:"messageType,omitempty"`
	ReplyTo           *domain.MessageID     `json:"replyToMessageId,omitempty"`
	MessageID         domain.MessageID      `json:"messageId,omitempty"`
	IsTyping          bool                  `json:"isTyping,omitempty"`
}

type ackFrame struct {
	Type           string                `json:"type"`
	ConversationID domain.ConversationID `json:"conversationId,omitempty"`
	MessageID      domain.MessageID      `json:"messageId,omitempty"`
	Updated        *bool                 `json:"updated,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type SocketConfig struct {
	BufferSize      int
	InflightTimeout time.Duration
}

// SocketHandler serves the real-time endpoint. Every frame carries its own conversation id:
// a session has no notion of a current conversation.
type SocketHandler struct {
	messaging     services.IMessagingService
	subscriptions Subscriptions
	presence      Presence
	config        SocketConfig
	upgrader      websocket.Upgrader
	log           *slog.Logger

	mu       sync.Mutex
	sessions map[domain.UserID]int
}

func NewSocketHandler(messaging services.IMessagingService, subscriptions Subscriptions, presence Presence,
	config SocketConfig, log *slog.Logger) *SocketHandler {
	return &SocketHandler{
		messaging:     messaging,
		subscriptions: subscriptions,
		presence:      presence,
		config:        config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:      log,
		sessions: make(map[domain.UserID]int),
	}
}

// Handle upgrades an authenticated request and processes frames until the client leaves.
func (h *SocketHandler) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.CallerID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token is missing"})
			return
		}
		ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already answered the client
			h.log.Debug("Websocket upgrade failed", "error", err)
			return
		}

		user := domain.UserRef{ID: userID, Username: c.GetString(auth.UsernameKey)}
		conn := NewConnection(user, ws, h.config.BufferSize, h.log)
		conn.Start()
		h.subscriptions.RegisterSession(conn.ID, event.UserErrorTopic(userID), conn)
		h.connected(userID)
		h.log.Info("Session opened", "session", conn.ID, "user", userID)

		defer func() {
			h.subscriptions.UnregisterSession(conn.ID)
			h.disconnected(userID)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			h.log.Info("Session closed", "session", conn.ID, "user", userID)
		}()

		h.reply(conn, ackFrame{Type: "connected"})
		h.readLoop(c.Request.Context(), conn, ws)
	}
}

func (h *SocketHandler) readLoop(ctx context.Context, conn *Connection, ws *websocket.Conn) {
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.Debug("Read failed", "session", conn.ID, "error", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.replyError(conn, "bad_request", "invalid payload")
			continue
		}
		h.dispatch(ctx, conn, frame)
	}
}

func (h *SocketHandler) dispatch(parent context.Context, conn *Connection, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(parent, h.config.InflightTimeout)
	defer cancel()

	switch frame.Type {
	case frameSubscribe:
		h.handleSubscribe(ctx, conn, frame)
	case frameUnsubscribe:
		h.subscriptions.UnregisterTopic(conn.ID, event.ConversationTopic(frame.ConversationID))
		h.subscriptions.UnregisterTopic(conn.ID, event.TypingTopic(frame.ConversationID))
		h.reply(conn, ackFrame{Type: "unsubscribed", ConversationID: frame.ConversationID})
	case frameSend:
		h.handleSend(ctx, conn, frame)
	case frameTyping:
		h.handleTyping(ctx, conn, frame)
	case frameRead:
		updated, err := h.messaging.MarkRead(ctx, conn.UserID, frame.ConversationID, frame.MessageID)
		if err != nil {
			h.messaging.ReportError(ctx, conn.UserID, frame.ConversationID, event.ActionRead, err)
			return
		}
		h.reply(conn, ackFrame{Type: "read", ConversationID: frame.ConversationID, MessageID: frame.MessageID, Updated: &updated})
	case frameDelivered:
		view, err := h.messaging.MarkDelivered(ctx, conn.UserID, frame.MessageID)
		if err != nil {
			h.messaging.ReportError(ctx, conn.UserID, frame.ConversationID, event.ActionDelivered, err)
			return
		}
		h.reply(conn, ackFrame{Type: "delivered", ConversationID: view.ConversationID, MessageID: view.ID})
	default:
		h.replyError(conn, "unsupported_type", "unknown frame type")
	}
}

func (h *SocketHandler) handleSubscribe(ctx context.Context, conn *Connection, frame inboundFrame) {
	if frame.ConversationID <= 0 {
		h.replyError(conn, "bad_request", "conversationId is required")
		return
	}
	if err := h.messaging.CheckAccess(ctx, conn.UserID, frame.ConversationID); err != nil {
		h.replyError(conn, code(err), err.Error())
		return
	}
	h.follow(conn, frame.ConversationID)
	h.reply(conn, ackFrame{Type: "subscribed", ConversationID: frame.ConversationID})
}

// handleSend appends to a known conversation, or to the private conversation with a recipient.
// Failures are delivered as an ERROR event on the sender's private topic.
func (h *SocketHandler) handleSend(ctx context.Context, conn *Connection, frame inboundFrame) {
	var (
		view domain.MessageView
		err  error
	)
	switch {
	case frame.ConversationID > 0:
		messageType := domain.Text
		if frame.MessageType != "" {
			if messageType, err = domain.ParseMessageType(frame.MessageType); err != nil {
				h.messaging.ReportError(ctx, conn.UserID, frame.ConversationID, event.ActionSend, err)
				return
			}
		}
		view, err = h.messaging.SendToConversation(ctx, domain.SendCommand{
			SenderID:       conn.UserID,
			ConversationID: frame.ConversationID,
			Content:        frame.Content,
			Type:           messageType,
			ReplyTo:        frame.ReplyTo,
		})
	case frame.RecipientUsername != "":
		view, err = h.messaging.SendDirect(ctx, domain.SendDirectCommand{
			SenderID:          conn.UserID,
			RecipientUsername: frame.RecipientUsername,
			Content:           frame.Content,
		})
	default:
		h.replyError(conn, "bad_request", "conversationId or recipientUsername is required")
		return
	}
	if err != nil {
		h.messaging.ReportError(ctx, conn.UserID, frame.ConversationID, event.ActionSend, err)
		return
	}

	// The sender follows the conversation it just wrote to, first contact included
	h.follow(conn, view.ConversationID)
	h.reply(conn, ackFrame{Type: "sent", ConversationID: view.ConversationID, MessageID: view.ID})
}

func (h *SocketHandler) handleTyping(ctx context.Context, conn *Connection, frame inboundFrame) {
	target := domain.TypingTarget{RecipientUsername: frame.RecipientUsername}
	if frame.ConversationID > 0 {
		target.ConversationID = &frame.ConversationID
	}
	if err := h.messaging.SendTyping(ctx, conn.UserID, target, frame.IsTyping); err != nil {
		h.messaging.ReportError(ctx, conn.UserID, frame.ConversationID, event.ActionTyping, err)
	}
}

func (h *SocketHandler) follow(conn *Connection, conversationID domain.ConversationID) {
	h.subscriptions.RegisterSession(conn.ID, event.ConversationTopic(conversationID), conn)
	h.subscriptions.RegisterSession(conn.ID, event.TypingTopic(conversationID), conn)
}

func (h *SocketHandler) connected(userID domain.UserID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[userID]++
	if h.sessions[userID] == 1 {
		h.setOnline(userID, true)
	}
}

func (h *SocketHandler) disconnected(userID domain.UserID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[userID]--
	if h.sessions[userID] <= 0 {
		delete(h.sessions, userID)
		h.setOnline(userID, false)
	}
}

func (h *SocketHandler) setOnline(userID domain.UserID, online bool) {
	if err := h.presence.SetOnline(userID, online); err != nil {
		h.log.Warn("Presence update failed", "user", userID, "online", online, "error", err)
	}
}

func (h *SocketHandler) reply(conn *Connection, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = conn.Send(payload)
}

func (h *SocketHandler) replyError(conn *Connection, code, message string) {
	h.reply(conn, errorFrame{Type: "error", Code: code, Error: message})
}

// code names the error kind for websocket error frames.
func code(err error) string {
	switch errors.Kind(err) {
	case errors.ErrValidation:
		return "bad_request"
	case errors.ErrNotFound:
		return "not_found"
	case errors.ErrPermission, errors.ErrSecurity:
		return "forbidden"
	case errors.ErrConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}
