package gateway

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/mocks/servicemocks"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakePresence struct {
	mu     sync.Mutex
	online map[domain.UserID]bool
}

func (p *fakePresence) SetOnline(id domain.UserID, online bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[id] = online
	return nil
}

func (p *fakePresence) isOnline(id domain.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[id]
}

type socketFixture struct {
	messaging *servicemocks.MockIMessagingService
	registry  *runtime.Registry
	presence  *fakePresence
	server    *httptest.Server
	token     string
}

func newSocketFixture(t *testing.T) *socketFixture {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	issuer := auth.NewTokenIssuer("a_secret_long_enough_for_hs256", time.Hour)
	token, err := issuer.GenerateToken(alice)
	require.NoError(t, err)

	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, time.Second), registry,
		runtime.NewLocalBus(log, 16), time.Second)

	f := &socketFixture{
		messaging: servicemocks.NewMockIMessagingService(ctrl),
		registry:  registry,
		presence:  &fakePresence{online: make(map[domain.UserID]bool)},
		token:     token,
	}
	handler := NewSocketHandler(f.messaging, orchestrator, f.presence,
		SocketConfig{BufferSize: 16, InflightTimeout: time.Second}, log)

	router := gin.New()
	router.GET("/ws", auth.Middleware(issuer), handler.Handle())
	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func (f *socketFixture) dial(t *testing.T) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + f.token
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	// The first frame acknowledges the session
	require.Equal(t, "connected", readFrame(t, ws)["type"])
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

// deliver hands an event to every sink of its topic, the way the fan-out worker does.
func (f *socketFixture) deliver(t *testing.T, evt event.DomainEvent) int {
	sinks := f.registry.GetSinksForTopic(evt.Topic())
	for _, sink := range sinks {
		require.NoError(t, sink.Consume(context.Background(), evt))
	}
	return len(sinks)
}

func TestSocket_Refuses_Anonymous_Clients(t *testing.T) {
	req := require.New(t)
	f := newSocketFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestSocket_Subscribe_Then_Receive(t *testing.T) {
	req := require.New(t)
	f := newSocketFixture(t)
	ws := f.dial(t)

	// Given a member subscribing to its conversation
	f.messaging.EXPECT().CheckAccess(gomock.Any(), domain.UserID(1), domain.ConversationID(10)).Return(nil)
	req.NoError(ws.WriteJSON(gin.H{"type": "subscribe", "conversationId": 10}))
	ack := readFrame(t, ws)
	req.Equal("subscribed", ack["type"])
	req.Equal(float64(10), ack["conversationId"])

	// When a message is fanned out on the conversation topic
	view := sampleView()
	req.Equal(1, f.deliver(t, event.NewMessageEvent(view)))

	// Then the client receives the envelope
	envelope := readFrame(t, ws)
	req.Equal("MESSAGE", envelope["kind"])
	req.Equal("conversation/10", envelope["topic"])
	payload := envelope["payload"].(map[string]any)
	req.Equal("hi", payload["content"])
	req.Equal("alice", payload["senderUsername"])

	// And typing indicators of the same conversation
	req.Equal(1, f.deliver(t, event.TypingEvent{ConversationID: 10, SenderID: 2, SenderUsername: "bob", IsTyping: true}))
	req.Equal("TYPING", readFrame(t, ws)["kind"])
}

func TestSocket_Subscribe_Is_Refused_To_Outsiders(t *testing.T) {
	req := require.New(t)
	f := newSocketFixture(t)
	ws := f.dial(t)

	f.messaging.EXPECT().CheckAccess(gomock.Any(), domain.UserID(1), domain.ConversationID(30)).Return(errors.ErrNotParticipant)
	req.NoError(ws.WriteJSON(gin.H{"type": "subscribe", "conversationId": 30}))

	frame := readFrame(t, ws)
	req.Equal("error", frame["type"])
	req.Equal("forbidden", frame["code"])
	req.Empty(f.registry.GetSinksForTopic(event.ConversationTopic(30)))
}

func TestSocket_Send_Failure_Goes_To_The_Private_Topic(t *testing.T) {
	req := require.New(t)
	f := newSocketFixture(t)
	ws := f.dial(t)

	// Given a send refused by the service
	f.messaging.EXPECT().
		SendToConversation(gomock.Any(), domain.SendCommand{SenderID: 1, ConversationID: 20, Content: "hello", Type: domain.Text}).
		Return(domain.MessageView{}, errors.ErrNotParticipant)
	f.messaging.EXPECT().
		ReportError(gomock.Any(), domain.UserID(1), domain.ConversationID(20), event.ActionSend, errors.ErrNotParticipant).
		Do(func(_ context.Context, userID domain.UserID, conversationID domain.ConversationID, action event.Action, cause error) {
			f.deliver(t, event.NewErrorEvent(userID, conversationID, action, cause))
		})

	// When the client sends
	req.NoError(ws.WriteJSON(gin.H{"type": "send", "conversationId": 20, "content": "hello"}))

	// Then only this user's error topic carries the failure
	envelope := readFrame(t, ws)
	req.Equal("ERROR", envelope["kind"])
	req.Equal("user/1/errors", envelope["topic"])
	payload := envelope["payload"].(map[string]any)
	req.Equal(float64(20), payload["conversationId"])
	req.Contains(payload["content"], "Failed to send message")
}

func TestSocket_First_Contact_Follows_The_New_Conversation(t *testing.T) {
	req := require.New(t)
	f := newSocketFixture(t)
	ws := f.dial(t)

	view := sampleView()
	view.ConversationID = 30
	f.messaging.EXPECT().
		SendDirect(gomock.Any(), domain.SendDirectCommand{SenderID: 1, RecipientUsername: "bob", Content: "hi"}).
		Return(view, nil)

	req.NoError(ws.WriteJSON(gin.H{"type": "send", "recipientUsername": "bob", "content": "hi"}))

	ack := readFrame(t, ws)
	req.Equal("sent", ack["type"])
	req.Equal(float64(30), ack["conversationId"])
	req.Len(f.registry.GetSinksForTopic(event.ConversationTopic(30)), 1)
	req.Len(f.registry.GetSinksForTopic(event.TypingTopic(30)), 1)
}

func TestSocket_Read_Receipt_And_Bad_Frames(t *testing.T) {
	f := newSocketFixture(t)
	ws := f.dial(t)

	t.Run("read", func(t *testing.T) {
		req := require.New(t)
		f.messaging.EXPECT().MarkRead(gomock.Any(), domain.UserID(1), domain.ConversationID(10), domain.MessageID(5)).Return(true, nil)

		req.NoError(ws.WriteJSON(gin.H{"type": "read", "conversationId": 10, "messageId": 5}))

		ack := readFrame(t, ws)
		req.Equal("read", ack["type"])
		req.Equal(true, ack["updated"])
	})

	t.Run("garbage", func(t *testing.T) {
		req := require.New(t)
		req.NoError(ws.WriteMessage(websocket.TextMessage, []byte("{not json")))
		frame := readFrame(t, ws)
		req.Equal("bad_request", frame["code"])
	})

	t.Run("unknown type", func(t *testing.T) {
		req := require.New(t)
		req.NoError(ws.WriteJSON(gin.H{"type": "dance"}))
		frame := readFrame(t, ws)
		req.Equal("unsupported_type", frame["code"])
	})
}

func TestSocket_Presence_Follows_Sessions(t *testing.T) {
	req := require.New(t)
	f := newSocketFixture(t)

	first := f.dial(t)
	second := f.dial(t)
	req.True(f.presence.isOnline(1))

	// One session left, the user stays online
	req.NoError(first.Close())
	time.Sleep(100 * time.Millisecond)
	req.True(f.presence.isOnline(1))

	req.NoError(second.Close())
	req.Eventually(func() bool { return !f.presence.isOnline(1) }, 2*time.Second, 10*time.Millisecond)
}
