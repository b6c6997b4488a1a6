package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/chat-client/internal/model"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*http.Request, *websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(r, conn)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebsocketDialer_Messages(t *testing.T) {
	testMessages := []string{
		`{"message":"a","sent_by":"u1","message_id":"1"}`,
		`{"message":"b","sent_by":"u1","message_id":"2"}`,
		`{"message":"c","sent_by":"u2","message_id":"3"}`,
	}

	server := mockWSServer(t, func(_ *http.Request, conn *websocket.Conn) {
		for _, msg := range testMessages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Keep connection open
		time.Sleep(time.Second)
	})
	defer server.Close()

	d := NewWebsocketDialer(DefaultConfig(), nil)
	conn, err := d.Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close(websocket.CloseNormalClosure, "")

	for i, want := range testMessages {
		got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage %d failed: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("message %d: got %q, want %q", i, got, want)
		}
	}
}

func TestWebsocketDialer_CloseSendsNormalClosure(t *testing.T) {
	codes := make(chan int, 1)

	server := mockWSServer(t, func(_ *http.Request, conn *websocket.Conn) {
		_, _, err := conn.ReadMessage()
		if ce, ok := err.(*websocket.CloseError); ok {
			codes <- ce.Code
		}
	})
	defer server.Close()

	d := NewWebsocketDialer(DefaultConfig(), nil)
	conn, err := d.Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	// Second close should be no-op
	if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	select {
	case code := <-codes:
		if code != websocket.CloseNormalClosure {
			t.Errorf("close code = %d, want %d", code, websocket.CloseNormalClosure)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe close frame")
	}
}

func TestWebsocketDialer_RemoteCloseIsCloseError(t *testing.T) {
	server := mockWSServer(t, func(_ *http.Request, conn *websocket.Conn) {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"),
			time.Now().Add(time.Second),
		)
	})
	defer server.Close()

	d := NewWebsocketDialer(DefaultConfig(), nil)
	conn, err := d.Dial(context.Background(), wsURL(server))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close(websocket.CloseNormalClosure, "")

	_, err = conn.ReadMessage()
	if err == nil {
		t.Fatal("expected read error after remote close")
	}
	if !IsCloseError(err) {
		t.Errorf("IsCloseError(%v) = false, want true", err)
	}
}

func TestWebsocketDialer_DialFailure(t *testing.T) {
	d := NewWebsocketDialer(Config{HandshakeTimeout: time.Second}, nil)

	_, err := d.Dial(context.Background(), "ws://127.0.0.1:1/ws/")
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestManager_LiveServerReconnect(t *testing.T) {
	var (
		connections atomic.Int32
		mu          sync.Mutex
		chatIDs     []string
	)

	server := mockWSServer(t, func(r *http.Request, conn *websocket.Conn) {
		n := connections.Add(1)

		mu.Lock()
		chatIDs = append(chatIDs, r.URL.Query().Get("chat_id"))
		mu.Unlock()

		if n == 1 {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"hi","sent_by":"u1","message_id":"m1"}`))
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"),
				time.Now().Add(time.Second),
			)
			return
		}

		// Hold the second connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	endpoint, err := ChatStreamURL(wsURL(server), "chat-42")
	if err != nil {
		t.Fatalf("ChatStreamURL failed: %v", err)
	}

	states := newStateRecorder()
	received := make(chan model.ChatMessage, 4)

	cfg := DefaultConfig()
	cfg.ReconnectDelay = 50 * time.Millisecond

	m := NewManager[model.ChatMessage](cfg,
		WithStateHandler[model.ChatMessage](states.record),
		WithMessageHandler(func(msg model.ChatMessage) { received <- msg }),
	)
	defer m.Close()

	if err := m.SetEndpoint(endpoint); err != nil {
		t.Fatalf("SetEndpoint failed: %v", err)
	}

	states.expect(t, StateOpen)

	select {
	case msg := <-received:
		if msg.MessageID != "m1" {
			t.Errorf("MessageID = %q, want %q", msg.MessageID, "m1")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	states.expect(t, StateClosed)
	states.expect(t, StateOpen)

	waitFor(t, 2*time.Second, func() bool { return connections.Load() == 2 })

	mu.Lock()
	defer mu.Unlock()
	for i, id := range chatIDs {
		if id != "chat-42" {
			t.Errorf("connection %d chat_id = %q, want %q", i, id, "chat-42")
		}
	}
}
