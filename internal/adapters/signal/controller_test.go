package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chamlab/lobby/internal/config"
	"github.com/chamlab/lobby/internal/lobby"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:          "release",
		ReadLimit:     32768,
		PingPeriod:    54 * time.Second,
		SendBuffer:    64,
		AdminPassword: "admin",
		VoiceChannels: []string{"Voice 1", "Voice 2"},
	}
	lob := lobby.New(cfg.AdminPassword, cfg.VoiceChannels, clockwork.NewRealClock())
	ctrl := NewController(lob, cfg)

	r := gin.New()
	r.GET("/api/ws", func(c *gin.Context) {
		ctrl.HandleLobby(context.Background(), c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]any) bool) map[string]any {
	t.Helper()
	for i := 0; i < 50; i++ {
		if m := readFrame(t, conn); match(m) {
			return m
		}
	}
	t.Fatal("expected frame not received")
	return nil
}

func typeIs(frameType string) func(map[string]any) bool {
	return func(m map[string]any) bool { return m["type"] == frameType }
}

func joinAs(t *testing.T, conn *websocket.Conn, name, role, password string) map[string]any {
	t.Helper()
	sendFrame(t, conn, map[string]any{"type": "join", "name": name, "role": role, "password": password})
	return readUntil(t, conn, typeIs("join_ack"))
}

func TestHandshake_AdminJoin(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	ack := joinAs(t, conn, "A", "admin", "admin")
	assert.Equal(t, true, ack["success"])
	assert.Equal(t, "admin", ack["role"])
	assert.NotNil(t, ack["users"])
	assert.NotNil(t, ack["music"])
	assert.NotNil(t, ack["voice"])
}

func TestHandshake_DuplicateNameClosesConnection(t *testing.T) {
	srv := newTestServer(t)
	first := dial(t, srv)
	joinAs(t, first, "A", "admin", "admin")

	second := dial(t, srv)
	sendFrame(t, second, map[string]any{"type": "join", "name": "A", "role": "user"})

	errFrame := readFrame(t, second)
	assert.Equal(t, "error", errFrame["type"])
	assert.Equal(t, "Name already taken. Choose another.", errFrame["message"])

	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()
	assert.Error(t, err, "connection must be closed after a terminal error")
}

func TestHandshake_FirstFrameMustBeJoin(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	sendFrame(t, conn, map[string]any{"type": "chat", "message": "hi"})
	errFrame := readFrame(t, conn)
	assert.Equal(t, "error", errFrame["type"])
	assert.Equal(t, "Expected join message first.", errFrame["message"])
}

func TestHandshake_WrongAdminPassword(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	sendFrame(t, conn, map[string]any{"type": "join", "name": "A", "role": "admin", "password": "wrong"})
	errFrame := readFrame(t, conn)
	assert.Equal(t, "error", errFrame["type"])
	assert.Equal(t, "Invalid admin password.", errFrame["message"])
}

func TestChat_RoundTrip(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)
	joinAs(t, a, "A", "user", "")
	b := dial(t, srv)
	joinAs(t, b, "B", "user", "")

	sendFrame(t, b, map[string]any{"type": "chat", "message": "hello"})

	chat := readUntil(t, a, func(m map[string]any) bool {
		return m["type"] == "chat" && m["message"] == "hello"
	})
	assert.Equal(t, "B", chat["name"])
	assert.Equal(t, "user", chat["role"])
}

func TestMalformedFrame_ErrorThenLoopContinues(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)
	joinAs(t, conn, "A", "user", "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	errFrame := readUntil(t, conn, typeIs("error"))
	assert.Equal(t, "Malformed message.", errFrame["message"])

	sendFrame(t, conn, map[string]any{"type": "chat", "message": "still alive"})
	readUntil(t, conn, func(m map[string]any) bool {
		return m["type"] == "chat" && m["message"] == "still alive"
	})
}

func TestDisconnect_AnnouncedToOthers(t *testing.T) {
	srv := newTestServer(t)
	a := dial(t, srv)
	joinAs(t, a, "A", "admin", "admin")
	b := dial(t, srv)
	joinAs(t, b, "B", "user", "")

	require.NoError(t, b.Close())

	users := readUntil(t, a, func(m map[string]any) bool {
		list, ok := m["users"].([]any)
		return m["type"] == "users" && ok && len(list) == 1
	})
	assert.NotNil(t, users)
	readUntil(t, a, func(m map[string]any) bool {
		return m["type"] == "chat" && m["message"] == "B left the lobby."
	})
}
