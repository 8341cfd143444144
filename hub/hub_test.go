package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T, h *Hub) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Register(conn, r.RemoteAddr)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.Unregister(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	require.Eventually(t, func() bool { return h.ClientCount() == n }, time.Second, 10*time.Millisecond)
}

func TestPublishReachesAllClients(t *testing.T) {
	h := NewHub()
	srv := newFeedServer(t, h)

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, h, 2)

	h.Publish("reservation_confirmed", map[string]interface{}{"id": 7})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "reservation_confirmed", msg.Event)
		assert.Equal(t, float64(7), msg.Data.(map[string]interface{})["id"])
	}
}

func TestClientsAreRemovedOnDisconnect(t *testing.T) {
	h := NewHub()
	srv := newFeedServer(t, h)

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestPublishWithoutClients(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() { h.Publish("reservation_created", nil) })
	assert.Equal(t, 0, h.ClientCount())
}
