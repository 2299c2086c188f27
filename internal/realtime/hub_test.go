package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub, userID int64) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Upgrade(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_NotifyReachesEveryConnectionOfUser(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	aliceURL := newTestServer(t, hub, 1)
	bobURL := newTestServer(t, hub, 2)

	a1 := dial(t, aliceURL)
	a2 := dial(t, aliceURL)
	b := dial(t, bobURL)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount(1) == 2 && hub.ConnectionCount(2) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Notify(1, EventUploadCreated, map[string]int64{"id": 7})

	for _, conn := range []*websocket.Conn{a1, a2} {
		var ev Event
		conn.SetReadDeadline(time.Now().Add(time.Second))
		require.NoError(t, conn.ReadJSON(&ev))
		assert.Equal(t, EventUploadCreated, ev.Type)
	}

	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "bob must not receive alice's events")
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dial(t, newTestServer(t, hub, 5))
	require.Eventually(t, func() bool { return hub.ConnectionCount(5) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ConnectionCount(5) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Publish(5, Event{Type: EventUploadDeleted}))
}

func TestHub_PublishWithoutListeners(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.Publish(42, Event{Type: EventUploadReuploaded}))
	hub.Close()
	hub.Notify(42, EventUploadDeleted, nil)
}
