package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewise/fireedu-api/pkg/logger"
)

// newTestServer поднимает хаб и HTTP-сервер, который подключает всех как userID
func newTestServer(t *testing.T, userID uint) (*Manager, string) {
	t.Helper()

	log := logger.NewNop()
	hub := NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	manager := NewManager(hub, log)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		manager.Accept(NewClient(hub, conn, userID, log))
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return manager, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestManager_WelcomeAndNotify(t *testing.T) {
	// Arrange
	manager, url := newTestServer(t, 42)
	conn := dial(t, url)

	welcome := readEvent(t, conn)
	assert.Equal(t, SERVER_WELCOME, welcome.Type)
	require.Eventually(t, func() bool { return manager.Hub().IsOnline(42) }, time.Second, 10*time.Millisecond)

	// Act
	manager.NotifyUser(42, "engagement:updated", map[string]int{"engagementPoints": 10})

	// Assert
	event := readEvent(t, conn)
	assert.Equal(t, "engagement:updated", event.Type)
	assert.Equal(t, map[string]interface{}{"engagementPoints": float64(10)}, event.Data)
}

func TestManager_NotifyOfflineUserIsNoop(t *testing.T) {
	manager, _ := newTestServer(t, 1)

	assert.NotPanics(t, func() { manager.NotifyUser(999, "engagement:updated", nil) })
	sent, err := manager.SendEventToUser(999, "engagement:updated", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestManager_PingAndUnknownType(t *testing.T) {
	_, url := newTestServer(t, 7)
	conn := dial(t, url)
	readEvent(t, conn) // welcome

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"client:ping"}`)))
	assert.Equal(t, SERVER_PONG, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"course:subscribe"}`)))
	errEvent := readEvent(t, conn)
	assert.Equal(t, SERVER_ERROR, errEvent.Type)
	assert.Equal(t, "unknown_message_type", errEvent.Data.(map[string]interface{})["code"])
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	manager, url := newTestServer(t, 5)
	conn := dial(t, url)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return manager.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool { return manager.Hub().ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, manager.Hub().IsOnline(5))
}

func TestClient_CloseSendOnce(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}

	assert.True(t, c.CloseSend())
	assert.False(t, c.CloseSend(), "Повторное закрытие не паникует")
	assert.False(t, c.enqueue([]byte("x")))
}

func TestClient_EnqueueRacesWithClose(t *testing.T) {
	for i := 0; i < 200; i++ {
		c := &Client{send: make(chan []byte, defaultClientBufferSize)}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.enqueue([]byte("welcome"))
			}
		}()
		go func() {
			defer wg.Done()
			c.CloseSend()
		}()
		assert.NotPanics(t, wg.Wait)
		assert.False(t, c.enqueue([]byte("late")), "После закрытия сообщения отбрасываются")
	}
}
