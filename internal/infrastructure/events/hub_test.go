package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(zap.NewNop().Sugar())
}

func dialHub(t *testing.T, hub *Hub, actorID domain.ActorID) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, actorID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	return conn
}

func TestHubDeliversEventToClient(t *testing.T) {
	hub := newTestHub()
	conn := dialHub(t, hub, "coach_1")

	hub.PublishVideoEvent(ports.VideoEvent{
		Type:    "video.uploaded",
		VideoID: "video_1",
		ActorID: "player_1",
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event ports.VideoEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "video.uploaded", event.Type)
	assert.Equal(t, domain.VideoID("video_1"), event.VideoID)
}

// Events and pings reach one connection from many goroutines at once;
// every frame must still arrive intact.
func TestHubConcurrentPublishersSingleClient(t *testing.T) {
	const publishers = 32
	const eventsPerRoutine = 200

	hub := newTestHub()
	hub.pingInterval = 5 * time.Millisecond

	conn := dialHub(t, hub, "coach_1")

	readErr := make(chan error, 1)
	go func() {
		for {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, payload, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			var event ports.VideoEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				readErr <- err
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerRoutine; j++ {
				hub.PublishVideoEvent(ports.VideoEvent{
					Type:    "video.annotated",
					VideoID: "video_1",
					ActorID: "coach_1",
				})
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-readErr:
		t.Fatalf("client read failed mid-broadcast: %v", err)
	default:
	}

	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubDropsClientAfterWriteFailure(t *testing.T) {
	hub := newTestHub()
	conn := dialHub(t, hub, "coach_1")

	conn.Close()
	// The underlying server-side write fails once the peer is gone.
	require.Eventually(t, func() bool {
		hub.PublishVideoEvent(ports.VideoEvent{Type: "video.deleted", VideoID: "video_1"})
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubReconnectReplacesConnection(t *testing.T) {
	hub := newTestHub()
	dialHub(t, hub, "coach_1")
	dialHub(t, hub, "coach_1")

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)
}
