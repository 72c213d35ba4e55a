package api

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

	"github.com/danniel-isiah-libor/talos-io/internal/domain"
	"github.com/danniel-isiah-libor/talos-io/internal/events"
)

func dialWS(t *testing.T, h *WSHandler) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.Serve))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func wsTestTask(t *testing.T) domain.Task {
	t.Helper()

	task, err := domain.NewTask(
		"feed-test",
		domain.Profile{Email: "buyer@example.com", Password: "hunter2secret"},
		"FY2903",
		[]domain.SizeOption{{Label: "8", AttributeID: "151", Value: "584"}},
		time.Second,
	)
	require.NoError(t, err)
	return *task
}

func TestWSHandler_StreamsTaskEvents(t *testing.T) {
	t.Parallel()

	h := NewWSHandler(nil)
	conn := dialWS(t, h)

	// The handler registers the client asynchronously with the upgrade; wait
	// until it is visible before emitting.
	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	task := wsTestTask(t)
	h.HandleTaskEvent(events.NewTaskEvent(events.EventTaskUpdated, task))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg TaskEventMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, events.EventTaskUpdated, msg.Type)
	assert.Equal(t, task.ID, msg.Task.ID)
	assert.Equal(t, "FY2903", msg.Task.Sku)
}

func TestWSHandler_FeedNeverCarriesCredentials(t *testing.T) {
	t.Parallel()

	h := NewWSHandler(nil)
	conn := dialWS(t, h)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	h.HandleTaskEvent(events.NewTaskEvent(events.EventTaskCreated, wsTestTask(t)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	assert.NotContains(t, string(payload), "hunter2secret")
}

func TestWSHandler_DisconnectedClientIsRemoved(t *testing.T) {
	t.Parallel()

	h := NewWSHandler(nil)
	conn := dialWS(t, h)

	require.Eventually(t, func() bool {
		return h.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// Emitting with nobody connected must not panic or block.
	h.HandleTaskEvent(events.NewTaskEvent(events.EventTaskRemoved, wsTestTask(t)))
}
