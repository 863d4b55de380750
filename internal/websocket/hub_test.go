package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roleconsole/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("ws-secret")

func setupServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, testSecret) })
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func TestServeWs_RejectsMissingAndBadTokens(t *testing.T) {
	_, srv := setupServer(t)

	for _, token := range []string{"", "not-a-jwt"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestPublish_ReachesConnectedClient(t *testing.T) {
	hub, srv := setupServer(t)
	token, err := middleware.IssueToken(testSecret, 7, uuid.New(), time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	roleID := uuid.NewString()
	hub.Publish("roles.changed", map[string]interface{}{"role_id": roleID, "action": "UPDATE_ROLE"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "roles.changed", ev.Event)
	assert.Equal(t, roleID, ev.Data["role_id"])
}

func TestPublish_NoClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.Publish("roles.changed", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestWriteQueued_StopsOnClosedQueue(t *testing.T) {
	send := make(chan []byte, 2)
	send <- []byte(`{"event":"a"}`)
	close(send)

	var buf bytes.Buffer
	more := writeQueued(&buf, send, 2)

	assert.False(t, more)
	assert.Equal(t, "\n"+`{"event":"a"}`, buf.String())
}

func TestWriteQueued_DrainsBatch(t *testing.T) {
	send := make(chan []byte, 3)
	send <- []byte("one")
	send <- []byte("two")
	send <- []byte("three")

	var buf bytes.Buffer
	assert.True(t, writeQueued(&buf, send, 2))
	assert.Equal(t, "\none\ntwo", buf.String())
	assert.Len(t, send, 1)
}
