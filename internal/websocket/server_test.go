package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclewis/wxbrief/internal/briefing"
	"github.com/eclewis/wxbrief/internal/config"
	"github.com/eclewis/wxbrief/pkg/logger"
)

// fakeBuilder counts builds and returns a canned result
type fakeBuilder struct {
	builds  atomic.Int64
	lastReq atomic.Value
}

func (f *fakeBuilder) Build(_ context.Context, req briefing.Request) (*briefing.Result, error) {
	f.builds.Add(1)
	f.lastReq.Store(req)
	return &briefing.Result{RetrievedAt: time.Now().UTC()}, nil
}

func newTestServer(t *testing.T, builder Builder) (*Server, *gws.Conn) {
	t.Helper()

	server := NewServer(builder, config.RefreshConfig{DefaultIntervalSecs: 60, MinIntervalSecs: 15}, logger.NewNop())
	httpSrv := httptest.NewServer(http.HandlerFunc(server.HandleConnection))
	t.Cleanup(httpSrv.Close)

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return server, conn
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestSubscribePushesBriefing(t *testing.T) {
	builder := &fakeBuilder{}
	_, conn := newTestServer(t, builder)

	require.NoError(t, conn.WriteJSON(Message{
		Type: MessageTypeSubscribe,
		Data: map[string]any{"departure": "JFK", "arrival": "LAX", "interval_seconds": 60},
	}))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeBriefingUpdate, msg.Type)
	assert.Contains(t, msg.Data, "briefing")

	req, ok := builder.lastReq.Load().(briefing.Request)
	require.True(t, ok)
	assert.Equal(t, "JFK", req.Departure)
	assert.Equal(t, "LAX", req.Arrival)
}

func TestSubscribeRejectsShortInterval(t *testing.T) {
	builder := &fakeBuilder{}
	_, conn := newTestServer(t, builder)

	require.NoError(t, conn.WriteJSON(Message{
		Type: MessageTypeSubscribe,
		Data: map[string]any{"departure": "JFK", "arrival": "LAX", "interval_seconds": 1},
	}))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Zero(t, builder.builds.Load())
}

func TestUnknownMessageType(t *testing.T) {
	_, conn := newTestServer(t, &fakeBuilder{})

	require.NoError(t, conn.WriteJSON(Message{Type: "bogus"}))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, msg.Type)
}

func TestClientCountTracksDisconnect(t *testing.T) {
	server, conn := newTestServer(t, &fakeBuilder{})

	assert.Eventually(t, func() bool { return server.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return server.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
}
