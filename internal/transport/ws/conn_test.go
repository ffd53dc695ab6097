package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dungeon-client/internal/protocol"
	"github.com/cory-johannsen/dungeon-client/internal/transport/ws"
)

// newServer starts a websocket endpoint that runs fn on each accepted connection.
func newServer(t *testing.T, fn func(*websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer raw.Close()
		fn(raw)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *ws.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := ws.Dial(ctx, url, ws.Options{DialTimeout: time.Second, WriteTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestConn_SendAndReadLoop(t *testing.T) {
	url := newServer(t, func(raw *websocket.Conn) {
		// Echo one frame back, then close normally.
		_, data, err := raw.ReadMessage()
		if err != nil {
			return
		}
		_ = raw.WriteMessage(websocket.TextMessage, data)
		_ = raw.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_, _, _ = raw.ReadMessage()
	})
	conn := dial(t, url)

	env, err := protocol.Move(protocol.DirUp)
	require.NoError(t, err)
	require.NoError(t, conn.Send(env))

	var got []protocol.Envelope
	err = conn.ReadLoop(context.Background(), func(e protocol.Envelope) { got = append(got, e) })
	assert.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, protocol.EventMove, got[0].Event)
	assert.JSONEq(t, `"w"`, string(got[0].Data))
}

func TestConn_MalformedFramesSkipped(t *testing.T) {
	url := newServer(t, func(raw *websocket.Conn) {
		_ = raw.WriteMessage(websocket.TextMessage, []byte("garbage"))
		_ = raw.WriteMessage(websocket.TextMessage, []byte(`{"data":1}`))
		_ = raw.WriteMessage(websocket.TextMessage, []byte(`{"event":"player_died"}`))
		_ = raw.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		_, _, _ = raw.ReadMessage()
	})
	conn := dial(t, url)

	var got []string
	err := conn.ReadLoop(context.Background(), func(e protocol.Envelope) { got = append(got, e.Event) })
	assert.NoError(t, err)
	assert.Equal(t, []string{protocol.EventPlayerDied}, got)
}

func TestConn_ReadLoopStopsOnCancel(t *testing.T) {
	url := newServer(t, func(raw *websocket.Conn) {
		// Hold the connection open until the client goes away.
		_, _, _ = raw.ReadMessage()
	})
	conn := dial(t, url)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- conn.ReadLoop(ctx, func(protocol.Envelope) {}) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not return after cancellation")
	}
}

func TestConn_AbnormalCloseIsError(t *testing.T) {
	url := newServer(t, func(raw *websocket.Conn) {
		_ = raw.UnderlyingConn().Close()
	})
	conn := dial(t, url)
	err := conn.ReadLoop(context.Background(), func(protocol.Envelope) {})
	assert.Error(t, err)
}

func TestConn_SendAfterClose(t *testing.T) {
	url := newServer(t, func(raw *websocket.Conn) {
		_, _, _ = raw.ReadMessage()
	})
	conn := dial(t, url)
	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close(), "second close reports the first result")

	env, err := protocol.Move(protocol.DirLeft)
	require.NoError(t, err)
	assert.Error(t, conn.Send(env))
}

func TestDial_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, err := ws.Dial(context.Background(), url, ws.Options{DialTimeout: 500 * time.Millisecond})
	assert.Error(t, err)
}

func TestDial_BadHandshake(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, err := ws.Dial(context.Background(), url, ws.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
