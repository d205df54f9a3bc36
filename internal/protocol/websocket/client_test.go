package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questapi/quest/internal/cancel"
	"github.com/questapi/quest/internal/core"
)

var testUpgrader = gorilla.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func newTestServer(t *testing.T, handler func(*gorilla.Conn)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestPlugin_ExecuteReceivesOneMessageByDefault(t *testing.T) {
	srv := newTestServer(t, func(conn *gorilla.Conn) {
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`"hello"`))
	})
	defer srv.Close()

	p := New()
	req := &core.RequestInstance{URL: wsURL(srv.URL)}
	resp, err := p.Execute(context.Background(), req, core.RequestOptions{}, cancel.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, 101, resp.Status)
	assert.Contains(t, resp.Text(), "hello")
}

func TestPlugin_ExecuteSendsOpeningFrame(t *testing.T) {
	received := make(chan string, 1)
	srv := newTestServer(t, func(conn *gorilla.Conn) {
		_, data, err := conn.ReadMessage()
		if err == nil {
			received <- string(data)
		}
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`"ack"`))
	})
	defer srv.Close()

	p := New()
	req := &core.RequestInstance{URL: wsURL(srv.URL), Body: "ping"}
	_, err := p.Execute(context.Background(), req, core.RequestOptions{}, cancel.New(), nil)
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "ping", msg)
	default:
		t.Fatal("server never received the opening frame")
	}
}

func TestPlugin_ExecuteCollectsExpectedMessageCount(t *testing.T) {
	srv := newTestServer(t, func(conn *gorilla.Conn) {
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`"one"`))
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`"two"`))
		_ = conn.WriteMessage(gorilla.TextMessage, []byte(`"three"`))
	})
	defer srv.Close()

	expected := 2
	p := New()
	req := &core.RequestInstance{URL: wsURL(srv.URL)}
	var sinkCalls int
	resp, err := p.Execute(context.Background(), req, core.RequestOptions{ExpectedMessages: &expected}, cancel.New(),
		func(eventName string, payload map[string]any) {
			sinkCalls++
			assert.Equal(t, EventMessage, eventName)
		})
	require.NoError(t, err)
	assert.Equal(t, 2, sinkCalls)
	assert.Contains(t, resp.Text(), "one")
	assert.Contains(t, resp.Text(), "two")
	assert.NotContains(t, resp.Text(), "three")
}

func TestPlugin_ValidateRequiresURL(t *testing.T) {
	p := New()
	assert.Error(t, p.Validate(&core.RequestInstance{}, core.RequestOptions{}))
	assert.NoError(t, p.Validate(&core.RequestInstance{URL: "ws://example.com"}, core.RequestOptions{}))
}

func TestPlugin_Identity(t *testing.T) {
	p := New()
	assert.Equal(t, "websocket", p.Protocol())
	events := p.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventMessage, events[0].Name)
	assert.True(t, events[0].CanHaveTests)
}
