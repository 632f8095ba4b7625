package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/forgeai-dev/ForgeAI/internal/creds"
	"github.com/forgeai-dev/ForgeAI/internal/model"
)

type staticCreds struct {
	c *creds.Credentials
}

func (s *staticCreds) Load() (*creds.Credentials, bool) {
	if s.c == nil {
		return nil, false
	}
	return s.c, true
}

type echoDispatcher struct {
	calls atomic.Int32
}

func (e *echoDispatcher) ExecuteTracked(requestID string, req model.ActionRequest) model.ActionResult {
	e.calls.Add(1)
	return model.ActionResult{
		Success: true,
		Output:  "ran " + req.Action + " on " + req.Path,
		Safety:  model.SafeVerdict(),
	}
}

// gatewayStub is a minimal WS endpoint: it records each connection and
// exposes the frames companions send back.
type gatewayStub struct {
	t        *testing.T
	srv      *httptest.Server
	conns    chan *websocket.Conn
	received chan map[string]any
	dials    atomic.Int32
}

func newGatewayStub(t *testing.T) *gatewayStub {
	t.Helper()
	g := &gatewayStub{
		t:        t,
		conns:    make(chan *websocket.Conn, 4),
		received: make(chan map[string]any, 16),
	}
	upgrader := websocket.Upgrader{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.dials.Add(1)
		g.conns <- conn
		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				var m map[string]any
				if json.Unmarshal(data, &m) == nil {
					g.received <- m
				}
			}
		}()
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *gatewayStub) credentials() *creds.Credentials {
	return &creds.Credentials{
		GatewayURL:  g.srv.URL,
		CompanionID: "comp-1",
		AuthToken:   "tok-1",
	}
}

func (g *gatewayStub) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-g.conns:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("companion never connected")
		return nil
	}
}

func (g *gatewayStub) waitFrame(t *testing.T, frameType string) map[string]any {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case m := <-g.received:
			if m["type"] == frameType {
				return m
			}
		case <-deadline:
			t.Fatalf("never received %s frame", frameType)
			return nil
		}
	}
}

func TestStartIsSingleFlight(t *testing.T) {
	ch := New(&staticCreds{}, &echoDispatcher{}, nil)
	require.True(t, ch.Start())
	require.False(t, ch.Start(), "second Start must be a no-op")
	require.False(t, ch.Start())
}

func TestWebsocketURLDerivation(t *testing.T) {
	c := &creds.Credentials{GatewayURL: "https://gw.example.com", CompanionID: "c1", AuthToken: "t1"}
	require.Equal(t, "wss://gw.example.com/ws?companionId=c1&token=t1", websocketURL(c))

	c = &creds.Credentials{GatewayURL: "http://localhost:3000/", CompanionID: "c2"}
	require.Equal(t, "ws://localhost:3000/ws?companionId=c2", websocketURL(c))
}

func TestActionRequestProducesResult(t *testing.T) {
	stub := newGatewayStub(t)
	dispatcher := &echoDispatcher{}
	ch := New(&staticCreds{c: stub.credentials()}, dispatcher, nil)
	ch.Start()

	conn := stub.waitConn(t)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":      "action_request",
		"requestId": "req-42",
		"action":    "read_file",
		"params":    map[string]any{"path": "/tmp/x"},
	}))

	frame := stub.waitFrame(t, "action_result")
	require.Equal(t, "req-42", frame["requestId"])
	require.Equal(t, true, frame["success"])
	require.Contains(t, frame["output"], "ran read_file")
	require.Equal(t, int32(1), dispatcher.calls.Load())
}

func TestUnparseableParamsStillYieldResult(t *testing.T) {
	stub := newGatewayStub(t)
	dispatcher := &echoDispatcher{}
	ch := New(&staticCreds{c: stub.credentials()}, dispatcher, nil)
	ch.Start()

	conn := stub.waitConn(t)
	// params is an array, not an object: the decode fails but the
	// Gateway still gets a correlated failure frame.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"action_request","requestId":"req-bad","action":"shell","params":[1,2]}`)))

	frame := stub.waitFrame(t, "action_result")
	require.Equal(t, "req-bad", frame["requestId"])
	require.Equal(t, false, frame["success"])
	require.Contains(t, frame["output"], "Invalid action params")
	require.Equal(t, int32(0), dispatcher.calls.Load(), "dispatcher must not run on bad params")
}

func TestMalformedJSONIsDroppedNotFatal(t *testing.T) {
	stub := newGatewayStub(t)
	ch := New(&staticCreds{c: stub.credentials()}, &echoDispatcher{}, nil)
	ch.Start()

	conn := stub.waitConn(t)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))

	// The connection survives: a well-formed request after the garbage
	// still round-trips.
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":      "action_request",
		"requestId": "req-after",
		"action":    "system_info",
	}))
	frame := stub.waitFrame(t, "action_result")
	require.Equal(t, "req-after", frame["requestId"])
}

func TestNonActionFramesReachOnEvent(t *testing.T) {
	stub := newGatewayStub(t)
	ch := New(&staticCreds{c: stub.credentials()}, &echoDispatcher{}, nil)
	events := make(chan Frame, 1)
	ch.OnEvent = func(f Frame) { events <- f }
	ch.Start()

	conn := stub.waitConn(t)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "chat_response", "content": "hi"}))

	select {
	case f := <-events:
		require.Equal(t, "chat_response", f.Type)
		require.Equal(t, "hi", f.Content)
	case <-time.After(5 * time.Second):
		t.Fatal("OnEvent never fired")
	}
}

func TestFirstInboundFrameAuthenticates(t *testing.T) {
	stub := newGatewayStub(t)
	ch := New(&staticCreds{c: stub.credentials()}, &echoDispatcher{}, nil)
	states := make(chan State, 8)
	ch.OnStateChange = func(s State) { states <- s }
	ch.Start()

	conn := stub.waitConn(t)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "connected"}))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-states:
			if s == StateAuthenticated {
				return
			}
		case <-deadline:
			t.Fatal("never reached authenticated state")
		}
	}
}

func TestSendChatWhenDisconnected(t *testing.T) {
	ch := New(&staticCreds{}, &echoDispatcher{}, nil)
	require.False(t, ch.SendChat("hello", ""), "no connection means no queue")
}

func TestSendChatDeliversFrame(t *testing.T) {
	stub := newGatewayStub(t)
	ch := New(&staticCreds{c: stub.credentials()}, &echoDispatcher{}, nil)
	ch.Start()
	stub.waitConn(t)

	require.Eventually(t, func() bool {
		return ch.SendChat("status update", "sess-9")
	}, 5*time.Second, 50*time.Millisecond)

	frame := stub.waitFrame(t, "send_message")
	require.Equal(t, "status update", frame["content"])
	require.Equal(t, "sess-9", frame["sessionId"])
	require.NotEmpty(t, frame["id"])
}

func TestForceReconnectDialsAgain(t *testing.T) {
	if testing.Short() {
		t.Skip("reconnect delay is fixed at 5s")
	}

	stub := newGatewayStub(t)
	ch := New(&staticCreds{c: stub.credentials()}, &echoDispatcher{}, nil)
	ch.Start()
	stub.waitConn(t)

	ch.ForceReconnect()

	stub.waitConn(t) // second epoch
	require.GreaterOrEqual(t, stub.dials.Load(), int32(2))
}

func TestDialQueryCarriesIdentity(t *testing.T) {
	var gotQuery atomic.Value
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	ch := New(&staticCreds{c: &creds.Credentials{
		GatewayURL:  srv.URL,
		CompanionID: "comp-77",
		AuthToken:   "secret",
	}}, &echoDispatcher{}, nil)
	ch.Start()

	require.Eventually(t, func() bool {
		q, _ := gotQuery.Load().(string)
		return strings.Contains(q, "companionId=comp-77") && strings.Contains(q, "token=secret")
	}, 5*time.Second, 50*time.Millisecond)
}
