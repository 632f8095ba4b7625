// Package gateway maintains the companion's persistent WebSocket control
// channel to the Gateway: one process-wide connection loop that decodes
// action_request frames, hands them to the dispatcher, and streams
// results back in completion order.
package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/forgeai-dev/ForgeAI/internal/creds"
	"github.com/forgeai-dev/ForgeAI/internal/model"
)

const (
	handshakeTimeout  = 10 * time.Second
	writeTimeout      = 10 * time.Second
	keepaliveInterval = 30 * time.Second
	reconnectDelay    = 5 * time.Second
	unpairedWait      = 10 * time.Second
	outboundBuffer    = 64
	inboundBuffer     = 16
)

// Dispatcher executes one decoded action request and returns its result.
// Declared here so the channel can be tested against a fake executor.
type Dispatcher interface {
	ExecuteTracked(requestID string, req model.ActionRequest) model.ActionResult
}

// CredentialSource yields the current pairing credentials. Re-read at the
// top of every connection epoch so re-pairing takes effect on the next
// dial without a restart.
type CredentialSource interface {
	Load() (*creds.Credentials, bool)
}

// Channel owns the singleton connection loop. Construct with New, wire
// callbacks, then Start once; the loop runs for the life of the process.
type Channel struct {
	source     CredentialSource
	dispatcher Dispatcher
	log        *zap.Logger

	started   atomic.Bool
	reconnect chan struct{}

	mu       sync.Mutex
	outbound chan []byte // current epoch's queue; nil between epochs
	state    State

	// OnEvent receives every non-action inbound frame (chat replies,
	// session events). OnStateChange fires on every lifecycle
	// transition. Both are optional and must be set before Start.
	OnEvent       func(Frame)
	OnStateChange func(State)
}

func New(source CredentialSource, dispatcher Dispatcher, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{
		source:     source,
		dispatcher: dispatcher,
		log:        log,
		reconnect:  make(chan struct{}, 1),
	}
}

// Start launches the connection loop. Only the first call does anything;
// subsequent calls return false and leave the running loop alone.
func (c *Channel) Start() bool {
	if !c.started.CompareAndSwap(false, true) {
		return false
	}
	go c.run()
	return true
}

// State reports the current lifecycle state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ForceReconnect asks the loop to drop the current connection and redial
// with freshly loaded credentials. Signals already pending coalesce.
func (c *Channel) ForceReconnect() {
	select {
	case c.reconnect <- struct{}{}:
	default:
	}
}

// SendChat enqueues a free-form chat message for the Gateway. Returns
// false when no connection is up or the outbound queue is full.
func (c *Channel) SendChat(content, sessionID string) bool {
	return c.enqueue(chatFrame{
		Type:      frameSendMessage,
		ID:        uuid.NewString(),
		Content:   content,
		SessionID: sessionID,
	})
}

// run is the forever loop: load credentials, dial, serve the epoch,
// wait, repeat. It never returns and never panics the process; every
// failure path funnels into the fixed retry delay.
func (c *Channel) run() {
	for {
		cr, ok := c.source.Load()
		if !ok {
			c.setState(StateDisconnected)
			c.log.Debug("not paired, waiting for credentials")
			time.Sleep(unpairedWait)
			continue
		}

		c.setState(StateConnecting)
		url := websocketURL(cr)
		c.log.Info("connecting to gateway",
			zap.String("gateway", cr.GatewayURL),
			zap.String("companion_id", cr.CompanionID))

		dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
		conn, _, err := dialer.Dial(url, nil)
		if err != nil {
			c.setState(StateError)
			c.log.Warn("connection failed, retrying",
				zap.Error(err),
				zap.Duration("retry_in", reconnectDelay))
			time.Sleep(reconnectDelay)
			continue
		}

		c.setState(StateConnected)
		c.log.Info("connected to gateway", zap.String("gateway", cr.GatewayURL))
		c.serveConn(conn)

		c.setState(StateReconnecting)
		c.log.Warn("disconnected from gateway, reconnecting",
			zap.Duration("retry_in", reconnectDelay))
		time.Sleep(reconnectDelay)
	}
}

// serveConn runs one connection epoch and returns when it dies, however
// it dies: read error, keepalive queue overflow, or a forced reconnect.
func (c *Channel) serveConn(conn *websocket.Conn) {
	out := make(chan []byte, outboundBuffer)
	c.mu.Lock()
	c.outbound = out
	c.mu.Unlock()

	stop := make(chan struct{})
	defer func() {
		close(stop)
		conn.Close()
		c.mu.Lock()
		if c.outbound == out {
			c.outbound = nil
		}
		c.mu.Unlock()
	}()

	// Writer: sole owner of conn writes. Transport pongs from the
	// default ping handler are the one exception, serialized by
	// gorilla's internal write lock for control frames.
	go func() {
		for {
			select {
			case msg := <-out:
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					c.log.Error("write failed", zap.Error(err))
					conn.Close()
					return
				}
			case <-stop:
				return
			}
		}
	}()

	// Reader: feeds decoded frames to the select loop. Malformed JSON
	// is dropped, not fatal; read errors end the epoch.
	inbound := make(chan Frame, inboundBuffer)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.log.Warn("read failed", zap.Error(err))
				return
			}
			var f Frame
			if err := json.Unmarshal(data, &f); err != nil {
				c.log.Warn("dropping malformed frame", zap.Error(err))
				continue
			}
			select {
			case inbound <- f:
			case <-stop:
				return
			}
		}
	}()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	authenticated := false
	for {
		select {
		case f := <-inbound:
			if !authenticated {
				// First server frame proves the token was accepted.
				authenticated = true
				c.setState(StateAuthenticated)
			}
			c.handleFrame(f)

		case <-readerDone:
			return

		case <-ticker.C:
			ping, _ := json.Marshal(pingFrame{Type: frameHealthPing, ID: "keepalive"})
			select {
			case out <- ping:
				c.log.Debug("keepalive ping sent")
			default:
				// A queue that cannot absorb a ping has a dead peer
				// behind it.
				c.log.Warn("keepalive queue full, dropping connection")
				return
			}

		case <-c.reconnect:
			c.log.Info("reconnect requested, closing connection")
			return
		}
	}
}

func (c *Channel) handleFrame(f Frame) {
	switch f.Type {
	case frameActionRequest:
		c.log.Info("action request",
			zap.String("action", f.Action),
			zap.String("request_id", f.RequestID))
		// One execution slot per request; the frame's params are owned
		// by this goroutine from here on.
		go c.runAction(f)

	case frameHealthPing:
		_ = c.enqueue(pingFrame{Type: framePong, ID: f.ID})

	case frameHealthPong:
		c.log.Debug("keepalive acknowledged")

	default:
		c.log.Debug("received frame", zap.String("type", f.Type))
		if c.OnEvent != nil {
			c.OnEvent(f)
		}
	}
}

// runAction decodes and executes one action request. Every path, decode
// failure included, produces exactly one result frame attempt.
func (c *Channel) runAction(f Frame) {
	var params map[string]any
	if len(f.Params) > 0 {
		if err := json.Unmarshal(f.Params, &params); err != nil {
			c.sendResult(f.RequestID, false, fmt.Sprintf("Invalid action params: %v", err))
			return
		}
	}

	req := model.RequestFromParams(f.Action, params)
	res := c.dispatcher.ExecuteTracked(f.RequestID, req)

	c.log.Info("action result",
		zap.String("action", f.Action),
		zap.String("request_id", f.RequestID),
		zap.Bool("success", res.Success),
		zap.Int("output_len", len(res.Output)))
	c.sendResult(f.RequestID, res.Success, res.Output)
}

// sendResult enqueues on whatever queue exists at completion time, so a
// result that outlives its connection rides the next one. Best-effort:
// with no connection up, the result is logged and dropped.
func (c *Channel) sendResult(requestID string, success bool, output string) {
	ok := c.enqueue(resultFrame{
		Type:      frameActionResult,
		RequestID: requestID,
		Success:   success,
		Output:    output,
	})
	if !ok {
		c.log.Warn("dropping action result, no connection",
			zap.String("request_id", requestID))
	}
}

func (c *Channel) enqueue(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	c.mu.Lock()
	out := c.outbound
	c.mu.Unlock()
	if out == nil {
		return false
	}
	select {
	case out <- data:
		return true
	default:
		return false
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}

// websocketURL derives the channel endpoint from the stored gateway
// address, swapping in the matching WebSocket scheme and attaching
// identity and auth as query parameters.
func websocketURL(cr *creds.Credentials) string {
	base := strings.Replace(cr.GatewayURL, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	url := fmt.Sprintf("%s/ws?companionId=%s", strings.TrimRight(base, "/"), cr.CompanionID)
	if cr.AuthToken != "" {
		url += "&token=" + cr.AuthToken
	}
	return url
}
