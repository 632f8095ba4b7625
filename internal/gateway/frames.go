package gateway

import "encoding/json"

// Frame is the envelope for every JSON message on the control channel.
// Only type is mandatory; the remaining fields are populated per frame
// kind. Params stays raw until an execution slot owns it.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Action    string          `json:"action,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Content   string          `json:"content,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
}

const (
	frameActionRequest = "action_request"
	frameActionResult  = "action_result"
	frameHealthPing    = "health.ping"
	frameHealthPong    = "health.pong"
	frameSendMessage   = "send_message"
	framePong          = "pong"
)

type resultFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Output    string `json:"output"`
}

type pingFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type chatFrame struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId,omitempty"`
}
