package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message represents all WebSocket messages between peers and the signaling server.
type Message struct {
	Type string `json:"type"`

	// Src is the sender identity. Peers set it on open; the server fills it on relay.
	Src string `json:"src,omitempty"`

	// Dst is the identity a signal is addressed to.
	Dst string `json:"dst,omitempty"`

	// ConnectionID ties offers, answers and candidates to one data channel.
	ConnectionID string `json:"connection_id,omitempty"`

	Payload json.RawMessage `json:"payload,omitempty"`

	// conn is the server side connection that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	conn *ServerConn `json:"-"`
}

// Message type constants.
const (
	MessageTypeOpen   = "open"
	MessageTypeSignal = "signal"

	MessageTypeOpened = "opened"
	MessageTypeError  = "error"
)

// Error codes carried in ErrorPayload.Code.
const (
	CodeUnavailableID   = "unavailable-id"
	CodePeerUnavailable = "peer-unavailable"
	CodeInvalidID       = "invalid-id"
	CodeNotOpen         = "not-open"
	CodeInvalidMessage  = "invalid-message"
)

// Signal kinds.
const (
	SignalOffer     = "offer"
	SignalAnswer    = "answer"
	SignalCandidate = "candidate"
)

// SignalPayload represents the WebRTC signaling data (SDP offer/answer or ICE candidate).
type SignalPayload struct {
	Kind      string          `json:"kind"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// ErrorPayload represents error messages from server.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServerError is an error reported by the signaling server.
type ServerError struct {
	Code         string
	Message      string
	Dst          string
	ConnectionID string
}

func (e *ServerError) Error() string {
	if e.Dst != "" {
		return fmt.Sprintf("signaling %s (%s): %s", e.Code, e.Dst, e.Message)
	}
	return fmt.Sprintf("signaling %s: %s", e.Code, e.Message)
}

// IsCode reports whether err is a ServerError with the given code.
func IsCode(err error, code string) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Code == code
}

// NewSignal builds a signal message addressed to dst.
func NewSignal(dst, connectionID string, payload SignalPayload) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal signal: %w", err)
	}
	return &Message{
		Type:         MessageTypeSignal,
		Dst:          dst,
		ConnectionID: connectionID,
		Payload:      raw,
	}, nil
}

func errorMessage(code, text string) *Message {
	raw, _ := json.Marshal(ErrorPayload{Code: code, Message: text})
	return &Message{Type: MessageTypeError, Payload: raw}
}
