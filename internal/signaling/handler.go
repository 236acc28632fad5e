package signaling

import (
	"encoding/json"
	"log/slog"
)

// Handler routes incoming signaling messages to appropriate channels.
type Handler struct {
	client *Client
	log    *slog.Logger

	// Opened receives the identity assigned by the server.
	Opened chan string

	// Signal receives relayed offers, answers and candidates.
	Signal chan *Message

	// Errors receives *ServerError values.
	Errors chan error

	// Lost is closed when the server connection drops.
	Lost chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		client: client,
		log:    log,
		Opened: make(chan string, 1),
		Signal: make(chan *Message, 64),
		Errors: make(chan error, 8),
		Lost:   make(chan struct{}),
	}
}

// Start begins listening to incoming messages and routing them.
// It returns once the client's incoming channel closes.
func (h *Handler) Start() {
	defer close(h.Lost)

	for msg := range h.client.Incoming() {
		switch msg.Type {
		case MessageTypeOpened:
			select {
			case h.Opened <- msg.Src:
			case <-h.client.done:
				return
			}

		case MessageTypeSignal:
			select {
			case h.Signal <- msg:
			case <-h.client.done:
				return
			}

		case MessageTypeError:
			select {
			case h.Errors <- parseError(msg):
			case <-h.client.done:
				return
			}

		default:
			h.log.Debug("ignoring signaling message", "type", msg.Type)
		}
	}
}

// parseError extracts the error payload, falling back to a generic error.
func parseError(msg *Message) *ServerError {
	se := &ServerError{
		Code:         "unknown",
		Message:      "unknown error from server",
		Dst:          msg.Dst,
		ConnectionID: msg.ConnectionID,
	}

	var payload ErrorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err == nil {
		if payload.Code != "" {
			se.Code = payload.Code
		}
		if payload.Message != "" {
			se.Message = payload.Message
		}
	}
	return se
}

// DecodeSignal parses the payload of a signal message.
func DecodeSignal(msg *Message) (*SignalPayload, error) {
	var payload SignalPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
