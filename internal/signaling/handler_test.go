package signaling

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	msg := errorMessage(CodePeerUnavailable, "no such peer")
	msg.Dst = "eggcombat-NONE"
	msg.ConnectionID = "conn-1"

	// Round trip through JSON the way the client sees it.
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	var got Message
	require.NoError(t, json.Unmarshal(raw, &got))

	se := parseError(&got)
	assert.Equal(t, CodePeerUnavailable, se.Code)
	assert.Equal(t, "no such peer", se.Message)
	assert.Equal(t, "eggcombat-NONE", se.Dst)
	assert.Equal(t, "conn-1", se.ConnectionID)

	wrapped := errors.Join(errors.New("context"), se)
	assert.True(t, IsCode(wrapped, CodePeerUnavailable))
	assert.False(t, IsCode(wrapped, CodeUnavailableID))
}

func TestParseError_EmptyPayload(t *testing.T) {
	se := parseError(&Message{Type: MessageTypeError})
	assert.Equal(t, "unknown", se.Code)
	assert.NotEmpty(t, se.Message)
}

func TestNewSignal_DecodeSignal(t *testing.T) {
	msg, err := NewSignal("eggcombat-B7XQ", "conn-1", SignalPayload{
		Kind:      SignalCandidate,
		Candidate: json.RawMessage(`{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeSignal, msg.Type)
	assert.Equal(t, "eggcombat-B7XQ", msg.Dst)

	payload, err := DecodeSignal(msg)
	require.NoError(t, err)
	assert.Equal(t, SignalCandidate, payload.Kind)
	assert.JSONEq(t, `{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host"}`, string(payload.Candidate))
}
