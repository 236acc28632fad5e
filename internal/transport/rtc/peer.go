package rtc

import (
	"encoding/json"
	"fmt"

	"github.com/BioHazard786/eggcombat/internal/config"
	"github.com/BioHazard786/eggcombat/internal/signaling"
	"github.com/BioHazard786/eggcombat/internal/utils"
	pion "github.com/pion/webrtc/v4"
)

// ChannelLabel names the single game data channel.
const ChannelLabel = "eggcombat"

// highWaterMark bounds queued bytes per channel. Past it a Conn reports
// congestion and callers skip moves; a newer sample is always one tick away.
const highWaterMark = 256 * 1024

// ICEConfiguration builds the pion configuration from STUN/TURN settings.
func ICEConfiguration(cfg *config.Config) pion.Configuration {
	var iceServers []pion.ICEServer
	if stun := cfg.GetSTUNServers(); stun != nil {
		iceServers = append(iceServers, pion.ICEServer{URLs: stun})
	}

	turnServers := cfg.GetTURNServers()
	if turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := pion.ICETransportPolicyAll
	if turnServers != nil && (cfg.ForceRelay || utils.ShouldForceRelay()) {
		policy = pion.ICETransportPolicyRelay
	}

	return pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	}
}

func newPeerConnection(api *pion.API, cfg pion.Configuration) (*pion.PeerConnection, error) {
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return pc, nil
}

// createDataChannel opens the reliable, ordered game channel.
func createDataChannel(pc *pion.PeerConnection) (*pion.DataChannel, error) {
	ordered := true
	dc, err := pc.CreateDataChannel(ChannelLabel, &pion.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, fmt.Errorf("create data channel: %w", err)
	}
	return dc, nil
}

func createOffer(pc *pion.PeerConnection) (*pion.SessionDescription, error) {
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	if err = pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return pc.LocalDescription(), nil
}

func createAnswer(pc *pion.PeerConnection, sdp string) (*pion.SessionDescription, error) {
	offer := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: sdp}
	if err := pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	if err = pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}
	return pc.LocalDescription(), nil
}

// sdpSignal wraps a local description for the signaling server.
func sdpSignal(desc *pion.SessionDescription) signaling.SignalPayload {
	kind := signaling.SignalOffer
	if desc.Type == pion.SDPTypeAnswer {
		kind = signaling.SignalAnswer
	}
	return signaling.SignalPayload{Kind: kind, SDP: desc.SDP}
}

func candidateSignal(c *pion.ICECandidate) (signaling.SignalPayload, error) {
	raw, err := json.Marshal(c.ToJSON())
	if err != nil {
		return signaling.SignalPayload{}, fmt.Errorf("marshal ICE candidate: %w", err)
	}
	return signaling.SignalPayload{Kind: signaling.SignalCandidate, Candidate: raw}, nil
}

func parseCandidate(raw json.RawMessage) (pion.ICECandidateInit, error) {
	var ice pion.ICECandidateInit
	if err := json.Unmarshal(raw, &ice); err != nil {
		return ice, fmt.Errorf("parse ICE candidate: %w", err)
	}
	return ice, nil
}
