package main

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v3"
)

// ICE servers for NAT traversal
var defaultICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302"}},
	{URLs: []string{"stun:stun1.l.google.com:19302"}},
}

// ICEConfig holds ICE server configuration
type ICEConfig struct {
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// webrtcConfiguration builds the pion configuration for an ICEConfig
func webrtcConfiguration(iceConfig ICEConfig) webrtc.Configuration {
	iceServers := make([]webrtc.ICEServer, 0)

	if !iceConfig.ForceRelay {
		iceServers = append(iceServers, defaultICEServers...)
	}

	if iceConfig.TURNServer != "" {
		turnServer := webrtc.ICEServer{
			URLs: []string{iceConfig.TURNServer},
		}
		if iceConfig.TURNUser != "" {
			turnServer.Username = iceConfig.TURNUser
			turnServer.Credential = iceConfig.TURNPass
			turnServer.CredentialType = webrtc.ICECredentialTypePassword
		}
		iceServers = append(iceServers, turnServer)
	}

	iceTransportPolicy := webrtc.ICETransportPolicyAll
	if iceConfig.ForceRelay {
		iceTransportPolicy = webrtc.ICETransportPolicyRelay
	}

	return webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: iceTransportPolicy,
	}
}

// Peer is the narrow surface the signaling machine needs from a peer
// connection: current signaling state, description negotiation with a
// rollback variant, candidate application, and a data channel handle.
// Finer-grained internals of the underlying connection are off limits.
type Peer interface {
	SignalingState() webrtc.SignalingState
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error
	Rollback() error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	HasRemoteDescription() bool
	CreateDataChannel(label string) (*webrtc.DataChannel, error)
	OnICECandidate(fn func(candidate webrtc.ICECandidateInit))
	OnDataChannel(fn func(dc *webrtc.DataChannel))
	OnConnectionStateChange(fn func(state webrtc.PeerConnectionState))
	AddTrack(track webrtc.TrackLocal) error
	Close() error
}

// pionPeer implements Peer on a pion PeerConnection
type pionPeer struct {
	pc *webrtc.PeerConnection
}

// NewPeer allocates a peer connection configured for the given ICE setup
func NewPeer(iceConfig ICEConfig) (Peer, error) {
	pc, err := webrtc.NewPeerConnection(webrtcConfiguration(iceConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}
	return &pionPeer{pc: pc}, nil
}

func (p *pionPeer) SignalingState() webrtc.SignalingState {
	return p.pc.SignalingState()
}

func (p *pionPeer) CreateOffer() (webrtc.SessionDescription, error) {
	return p.pc.CreateOffer(nil)
}

func (p *pionPeer) CreateAnswer() (webrtc.SessionDescription, error) {
	return p.pc.CreateAnswer(nil)
}

func (p *pionPeer) SetLocalDescription(desc webrtc.SessionDescription) error {
	return p.pc.SetLocalDescription(desc)
}

func (p *pionPeer) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return p.pc.SetRemoteDescription(desc)
}

// Rollback discards a pending local offer so an incoming remote offer
// can be applied instead (glare resolution).
func (p *pionPeer) Rollback() error {
	return p.pc.SetLocalDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeRollback})
}

func (p *pionPeer) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return p.pc.AddICECandidate(candidate)
}

func (p *pionPeer) HasRemoteDescription() bool {
	return p.pc.RemoteDescription() != nil
}

func (p *pionPeer) CreateDataChannel(label string) (*webrtc.DataChannel, error) {
	return p.pc.CreateDataChannel(label, nil)
}

func (p *pionPeer) OnICECandidate(fn func(candidate webrtc.ICECandidateInit)) {
	p.pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		fn(candidate.ToJSON())
	})
}

func (p *pionPeer) OnDataChannel(fn func(dc *webrtc.DataChannel)) {
	p.pc.OnDataChannel(fn)
}

func (p *pionPeer) OnConnectionStateChange(fn func(state webrtc.PeerConnectionState)) {
	p.pc.OnConnectionStateChange(fn)
}

func (p *pionPeer) AddTrack(track webrtc.TrackLocal) error {
	_, err := p.pc.AddTrack(track)
	return err
}

func (p *pionPeer) Close() error {
	return p.pc.Close()
}

// marshalCandidate packs an ICE candidate for the relay
func marshalCandidate(candidate webrtc.ICECandidateInit) (string, error) {
	data, err := json.Marshal(candidate)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalCandidate parses an opaque candidate string from the relay
func unmarshalCandidate(payload string) (webrtc.ICECandidateInit, error) {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(payload), &candidate); err != nil {
		return webrtc.ICECandidateInit{}, fmt.Errorf("failed to parse ICE candidate: %w", err)
	}
	return candidate, nil
}
