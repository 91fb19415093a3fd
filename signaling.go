package main

import (
	"log"
	"sync"

	"github.com/pion/webrtc/v3"
	"github.com/tomaslejdung/pairdesk/pkg/relay"
)

// EventKind classifies session-level outcomes surfaced to the UI
type EventKind int

const (
	// EventConnected fires when the negotiation completes and the
	// session should move to the active view.
	EventConnected EventKind = iota
	// EventPeerDisconnected fires on a user-disconnected relay notice.
	EventPeerDisconnected
	// EventStreamInfo carries the host's native screen geometry.
	EventStreamInfo
	// EventError carries a relay-reported failure (e.g. room full).
	EventError
	// EventRelayClosed fires when the relay connection drops.
	EventRelayClosed
)

// SessionEvent is delivered to the lifecycle controller's event loop
type SessionEvent struct {
	Kind   EventKind
	Err    string
	Width  int
	Height int
}

// Machine owns the offer/answer/rollback protocol for one connection
// attempt. Relay messages are consumed one at a time by Run; the mutex
// keeps direct calls from the UI serialized against that loop, so no
// two signaling operations ever execute concurrently.
type Machine struct {
	mu        sync.Mutex
	session   *Session
	sender    relay.Sender
	iceConfig ICEConfig

	// newPeer is swappable so the machine can be driven against a fake
	// peer connection.
	newPeer func(ICEConfig) (Peer, error)

	// evMu guards events against emission after Stop closed it; emit
	// runs on pion callback goroutines that outlive the machine.
	evMu     sync.Mutex
	evClosed bool
	events   chan SessionEvent

	done chan struct{}

	// onChannel is invoked when the remote side opens the control
	// channel (client role).
	onChannel func(dc *webrtc.DataChannel)

	// Host screen geometry announced to the client on user-connected.
	streamWidth  int
	streamHeight int
}

// NewMachine creates a signaling machine bound to a session and a relay
// sender. Events surface on the returned machine's Events channel.
func NewMachine(session *Session, sender relay.Sender, iceConfig ICEConfig) *Machine {
	return &Machine{
		session:   session,
		sender:    sender,
		iceConfig: iceConfig,
		newPeer:   NewPeer,
		events:    make(chan SessionEvent, 16),
		done:      make(chan struct{}),
	}
}

// Events returns the channel of session-level outcomes
func (m *Machine) Events() <-chan SessionEvent {
	return m.events
}

// Stop terminates the dispatch loop and closes the events channel so a
// pending event wait returns. Idempotent.
func (m *Machine) Stop() {
	m.mu.Lock()
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	m.mu.Unlock()

	m.evMu.Lock()
	if !m.evClosed {
		m.evClosed = true
		close(m.events)
	}
	m.evMu.Unlock()
}

func (m *Machine) emit(ev SessionEvent) {
	m.evMu.Lock()
	defer m.evMu.Unlock()
	if m.evClosed {
		return
	}
	select {
	case m.events <- ev:
	default:
		// UI is not draining; drop rather than block signaling
		log.Printf("Dropping session event %d: event buffer full", ev.Kind)
	}
}

// CreatePeerConnection discards any prior peer connection and allocates
// a fresh one wired to forward discovered ICE candidates to the relay,
// tagged with the current room id.
func (m *Machine) CreatePeerConnection() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createPeerLocked()
}

func (m *Machine) createPeerLocked() error {
	if prior := m.session.Peer(); prior != nil {
		prior.Close()
	}

	peer, err := m.newPeer(m.iceConfig)
	if err != nil {
		return err
	}

	peer.OnICECandidate(func(candidate webrtc.ICECandidateInit) {
		payload, err := marshalCandidate(candidate)
		if err != nil {
			log.Printf("Failed to encode ICE candidate: %v", err)
			return
		}
		if err := m.sender.Send(relay.Message{
			Type:      relay.TypeICECandidate,
			Room:      m.session.Room(),
			Candidate: payload,
		}); err != nil {
			log.Printf("Failed to forward ICE candidate: %v", err)
		}
	})

	peer.OnDataChannel(func(dc *webrtc.DataChannel) {
		m.session.setChannel(dc)
		if m.onChannel != nil {
			m.onChannel(dc)
		}
	})

	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if state == webrtc.PeerConnectionStateConnected {
			m.emit(SessionEvent{Kind: EventConnected})
		}
	})

	m.session.setPeer(peer)
	return nil
}

// StartHosting prepares the host side of an attempt: fresh peer
// connection carrying the shared media track, a "control" data channel
// whose messages feed onControl, and a join-room emission.
func (m *Machine) StartHosting(roomID string, media *Media, onControl func(data []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session.setIdentity(RoleHost, roomID)
	m.session.setMedia(media)

	if err := m.createPeerLocked(); err != nil {
		return err
	}

	peer := m.session.Peer()
	if media != nil && media.Track != nil {
		if err := peer.AddTrack(media.Track); err != nil {
			return err
		}
		m.streamWidth = media.Width
		m.streamHeight = media.Height
	}

	dc, err := peer.CreateDataChannel("control")
	if err != nil {
		return err
	}
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		onControl(msg.Data)
	})
	m.session.setChannel(dc)

	return m.sender.Send(relay.Message{Type: relay.TypeJoinRoom, Room: roomID})
}

// StartJoining prepares the client side: fresh peer connection waiting
// for the host's offer and control channel, and a join-room emission.
func (m *Machine) StartJoining(roomID string, onChannel func(dc *webrtc.DataChannel)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session.setIdentity(RoleClient, roomID)
	m.onChannel = onChannel

	if err := m.createPeerLocked(); err != nil {
		return err
	}

	return m.sender.Send(relay.Message{Type: relay.TypeJoinRoom, Room: roomID})
}

// LeaveRoom announces departure from the current room
func (m *Machine) LeaveRoom() {
	m.mu.Lock()
	defer m.mu.Unlock()
	room := m.session.Room()
	if room == "" {
		return
	}
	if err := m.sender.Send(relay.Message{Type: relay.TypeLeaveRoom, Room: room}); err != nil {
		log.Printf("Failed to send leave-room: %v", err)
	}
}

// InitiateOffer creates and emits a local offer. Only valid when the
// signaling state is stable or closed; a closed connection is recreated
// first.
func (m *Machine) InitiateOffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initiateOfferLocked()
}

func (m *Machine) initiateOfferLocked() error {
	peer := m.session.Peer()
	if peer == nil || peer.SignalingState() == webrtc.SignalingStateClosed {
		if err := m.createPeerLocked(); err != nil {
			return err
		}
		peer = m.session.Peer()
	} else if peer.SignalingState() != webrtc.SignalingStateStable {
		// An offer is already outstanding; glare is resolved by
		// HandleOffer's rollback path, not by offering again.
		return nil
	}

	offer, err := peer.CreateOffer()
	if err != nil {
		return err
	}
	if err := peer.SetLocalDescription(offer); err != nil {
		return err
	}

	return m.sender.Send(relay.Message{
		Type: relay.TypeOffer,
		Room: m.session.Room(),
		SDP:  offer.SDP,
	})
}

// HandleOffer applies an incoming remote offer, rolling back a pending
// local offer if both sides offered at once, then answers and drains
// the candidate queue.
func (m *Machine) HandleOffer(sdp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	peer := m.session.Peer()
	if peer == nil {
		if err := m.createPeerLocked(); err != nil {
			return err
		}
		peer = m.session.Peer()
	}
	if peer.SignalingState() == webrtc.SignalingStateClosed {
		// Peer already torn down; the offer is moot.
		return nil
	}

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}

	if peer.SignalingState() != webrtc.SignalingStateStable {
		// Glare: this side also has an offer outstanding. Yield to the
		// incoming offer by rolling back the local one.
		if err := peer.Rollback(); err != nil {
			return err
		}
	}
	if err := peer.SetRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := peer.CreateAnswer()
	if err != nil {
		return err
	}
	if err := peer.SetLocalDescription(answer); err != nil {
		return err
	}

	m.session.queue.Drain(peer)

	return m.sender.Send(relay.Message{
		Type: relay.TypeAnswer,
		Room: m.session.Room(),
		SDP:  answer.SDP,
	})
}

// HandleAnswer applies an incoming answer. Stale or duplicate answers
// (connection closed, or no local offer outstanding) are ignored.
func (m *Machine) HandleAnswer(sdp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	peer := m.session.Peer()
	if peer == nil || peer.SignalingState() == webrtc.SignalingStateClosed {
		return nil
	}
	if peer.SignalingState() != webrtc.SignalingStateHaveLocalOffer {
		return nil
	}

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}
	if err := peer.SetRemoteDescription(answer); err != nil {
		return err
	}

	m.session.queue.Drain(peer)
	m.emit(SessionEvent{Kind: EventConnected})
	return nil
}

// HandleCandidate applies a candidate immediately when a remote
// description exists, otherwise queues it for a later drain. Malformed
// candidates are logged and dropped, never fatal.
func (m *Machine) HandleCandidate(payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidate, err := unmarshalCandidate(payload)
	if err != nil {
		log.Printf("Dropping malformed ICE candidate: %v", err)
		return
	}

	peer := m.session.Peer()
	if peer != nil && peer.SignalingState() == webrtc.SignalingStateClosed {
		return
	}
	if peer != nil && peer.HasRemoteDescription() {
		if err := peer.AddICECandidate(candidate); err != nil {
			log.Printf("Failed to apply ICE candidate: %v", err)
		}
		return
	}

	m.session.queue.Enqueue(candidate)
}

// Run consumes relay messages until the channel closes or Stop is
// called. Events are processed strictly one at a time.
func (m *Machine) Run(msgs <-chan relay.Message) {
	for {
		select {
		case <-m.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				m.emit(SessionEvent{Kind: EventRelayClosed})
				return
			}
			m.dispatch(msg)
		}
	}
}

func (m *Machine) dispatch(msg relay.Message) {
	switch msg.Type {
	case relay.TypeUserConnected:
		m.handleUserConnected()
	case relay.TypeOffer:
		if err := m.HandleOffer(msg.SDP); err != nil {
			log.Printf("Failed to handle offer: %v", err)
		}
	case relay.TypeAnswer:
		if err := m.HandleAnswer(msg.SDP); err != nil {
			log.Printf("Failed to handle answer: %v", err)
		}
	case relay.TypeICECandidate:
		m.HandleCandidate(msg.Candidate)
	case relay.TypeStreamInfo:
		m.session.setMediaSize(msg.Width, msg.Height)
		m.emit(SessionEvent{Kind: EventStreamInfo, Width: msg.Width, Height: msg.Height})
	case relay.TypeUserDisconnected:
		m.emit(SessionEvent{Kind: EventPeerDisconnected})
	case relay.TypeError:
		m.emit(SessionEvent{Kind: EventError, Err: msg.Error})
	default:
		log.Printf("Unknown relay message type: %s", msg.Type)
	}
}

// handleUserConnected reacts to the peer joining the room. The host
// announces its screen geometry and, when the connection is quiescent,
// opens negotiation.
func (m *Machine) handleUserConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.Role() != RoleHost {
		return
	}

	if m.streamWidth > 0 && m.streamHeight > 0 {
		if err := m.sender.Send(relay.Message{
			Type:   relay.TypeStreamInfo,
			Room:   m.session.Room(),
			Width:  m.streamWidth,
			Height: m.streamHeight,
		}); err != nil {
			log.Printf("Failed to send stream-info: %v", err)
		}
	}

	peer := m.session.Peer()
	if peer == nil {
		return
	}
	state := peer.SignalingState()
	if state != webrtc.SignalingStateStable && state != webrtc.SignalingStateClosed {
		return
	}
	if err := m.initiateOfferLocked(); err != nil {
		log.Printf("Failed to create offer: %v", err)
	}
}
