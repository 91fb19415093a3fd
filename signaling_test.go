package main

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomaslejdung/pairdesk/pkg/relay"
)

// fakePeer is a scripted Peer tracking the signaling state transitions
// the machine drives it through.
type fakePeer struct {
	state     webrtc.SignalingState
	remoteSet bool

	rollbacks  int
	offers     int
	answers    int
	closes     int
	candidates []webrtc.ICECandidateInit

	// failCandidate makes AddICECandidate error for a matching candidate
	failCandidate string

	onICE   func(webrtc.ICECandidateInit)
	onState func(webrtc.PeerConnectionState)
}

func newFakePeer() *fakePeer {
	return &fakePeer{state: webrtc.SignalingStateStable}
}

func (p *fakePeer) SignalingState() webrtc.SignalingState { return p.state }

func (p *fakePeer) CreateOffer() (webrtc.SessionDescription, error) {
	p.offers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: fmt.Sprintf("offer-%d", p.offers)}, nil
}

func (p *fakePeer) CreateAnswer() (webrtc.SessionDescription, error) {
	p.answers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: fmt.Sprintf("answer-%d", p.answers)}, nil
}

func (p *fakePeer) SetLocalDescription(desc webrtc.SessionDescription) error {
	switch desc.Type {
	case webrtc.SDPTypeOffer:
		p.state = webrtc.SignalingStateHaveLocalOffer
	case webrtc.SDPTypeAnswer:
		p.state = webrtc.SignalingStateStable
	}
	return nil
}

func (p *fakePeer) SetRemoteDescription(desc webrtc.SessionDescription) error {
	p.remoteSet = true
	switch desc.Type {
	case webrtc.SDPTypeOffer:
		p.state = webrtc.SignalingStateHaveRemoteOffer
	case webrtc.SDPTypeAnswer:
		p.state = webrtc.SignalingStateStable
	}
	return nil
}

func (p *fakePeer) Rollback() error {
	p.rollbacks++
	p.state = webrtc.SignalingStateStable
	return nil
}

func (p *fakePeer) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	if p.failCandidate != "" && candidate.Candidate == p.failCandidate {
		return fmt.Errorf("candidate rejected")
	}
	p.candidates = append(p.candidates, candidate)
	return nil
}

func (p *fakePeer) HasRemoteDescription() bool { return p.remoteSet }

func (p *fakePeer) CreateDataChannel(label string) (*webrtc.DataChannel, error) {
	return nil, fmt.Errorf("not supported by fake peer")
}

func (p *fakePeer) OnICECandidate(fn func(webrtc.ICECandidateInit))             { p.onICE = fn }
func (p *fakePeer) OnDataChannel(fn func(*webrtc.DataChannel))                  {}
func (p *fakePeer) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) { p.onState = fn }
func (p *fakePeer) AddTrack(track webrtc.TrackLocal) error                      { return nil }

func (p *fakePeer) Close() error {
	p.closes++
	p.state = webrtc.SignalingStateClosed
	return nil
}

// fakeSender records everything sent toward the relay
type fakeSender struct {
	mu       sync.Mutex
	messages []relay.Message
}

func (s *fakeSender) Send(msg relay.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeSender) sent() []relay.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]relay.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *fakeSender) typesSent() []string {
	var types []string
	for _, msg := range s.sent() {
		types = append(types, msg.Type)
	}
	return types
}

func newTestMachine(t *testing.T) (*Machine, *fakePeer, *fakeSender) {
	t.Helper()
	peer := newFakePeer()
	sender := &fakeSender{}
	machine := NewMachine(NewSession(), sender, ICEConfig{})
	machine.newPeer = func(ICEConfig) (Peer, error) { return peer, nil }
	return machine, peer, sender
}

func TestStartJoiningCreatesPeerAndJoinsRoom(t *testing.T) {
	machine, peer, sender := newTestMachine(t)

	require.NoError(t, machine.StartJoining("123456", nil))

	assert.Same(t, Peer(peer), machine.session.Peer())
	assert.Equal(t, RoleClient, machine.session.Role())
	assert.Equal(t, []string{relay.TypeJoinRoom}, sender.typesSent())
	assert.Equal(t, "123456", sender.sent()[0].Room)
}

func TestInitiateOfferEmitsOffer(t *testing.T) {
	machine, peer, sender := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))

	require.NoError(t, machine.InitiateOffer())

	assert.Equal(t, webrtc.SignalingStateHaveLocalOffer, peer.SignalingState())
	assert.Equal(t, []string{relay.TypeJoinRoom, relay.TypeOffer}, sender.typesSent())
}

func TestInitiateOfferIsNoopWhileOfferOutstanding(t *testing.T) {
	machine, peer, sender := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))
	require.NoError(t, machine.InitiateOffer())

	// A second initiation must not stack another offer
	require.NoError(t, machine.InitiateOffer())

	assert.Equal(t, 1, peer.offers)
	assert.Equal(t, []string{relay.TypeJoinRoom, relay.TypeOffer}, sender.typesSent())
}

func TestGlareRollsBackLocalOffer(t *testing.T) {
	machine, peer, sender := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))
	require.NoError(t, machine.InitiateOffer())

	// The remote side offered at the same time; yield to its offer.
	require.NoError(t, machine.HandleOffer("remote-offer"))

	assert.Equal(t, 1, peer.rollbacks)
	assert.True(t, peer.remoteSet)
	assert.Equal(t, 1, peer.answers)
	assert.Equal(t, []string{relay.TypeJoinRoom, relay.TypeOffer, relay.TypeAnswer}, sender.typesSent())
}

func TestHandleOfferFromStableAnswersWithoutRollback(t *testing.T) {
	machine, peer, sender := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))

	require.NoError(t, machine.HandleOffer("remote-offer"))

	assert.Zero(t, peer.rollbacks)
	assert.Equal(t, []string{relay.TypeJoinRoom, relay.TypeAnswer}, sender.typesSent())
	assert.Equal(t, webrtc.SignalingStateStable, peer.SignalingState())
}

func TestHandleOfferAfterCloseIsIgnored(t *testing.T) {
	machine, peer, sender := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))
	peer.Close()

	require.NoError(t, machine.HandleOffer("remote-offer"))

	assert.False(t, peer.remoteSet)
	assert.Equal(t, []string{relay.TypeJoinRoom}, sender.typesSent())
}

func TestHandleAnswerCompletesNegotiation(t *testing.T) {
	machine, peer, _ := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))
	require.NoError(t, machine.InitiateOffer())

	require.NoError(t, machine.HandleAnswer("remote-answer"))

	assert.True(t, peer.remoteSet)
	assert.Equal(t, webrtc.SignalingStateStable, peer.SignalingState())

	select {
	case ev := <-machine.Events():
		assert.Equal(t, EventConnected, ev.Kind)
	default:
		t.Fatal("expected a connected event")
	}
}

func TestStaleAnswerIsIgnored(t *testing.T) {
	machine, peer, _ := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))

	// No local offer outstanding: the answer must be dropped silently
	require.NoError(t, machine.HandleAnswer("stale-answer"))

	assert.False(t, peer.remoteSet)
	select {
	case <-machine.Events():
		t.Fatal("no event expected for a stale answer")
	default:
	}
}

func TestCandidateQueuedUntilRemoteDescription(t *testing.T) {
	machine, peer, _ := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))

	payload, err := marshalCandidate(webrtc.ICECandidateInit{Candidate: "cand-early"})
	require.NoError(t, err)
	machine.HandleCandidate(payload)

	assert.Empty(t, peer.candidates)
	assert.Equal(t, 1, machine.session.queue.Len())

	// The offer arrives; the queued candidate must drain exactly once
	require.NoError(t, machine.HandleOffer("remote-offer"))

	require.Len(t, peer.candidates, 1)
	assert.Equal(t, "cand-early", peer.candidates[0].Candidate)
	assert.Zero(t, machine.session.queue.Len())
}

func TestCandidateAppliedDirectlyWithRemoteDescription(t *testing.T) {
	machine, peer, _ := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))
	require.NoError(t, machine.HandleOffer("remote-offer"))

	payload, err := marshalCandidate(webrtc.ICECandidateInit{Candidate: "cand-late"})
	require.NoError(t, err)
	machine.HandleCandidate(payload)

	require.Len(t, peer.candidates, 1)
	assert.Equal(t, "cand-late", peer.candidates[0].Candidate)
	assert.Zero(t, machine.session.queue.Len())
}

func TestMalformedCandidateIsDropped(t *testing.T) {
	machine, peer, _ := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))

	machine.HandleCandidate("{not json")

	assert.Empty(t, peer.candidates)
	assert.Zero(t, machine.session.queue.Len())
}

func TestUserConnectedTriggersHostNegotiation(t *testing.T) {
	machine, _, sender := newTestMachine(t)
	machine.session.setIdentity(RoleHost, "654321")
	machine.streamWidth = 2560
	machine.streamHeight = 1440
	require.NoError(t, machine.CreatePeerConnection())

	machine.dispatch(relay.Message{Type: relay.TypeUserConnected, Room: "654321"})

	types := sender.typesSent()
	require.Equal(t, []string{relay.TypeStreamInfo, relay.TypeOffer}, types)
	info := sender.sent()[0]
	assert.Equal(t, 2560, info.Width)
	assert.Equal(t, 1440, info.Height)
}

func TestUserConnectedIsIgnoredByClient(t *testing.T) {
	machine, peer, sender := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))

	machine.dispatch(relay.Message{Type: relay.TypeUserConnected, Room: "123456"})

	assert.Zero(t, peer.offers)
	assert.Equal(t, []string{relay.TypeJoinRoom}, sender.typesSent())
}

func TestStreamInfoSurfacesGeometry(t *testing.T) {
	machine, _, _ := newTestMachine(t)

	machine.dispatch(relay.Message{Type: relay.TypeStreamInfo, Width: 1920, Height: 1080})

	width, height := machine.session.MediaSize()
	assert.Equal(t, 1920, width)
	assert.Equal(t, 1080, height)
	select {
	case ev := <-machine.Events():
		assert.Equal(t, EventStreamInfo, ev.Kind)
		assert.Equal(t, 1920, ev.Width)
		assert.Equal(t, 1080, ev.Height)
	default:
		t.Fatal("expected a stream-info event")
	}
}

func TestRunSurfacesRelayClose(t *testing.T) {
	machine, _, _ := newTestMachine(t)

	msgs := make(chan relay.Message)
	close(msgs)

	done := make(chan struct{})
	go func() {
		machine.Run(msgs)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return on a closed relay channel")
	}

	select {
	case ev := <-machine.Events():
		assert.Equal(t, EventRelayClosed, ev.Kind)
	default:
		t.Fatal("expected a relay-closed event")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	machine, _, _ := newTestMachine(t)
	machine.Stop()
	machine.Stop()
}

func TestStopClosesEventsChannel(t *testing.T) {
	machine, _, _ := newTestMachine(t)
	machine.Stop()

	select {
	case _, ok := <-machine.Events():
		assert.False(t, ok, "events channel must be closed after Stop")
	case <-time.After(time.Second):
		t.Fatal("event wait did not return after Stop")
	}
}

func TestEmitAfterStopIsSilent(t *testing.T) {
	machine, _, _ := newTestMachine(t)
	machine.Stop()

	// A late connection-state callback must not send on the closed channel
	machine.emit(SessionEvent{Kind: EventConnected})
}

func TestEmitNeverBlocksWhenSaturated(t *testing.T) {
	machine, _, _ := newTestMachine(t)

	for i := 0; i < cap(machine.events)+4; i++ {
		machine.emit(SessionEvent{Kind: EventStreamInfo})
	}

	assert.Len(t, machine.events, cap(machine.events))
}

func TestCandidateCallbackDuringTeardown(t *testing.T) {
	machine, peer, _ := newTestMachine(t)
	require.NoError(t, machine.StartJoining("123456", nil))
	require.NotNil(t, peer.onICE)

	// The discovery callback runs on its own goroutine and may race the
	// UI tearing the session down; both sides must stay safe.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			peer.onICE(webrtc.ICECandidateInit{Candidate: "cand"})
		}
	}()
	go func() {
		defer wg.Done()
		machine.session.Teardown()
	}()
	wg.Wait()
}
