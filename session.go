package main

import (
	"sync"

	"github.com/pion/webrtc/v3"
)

// Role identifies which side of the session this process plays
type Role string

const (
	RoleNone   Role = ""
	RoleHost   Role = "host"
	RoleClient Role = "client"
)

// Session is the aggregate owning all per-attempt connection state: the
// role, the room id, the single peer connection and data channel, the
// candidate queue and the pointer sampler. One instance exists per
// connection attempt; teardown resets it as a whole rather than
// piecemeal. All fields are read and written under the session mutex:
// pion callbacks touch them from their own goroutines while the UI
// tears the session down.
type Session struct {
	mu sync.Mutex

	role   Role
	roomID string

	// Remote media geometry, learned from the host's stream-info
	mediaWidth  int
	mediaHeight int

	peer    Peer
	channel *webrtc.DataChannel
	media   *Media
	sampler *MouseSampler
	queue   candidateQueue

	torndown bool
}

// NewSession creates an empty session aggregate
func NewSession() *Session {
	return &Session{}
}

// Role returns the side this process plays, or RoleNone
func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Room returns the current room id, or ""
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// MediaSize returns the remote media's native geometry
func (s *Session) MediaSize() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaWidth, s.mediaHeight
}

// Peer returns the current peer connection, or nil
func (s *Session) Peer() Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// Channel returns the control data channel, or nil
func (s *Session) Channel() *webrtc.DataChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *Session) setIdentity(role Role, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.role = role
	s.roomID = roomID
}

func (s *Session) setMediaSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaWidth = width
	s.mediaHeight = height
}

func (s *Session) setPeer(peer Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = peer
}

func (s *Session) setChannel(dc *webrtc.DataChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = dc
}

func (s *Session) setMedia(media *Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = media
}

func (s *Session) setSampler(sampler *MouseSampler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampler = sampler
}

// Teardown releases every resource the session owns, in order: pointer
// sampler, local media, data channel, peer connection, candidate queue,
// identifiers. Safe to invoke any number of times.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sampler != nil {
		s.sampler.Stop()
		s.sampler = nil
	}
	if s.media != nil {
		s.media.Stop()
		s.media = nil
	}
	if s.channel != nil {
		s.channel.Close()
		s.channel = nil
	}
	if s.peer != nil {
		s.peer.Close()
		s.peer = nil
	}
	s.queue.Clear()

	s.role = RoleNone
	s.roomID = ""
	s.mediaWidth = 0
	s.mediaHeight = 0
	s.torndown = true
}
