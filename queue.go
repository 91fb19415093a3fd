package main

import (
	"log"
	"sync"

	"github.com/pion/webrtc/v3"
)

// candidateQueue buffers ICE candidates that arrive before the remote
// session description is set. Candidates are replayed strictly in
// arrival order once the peer is ready; the queue never outlives the
// session. The queue carries its own lock because teardown clears it
// from the UI goroutine while the signaling loop may still be feeding
// it.
type candidateQueue struct {
	mu      sync.Mutex
	entries []webrtc.ICECandidateInit
}

// Enqueue appends a candidate in arrival order
func (q *candidateQueue) Enqueue(candidate webrtc.ICECandidateInit) {
	q.mu.Lock()
	q.entries = append(q.entries, candidate)
	q.mu.Unlock()
}

// Len returns the number of buffered candidates
func (q *candidateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear drops all buffered candidates
func (q *candidateQueue) Clear() {
	q.mu.Lock()
	q.entries = nil
	q.mu.Unlock()
}

// Drain applies buffered candidates to the peer in FIFO order. It
// returns immediately, consuming nothing, unless the peer exists, is not
// closed, and has a remote description. A candidate that fails to apply
// is logged and skipped; the drain moves on to the next entry.
func (q *candidateQueue) Drain(peer Peer) {
	if peer == nil || peer.SignalingState() == webrtc.SignalingStateClosed {
		return
	}
	if !peer.HasRemoteDescription() {
		return
	}

	for {
		q.mu.Lock()
		if len(q.entries) == 0 {
			q.mu.Unlock()
			return
		}
		candidate := q.entries[0]
		q.entries = q.entries[1:]
		q.mu.Unlock()

		if err := peer.AddICECandidate(candidate); err != nil {
			log.Printf("Failed to apply queued ICE candidate: %v", err)
		}
	}
}
