// Package relay implements the out-of-band signaling bus that brokers a
// PairDesk session: a small WebSocket server that groups exactly two
// participants per room code and forwards opaque SDP/ICE blobs between
// them, plus the client connection used by the application.
package relay

// Message types exchanged over the relay.
const (
	TypeJoinRoom         = "join-room"         // enter a room by code
	TypeLeaveRoom        = "leave-room"        // leave the current room
	TypeOffer            = "offer"             // SDP offer
	TypeAnswer           = "answer"            // SDP answer
	TypeICECandidate     = "ice-candidate"     // ICE candidate description
	TypeUserConnected    = "user-connected"    // peer joined the room
	TypeUserDisconnected = "user-disconnected" // peer left the room
	TypeStreamInfo       = "stream-info"       // host screen geometry
	TypeError            = "error"             // relay-reported failure
)

// Message is a signaling message routed through the relay. SDP and
// Candidate payloads are opaque to the relay; it only looks at Type and
// Room.
type Message struct {
	Type      string `json:"type"`
	Room      string `json:"room,omitempty"`      // room code
	SDP       string `json:"sdp,omitempty"`       // SDP offer/answer body
	Candidate string `json:"candidate,omitempty"` // ICE candidate JSON
	Error     string `json:"error,omitempty"`     // error message
	Width     int    `json:"width,omitempty"`     // stream-info: native width
	Height    int    `json:"height,omitempty"`    // stream-info: native height
}
