package relay

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client represents a connected WebSocket participant
type Client struct {
	id     string
	conn   *websocket.Conn
	room   string
	send   chan []byte
	server *Server
}

// Room holds the two participants of a session
type Room struct {
	code    string
	members map[*Client]bool
	mu      sync.RWMutex
}

// Server manages WebSocket connections and room routing
type Server struct {
	rooms    map[string]*Room
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// NewServer creates a new relay server
func NewServer() *Server {
	return &Server{
		rooms: make(map[string]*Room),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}
}

// getOrCreateRoom returns existing room or creates a new one
func (s *Server) getOrCreateRoom(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, exists := s.rooms[code]; exists {
		return room
	}

	room := &Room{
		code:    code,
		members: make(map[*Client]bool),
	}
	s.rooms[code] = room
	return room
}

// removeClient takes a client out of its room and notifies the peer
func (s *Server) removeClient(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, exists := s.rooms[client.room]
	if !exists {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if !room.members[client] {
		return
	}
	delete(room.members, client)
	log.Printf("Client %s left room %s", client.id, room.code)

	// Notify the remaining participant
	room.send(Message{Type: TypeUserDisconnected, Room: room.code})

	if len(room.members) == 0 {
		delete(s.rooms, client.room)
	}
}

// send marshals and delivers a message to every member of the room.
// Callers must hold room.mu.
func (r *Room) send(msg Message) {
	data, err := encode(msg)
	if err != nil {
		return
	}
	for member := range r.members {
		select {
		case member.send <- data:
		default:
			// Member buffer full, skip
		}
	}
}

// sendExcept delivers a message to every member other than from.
// Callers must hold room.mu.
func (r *Room) sendExcept(from *Client, msg Message) {
	data, err := encode(msg)
	if err != nil {
		return
	}
	for member := range r.members {
		if member == from {
			continue
		}
		select {
		case member.send <- data:
		default:
		}
	}
}

// HandleWebSocket upgrades a relay connection. Room membership is
// established by a join-room message, not by the URL.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	go client.writePump()
	go client.readPump()
}

// StartServer starts the relay HTTP server
func (s *Server) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)

	log.Printf("Relay server starting on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// MemberCount returns the number of participants in a room
func (s *Server) MemberCount(code string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, exists := s.rooms[code]
	if !exists {
		return 0
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	return len(room.members)
}
