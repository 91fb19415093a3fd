package relay

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

// maxRoomMembers caps a room at one host and one client.
const maxRoomMembers = 2

func encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// readPump reads messages from the WebSocket
func (c *Client) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

// writePump sends messages to the WebSocket
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
}

// handleMessage processes an incoming relay message
func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case TypeJoinRoom:
		c.handleJoin(msg)
	case TypeLeaveRoom:
		c.server.removeClient(c)
	case TypeOffer, TypeAnswer, TypeICECandidate, TypeStreamInfo:
		c.forwardToPeer(msg)
	default:
		log.Printf("Unknown message type: %s", msg.Type)
	}
}

// handleJoin adds the client to the requested room. The room code is not
// checked for collisions; the two-member cap is the only admission rule,
// so a duplicate code simply makes the second host's join fail.
func (c *Client) handleJoin(msg Message) {
	if msg.Room == "" {
		return
	}

	room := c.server.getOrCreateRoom(msg.Room)

	room.mu.Lock()
	if len(room.members) >= maxRoomMembers && !room.members[c] {
		room.mu.Unlock()
		data, _ := encode(Message{Type: TypeError, Room: msg.Room, Error: "room full"})
		select {
		case c.send <- data:
		default:
		}
		return
	}

	c.room = msg.Room
	room.members[c] = true
	count := len(room.members)

	// Tell the participant that was already waiting
	room.sendExcept(c, Message{Type: TypeUserConnected, Room: room.code})
	room.mu.Unlock()

	log.Printf("Client %s joined room %s (members: %d)", c.id, room.code, count)
}

// forwardToPeer relays a message to the other participant in the room
func (c *Client) forwardToPeer(msg Message) {
	c.server.mu.RLock()
	room, exists := c.server.rooms[c.room]
	c.server.mu.RUnlock()

	if !exists {
		return
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	room.sendExcept(c, msg)
}
