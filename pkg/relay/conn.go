package relay

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Sender is the outbound half of a relay connection. The signaling state
// machine emits through this interface so it can be exercised without a
// network transport.
type Sender interface {
	Send(msg Message) error
}

// Conn is a client connection to a relay server. Incoming messages are
// decoded on a read loop and delivered on a channel; writes are
// serialized behind a mutex.
type Conn struct {
	conn         *websocket.Conn
	connMu       sync.Mutex
	msgChan      chan Message
	done         chan struct{}
	onDisconnect func()
	closed       bool
	closeMu      sync.Mutex
}

// Dial connects to a relay server at the given WebSocket URL.
func Dial(url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return NewConn(ws), nil
}

// NewConn wraps an established WebSocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	c := &Conn{
		conn:    ws,
		msgChan: make(chan Message, 100),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer func() {
		close(c.msgChan)
		c.closeMu.Lock()
		if c.onDisconnect != nil && !c.closed {
			c.onDisconnect()
		}
		c.closeMu.Unlock()
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			log.Printf("Relay read error: %v", err)
			return
		}
		select {
		case c.msgChan <- msg:
		case <-c.done:
			return
		}
	}
}

// Messages returns the channel of incoming relay messages. The channel
// is closed when the connection drops.
func (c *Conn) Messages() <-chan Message {
	return c.msgChan
}

// Send writes a message to the relay.
func (c *Conn) Send(msg Message) error {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()
	if closed {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// SetDisconnectHandler sets the callback for when the connection is lost
func (c *Conn) SetDisconnectHandler(handler func()) {
	c.closeMu.Lock()
	c.onDisconnect = handler
	c.closeMu.Unlock()
}

// Close shuts down the connection
func (c *Conn) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		c.conn.Close()
	}
}
