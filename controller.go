package main

import (
	"log"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
)

// controlSender is the slice of the data channel the client pipeline
// needs; *webrtc.DataChannel satisfies it.
type controlSender interface {
	Send(data []byte) error
	ReadyState() webrtc.DataChannelState
}

// modifierKeys are proactively released when the client window loses
// focus, so the host is never left with a stuck modifier.
var modifierKeys = []string{"Alt", "Control", "Shift", "Meta"}

// InputController is the client-side input pipeline: it maps pointer
// positions on the rendered surface to normalized screen percentages,
// rate-limits movement through the sampler, and ships control messages
// over the data channel. The host never instantiates one.
type InputController struct {
	mu      sync.Mutex
	mapper  Mapper
	channel controlSender
	sampler *MouseSampler
}

// NewInputController starts a pipeline sending on the given channel,
// sampling pointer movement at the given cadence.
func NewInputController(channel controlSender, sampleInterval time.Duration) *InputController {
	c := &InputController{channel: channel}
	c.sampler = NewMouseSampler(sampleInterval, c.transmitMove)
	return c
}

// SetViewport updates the rendered-surface geometry after a resize
func (c *InputController) SetViewport(bounds ViewportBounds) {
	c.mu.Lock()
	c.mapper.Bounds = bounds
	c.mu.Unlock()
}

// SetMediaSize records the source media's native dimensions
func (c *InputController) SetMediaSize(width, height int) {
	c.mu.Lock()
	c.mapper.MediaWidth = float64(width)
	c.mapper.MediaHeight = float64(height)
	c.mu.Unlock()
}

// MouseMoved records a pointer position for the next sampler tick
func (c *InputController) MouseMoved(x, y float64) {
	c.sampler.Record(x, y)
}

// transmitMove maps the latest sample and sends it. Positions in
// letterbox padding are dropped, never clamped.
func (c *InputController) transmitMove(x, y float64) {
	c.mu.Lock()
	xPercent, yPercent, ok := c.mapper.Map(x, y)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.send(ControlMessage{Type: ControlMouseMove, XPercent: xPercent, YPercent: yPercent})
}

// MouseDown sends a button press
func (c *InputController) MouseDown(button string) {
	c.send(ControlMessage{Type: ControlMouseDown, Button: button})
}

// MouseUp sends a button release
func (c *InputController) MouseUp(button string) {
	c.send(ControlMessage{Type: ControlMouseUp, Button: button})
}

// Wheel sends raw scroll deltas; the host applies its scroll divisor
func (c *InputController) Wheel(deltaX, deltaY float64) {
	c.send(ControlMessage{Type: ControlScroll, DeltaX: deltaX, DeltaY: deltaY})
}

// KeyDown sends a key press using the surface-reported key name
func (c *InputController) KeyDown(key string) {
	c.send(ControlMessage{Type: ControlKeyDown, Key: key})
}

// KeyUp sends a key release
func (c *InputController) KeyUp(key string) {
	c.send(ControlMessage{Type: ControlKeyUp, Key: key})
}

// FocusLost releases all modifiers on the host
func (c *InputController) FocusLost() {
	for _, key := range modifierKeys {
		c.send(ControlMessage{Type: ControlKeyUp, Key: key})
	}
}

func (c *InputController) send(msg ControlMessage) {
	if c.channel == nil || c.channel.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	data, err := EncodeControl(msg)
	if err != nil {
		log.Printf("Failed to encode control message: %v", err)
		return
	}
	if err := c.channel.Send(data); err != nil {
		log.Printf("Failed to send control message: %v", err)
	}
}

// Close stops the sampler. Safe to call repeatedly.
func (c *InputController) Close() {
	c.sampler.Stop()
}
