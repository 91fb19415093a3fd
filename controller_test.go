package main

import (
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel records control messages sent over a pretend data channel
type fakeChannel struct {
	mu    sync.Mutex
	state webrtc.DataChannelState
	sent  []ControlMessage
}

func newOpenChannel() *fakeChannel {
	return &fakeChannel{state: webrtc.DataChannelStateOpen}
}

func (f *fakeChannel) Send(data []byte) error {
	msg, err := DecodeControl(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) ReadyState() webrtc.DataChannelState { return f.state }

func (f *fakeChannel) messages() []ControlMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ControlMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestController(t *testing.T, ch *fakeChannel) *InputController {
	t.Helper()
	c := NewInputController(ch, time.Hour) // sampler never ticks in tests
	t.Cleanup(c.Close)
	c.SetViewport(ViewportBounds{Width: 1920, Height: 1080})
	c.SetMediaSize(1920, 1080)
	return c
}

func TestControllerTransmitsMappedMove(t *testing.T) {
	ch := newOpenChannel()
	c := newTestController(t, ch)

	c.transmitMove(960, 540)

	msgs := ch.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ControlMouseMove, msgs[0].Type)
	assert.InDelta(t, 0.5, msgs[0].XPercent, 1e-9)
	assert.InDelta(t, 0.5, msgs[0].YPercent, 1e-9)
}

func TestControllerDropsMoveInPadding(t *testing.T) {
	ch := newOpenChannel()
	c := newTestController(t, ch)
	c.SetViewport(ViewportBounds{Width: 1000, Height: 1000})
	c.SetMediaSize(1280, 720)

	c.transmitMove(500, 50)

	assert.Empty(t, ch.messages())
}

func TestControllerWheelSendsRawDeltas(t *testing.T) {
	ch := newOpenChannel()
	c := newTestController(t, ch)

	c.Wheel(0, 100)

	msgs := ch.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ControlScroll, msgs[0].Type)
	assert.Equal(t, 100.0, msgs[0].DeltaY)
}

func TestControllerButtonsAndKeys(t *testing.T) {
	ch := newOpenChannel()
	c := newTestController(t, ch)

	c.MouseDown(ButtonLeft)
	c.MouseUp(ButtonLeft)
	c.KeyDown("Enter")
	c.KeyUp("Enter")

	msgs := ch.messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, ControlMouseDown, msgs[0].Type)
	assert.Equal(t, ButtonLeft, msgs[0].Button)
	assert.Equal(t, ControlKeyDown, msgs[2].Type)
	assert.Equal(t, "Enter", msgs[2].Key)
}

func TestControllerFocusLostReleasesModifiers(t *testing.T) {
	ch := newOpenChannel()
	c := newTestController(t, ch)

	c.FocusLost()

	msgs := ch.messages()
	require.Len(t, msgs, 4)
	var released []string
	for _, msg := range msgs {
		assert.Equal(t, ControlKeyUp, msg.Type)
		released = append(released, msg.Key)
	}
	assert.ElementsMatch(t, []string{"Alt", "Control", "Shift", "Meta"}, released)
}

func TestControllerSilentWhenChannelNotOpen(t *testing.T) {
	ch := &fakeChannel{state: webrtc.DataChannelStateConnecting}
	c := newTestController(t, ch)

	c.MouseDown(ButtonLeft)
	c.Wheel(10, 10)
	c.KeyDown("a")

	assert.Empty(t, ch.messages())
}
