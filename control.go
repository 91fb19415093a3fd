package main

import (
	"encoding/json"
	"fmt"
)

// Control message types carried over the data channel.
const (
	ControlMouseMove = "mousemove"
	ControlMouseDown = "mousedown"
	ControlMouseUp   = "mouseup"
	ControlScroll    = "scroll"
	ControlKeyDown   = "keydown"
	ControlKeyUp     = "keyup"
)

// Mouse buttons understood by the host.
const (
	ButtonLeft  = "left"
	ButtonRight = "right"
)

// ControlMessage is the flat wire record for remote input. Type selects
// the variant; only the fields relevant to that variant are populated.
// There is no compatibility guarantee beyond a single session.
type ControlMessage struct {
	Type     string  `json:"type"`
	XPercent float64 `json:"xPercent,omitempty"` // mousemove: [0,1]
	YPercent float64 `json:"yPercent,omitempty"` // mousemove: [0,1]
	Button   string  `json:"button,omitempty"`   // mousedown/mouseup
	DeltaX   float64 `json:"deltaX,omitempty"`   // scroll: raw wheel delta
	DeltaY   float64 `json:"deltaY,omitempty"`   // scroll: raw wheel delta
	Key      string  `json:"key,omitempty"`      // keydown/keyup
}

// EncodeControl serializes a control message for the data channel.
func EncodeControl(msg ControlMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeControl parses a wire record. Unknown types are an error so the
// dispatcher can log and drop them without guessing.
func DecodeControl(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ControlMessage{}, err
	}

	switch msg.Type {
	case ControlMouseMove, ControlMouseDown, ControlMouseUp,
		ControlScroll, ControlKeyDown, ControlKeyUp:
		return msg, nil
	default:
		return ControlMessage{}, fmt.Errorf("unknown control type %q", msg.Type)
	}
}
