package main

// Direction is the press/release phase of a button or key toggle
type Direction string

const (
	DirectionDown Direction = "down"
	DirectionUp   Direction = "up"
)

// Injector is the native input-injection capability consumed by the
// Dispatcher. All coordinates and deltas are in native pixel/line
// units; calls are synchronous and best-effort.
type Injector interface {
	// MoveTo places the pointer at absolute screen coordinates
	MoveTo(x, y int)

	// ToggleButton presses or releases a mouse button ("left"/"right")
	ToggleButton(direction Direction, button string)

	// ToggleKey presses or releases a key by injector key name
	ToggleKey(direction Direction, key string)

	// ScrollBy scrolls by whole lines on each axis
	ScrollBy(dx, dy int)
}
