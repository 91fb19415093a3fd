package main

import (
	"log"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// keyNameMap translates surface-reported key names to the injector's
// vocabulary (X11 keysym names). Keys absent from the table that are not
// single printable characters are dropped silently.
var keyNameMap = map[string]string{
	"ArrowUp":    "Up",
	"ArrowDown":  "Down",
	"ArrowLeft":  "Left",
	"ArrowRight": "Right",
	"Enter":      "Return",
	"Backspace":  "BackSpace",
	"Tab":        "Tab",
	"Escape":     "Escape",
	" ":          "space",
	"Shift":      "Shift_L",
	"Control":    "Control_L",
	"Alt":        "Alt_L",
	"AltGraph":   "Alt_R",
	"Meta":       "Super_L",
	"Delete":     "Delete",
	"Insert":     "Insert",
	"Home":       "Home",
	"End":        "End",
	"PageUp":     "Page_Up",
	"PageDown":   "Page_Down",
	"CapsLock":   "Caps_Lock",
}

func init() {
	for i := 1; i <= 12; i++ {
		key := "F" + strconv.Itoa(i)
		keyNameMap[key] = key
	}
}

// injectorKeyName resolves a wire key name to the injector vocabulary.
// Single printable characters pass through lower-cased.
func injectorKeyName(key string) (string, bool) {
	if mapped, ok := keyNameMap[key]; ok {
		return mapped, true
	}
	runes := []rune(key)
	if len(runes) == 1 && unicode.IsPrint(runes[0]) {
		return strings.ToLower(key), true
	}
	return "", false
}

// Dispatcher consumes decoded control messages on the host and drives
// the native input-injection capability. Percentages are mapped to
// physical pixels using the host display's dimensions and scale factor;
// scroll deltas are down-scaled by the configured divisor to match the
// injector's line-based scroll unit.
type Dispatcher struct {
	injector      Injector
	screenWidth   int
	screenHeight  int
	scaleFactor   float64
	scrollDivisor float64
}

// NewDispatcher creates a dispatcher for the given display geometry
func NewDispatcher(injector Injector, screenWidth, screenHeight int, scaleFactor, scrollDivisor float64) *Dispatcher {
	if scaleFactor <= 0 {
		scaleFactor = 1
	}
	if scrollDivisor <= 0 {
		scrollDivisor = DefaultScrollDivisor
	}
	return &Dispatcher{
		injector:      injector,
		screenWidth:   screenWidth,
		screenHeight:  screenHeight,
		scaleFactor:   scaleFactor,
		scrollDivisor: scrollDivisor,
	}
}

// Dispatch decodes and executes one wire record. Malformed or unknown
// payloads are logged and dropped; nothing here can take the session
// down.
func (d *Dispatcher) Dispatch(data []byte) {
	msg, err := DecodeControl(data)
	if err != nil {
		log.Printf("Dropping control message: %v", err)
		return
	}

	switch msg.Type {
	case ControlMouseMove:
		if msg.XPercent < 0 || msg.XPercent > 1 || msg.YPercent < 0 || msg.YPercent > 1 {
			return
		}
		x := int(math.Round(msg.XPercent * float64(d.screenWidth) * d.scaleFactor))
		y := int(math.Round(msg.YPercent * float64(d.screenHeight) * d.scaleFactor))
		d.injector.MoveTo(x, y)

	case ControlMouseDown:
		if b, ok := normalizeButton(msg.Button); ok {
			d.injector.ToggleButton(DirectionDown, b)
		}

	case ControlMouseUp:
		if b, ok := normalizeButton(msg.Button); ok {
			d.injector.ToggleButton(DirectionUp, b)
		}

	case ControlScroll:
		dx := int(math.Round(msg.DeltaX / d.scrollDivisor))
		dy := int(math.Round(msg.DeltaY / d.scrollDivisor))
		if dx == 0 && dy == 0 {
			return
		}
		d.injector.ScrollBy(dx, dy)

	case ControlKeyDown:
		if name, ok := injectorKeyName(msg.Key); ok {
			d.injector.ToggleKey(DirectionDown, name)
		}

	case ControlKeyUp:
		if name, ok := injectorKeyName(msg.Key); ok {
			d.injector.ToggleKey(DirectionUp, name)
		}
	}
}

func normalizeButton(button string) (string, bool) {
	switch button {
	case ButtonLeft, ButtonRight:
		return button, true
	default:
		return "", false
	}
}
