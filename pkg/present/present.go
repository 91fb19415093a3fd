// Package present abstracts the windowing collaborator that reshapes
// the application window around an active session: a compact always-on-
// top panel while hosting, fullscreen while controlling, and the normal
// window otherwise.
package present

import "log"

// Mode is a window presentation request
type Mode string

const (
	// ModeCompactOverlay is a small always-on-top panel (host side)
	ModeCompactOverlay Mode = "compact-overlay"
	// ModeFullscreen maximizes the window (client side)
	ModeFullscreen Mode = "fullscreen"
	// ModeDefault restores the normal window
	ModeDefault Mode = "default"
)

// Controller applies presentation modes to the hosting window
type Controller interface {
	PresentAs(mode Mode) error
}

// logController is the stub used where no window system integration is
// wired in; it records the request so the lifecycle remains observable.
type logController struct{}

// NewController returns the platform presentation controller
func NewController() Controller {
	return &logController{}
}

func (logController) PresentAs(mode Mode) error {
	log.Printf("present: %s", mode)
	return nil
}
