//go:build !linux

package main

import "log"

// stubInjector is used on platforms without a native injector wired in.
// It logs what would have been injected so sessions remain debuggable.
type stubInjector struct{}

// NewInjector returns the platform injector
func NewInjector() Injector {
	log.Printf("No native input injector on this platform; remote input will be logged only")
	return &stubInjector{}
}

func (inj *stubInjector) MoveTo(x, y int) {
	log.Printf("inject: move to (%d, %d)", x, y)
}

func (inj *stubInjector) ToggleButton(direction Direction, button string) {
	log.Printf("inject: button %s %s", button, direction)
}

func (inj *stubInjector) ToggleKey(direction Direction, key string) {
	log.Printf("inject: key %s %s", key, direction)
}

func (inj *stubInjector) ScrollBy(dx, dy int) {
	log.Printf("inject: scroll (%d, %d)", dx, dy)
}
