//go:build linux

package main

import (
	"log"
	"os"
	"os/exec"
	"regexp"
	"strconv"
)

// validKeyNameRe guards against shell-unsafe key names reaching xdotool
var validKeyNameRe = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// xdotoolInjector injects input by shelling out to xdotool against the
// local X display.
type xdotoolInjector struct {
	display string
}

// NewInjector returns the platform injector
func NewInjector() Injector {
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0"
	}
	return &xdotoolInjector{display: display}
}

func (inj *xdotoolInjector) run(args ...string) {
	cmd := exec.Command("xdotool", args...)
	cmd.Env = append(os.Environ(), "DISPLAY="+inj.display)
	if err := cmd.Run(); err != nil {
		log.Printf("xdotool %v failed: %v", args, err)
	}
}

func (inj *xdotoolInjector) MoveTo(x, y int) {
	inj.run("mousemove", strconv.Itoa(x), strconv.Itoa(y))
}

func (inj *xdotoolInjector) ToggleButton(direction Direction, button string) {
	xbtn := "1"
	if button == ButtonRight {
		xbtn = "3"
	}
	action := "mousedown"
	if direction == DirectionUp {
		action = "mouseup"
	}
	inj.run(action, xbtn)
}

func (inj *xdotoolInjector) ToggleKey(direction Direction, key string) {
	isPrintableSingle := len(key) == 1 && key[0] >= 32 && key[0] <= 126
	if !validKeyNameRe.MatchString(key) && !isPrintableSingle {
		log.Printf("Ignoring potentially unsafe key name: %q", key)
		return
	}
	action := "keydown"
	if direction == DirectionUp {
		action = "keyup"
	}
	inj.run(action, key)
}

// ScrollBy maps line deltas onto X11 scroll buttons (4/5 vertical,
// 6/7 horizontal), one click per line.
func (inj *xdotoolInjector) ScrollBy(dx, dy int) {
	if dy != 0 {
		button := "5" // scroll down
		if dy < 0 {
			button = "4"
			dy = -dy
		}
		inj.run("click", "--repeat", strconv.Itoa(dy), button)
	}
	if dx != 0 {
		button := "7"
		if dx < 0 {
			button = "6"
			dx = -dx
		}
		inj.run("click", "--repeat", strconv.Itoa(dx), button)
	}
}
