package system

import (
	"fmt"
	"strconv"
)

// X11 button numbers used by xdotool.
const (
	xdoButtonLeft       = "1"
	xdoButtonRight      = "3"
	xdoButtonScrollUp   = "4"
	xdoButtonScrollDown = "5"
)

var mediaKeysyms = map[MediaKey]string{
	MediaPlayPause: "XF86AudioPlay",
	MediaNext:      "XF86AudioNext",
	MediaPrev:      "XF86AudioPrev",
}

// XdotoolInput injects pointer and media-key events through xdotool.
type XdotoolInput struct {
	run runner
}

// NewXdotoolInput returns an input adapter backed by the xdotool utility.
func NewXdotoolInput() *XdotoolInput {
	return &XdotoolInput{run: runCommand}
}

func (x *XdotoolInput) MoveRelative(dx, dy float64) error {
	// xdotool takes integer pixel deltas; sub-pixel remainders are immaterial
	// for a continuously sampled stream.
	_, err := x.run("xdotool", "mousemove_relative", "--",
		strconv.Itoa(int(dx)), strconv.Itoa(int(dy)))
	return err
}

func (x *XdotoolInput) Click(button MouseButton) error {
	switch button {
	case ButtonRight:
		_, err := x.run("xdotool", "click", xdoButtonRight)
		return err
	case ButtonDouble:
		_, err := x.run("xdotool", "click", "--repeat", "2", xdoButtonLeft)
		return err
	default:
		_, err := x.run("xdotool", "click", xdoButtonLeft)
		return err
	}
}

func (x *XdotoolInput) Scroll(dy int) error {
	if dy == 0 {
		return nil
	}
	button := xdoButtonScrollUp
	if dy < 0 {
		button = xdoButtonScrollDown
		dy = -dy
	}
	_, err := x.run("xdotool", "click", "--repeat", strconv.Itoa(dy), button)
	return err
}

func (x *XdotoolInput) PressMediaKey(key MediaKey) error {
	keysym, ok := mediaKeysyms[key]
	if !ok {
		return fmt.Errorf("unknown media key %q", key)
	}
	_, err := x.run("xdotool", "key", keysym)
	return err
}
