// Package system binds the daemon to the host's control surfaces: audio
// mixer, display brightness, and pointer/keyboard injection. Each adapter is
// a narrow synchronous interface; the server treats the calls as opaque.
package system

import (
	"errors"
	"os/exec"
)

// ErrUnsupported is returned when the host has no working backend for the
// requested capability.
var ErrUnsupported = errors.New("capability not supported on this host")

// MediaKey identifies a media keyboard event.
type MediaKey string

const (
	MediaPlayPause MediaKey = "playpause"
	MediaNext      MediaKey = "next"
	MediaPrev      MediaKey = "prev"
)

// ParseMediaKey maps an API action name to a media key.
func ParseMediaKey(action string) (MediaKey, bool) {
	switch MediaKey(action) {
	case MediaPlayPause, MediaNext, MediaPrev:
		return MediaKey(action), true
	default:
		return "", false
	}
}

// MouseButton identifies a click kind in the realtime protocol.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonDouble MouseButton = "double"
)

// AudioController drives the system mixer.
type AudioController interface {
	// Volume returns the current master volume as a 0-100 integer.
	Volume() (int, error)
	// SetVolume sets the master volume. level must already be in [0,100].
	SetVolume(level int) error
	// Muted reports the current mute flag.
	Muted() (bool, error)
	// ToggleMute flips mute and returns the new state.
	ToggleMute() (bool, error)
}

// DisplayController drives monitor brightness.
type DisplayController interface {
	// Brightness returns the current level as a 0-100 integer.
	Brightness() (int, error)
	// SetBrightness sets the level. level must already be in [0,100].
	SetBrightness(level int) error
}

// InputController injects pointer and media-key events.
type InputController interface {
	// MoveRelative displaces the cursor by (dx, dy) pixels.
	MoveRelative(dx, dy float64) error
	// Click synthesizes a click. Unknown buttons fall back to left.
	Click(button MouseButton) error
	// Scroll scrolls vertically; positive dy scrolls up.
	Scroll(dy int) error
	// PressMediaKey synthesizes a media keyboard event.
	PressMediaKey(key MediaKey) error
}

// Capabilities groups the adapters the daemon was able to bind at startup.
type Capabilities struct {
	Audio   AudioController
	Display DisplayController
	Input   InputController
}

// Detect probes the host for control utilities and returns working adapters
// where available, unsupported fallbacks where not.
func Detect() Capabilities {
	caps := Capabilities{
		Audio:   UnsupportedAudio{},
		Display: UnsupportedDisplay{},
		Input:   UnsupportedInput{},
	}

	if _, err := exec.LookPath("pactl"); err == nil {
		caps.Audio = NewPactlAudio()
	}
	if _, err := exec.LookPath("brightnessctl"); err == nil {
		caps.Display = NewBrightnessctlDisplay()
	}
	if _, err := exec.LookPath("xdotool"); err == nil {
		caps.Input = NewXdotoolInput()
	}

	return caps
}

// UnsupportedAudio is the fallback when no mixer backend exists.
type UnsupportedAudio struct{}

func (UnsupportedAudio) Volume() (int, error)      { return 0, ErrUnsupported }
func (UnsupportedAudio) SetVolume(int) error       { return ErrUnsupported }
func (UnsupportedAudio) Muted() (bool, error)      { return false, ErrUnsupported }
func (UnsupportedAudio) ToggleMute() (bool, error) { return false, ErrUnsupported }

// UnsupportedDisplay is the fallback when no brightness backend exists.
type UnsupportedDisplay struct{}

func (UnsupportedDisplay) Brightness() (int, error) { return 0, ErrUnsupported }
func (UnsupportedDisplay) SetBrightness(int) error  { return ErrUnsupported }

// UnsupportedInput is the fallback when no injection backend exists.
type UnsupportedInput struct{}

func (UnsupportedInput) MoveRelative(float64, float64) error { return ErrUnsupported }
func (UnsupportedInput) Click(MouseButton) error             { return ErrUnsupported }
func (UnsupportedInput) Scroll(int) error                    { return ErrUnsupported }
func (UnsupportedInput) PressMediaKey(MediaKey) error        { return ErrUnsupported }
