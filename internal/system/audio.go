package system

import (
	"fmt"
	"strconv"
	"strings"
)

const defaultSink = "@DEFAULT_SINK@"

// PactlAudio drives the PulseAudio/PipeWire mixer through pactl.
type PactlAudio struct {
	run runner
}

// NewPactlAudio returns a mixer adapter backed by the pactl utility.
func NewPactlAudio() *PactlAudio {
	return &PactlAudio{run: runCommand}
}

func (a *PactlAudio) Volume() (int, error) {
	out, err := a.run("pactl", "get-sink-volume", defaultSink)
	if err != nil {
		return 0, err
	}
	return parseSinkVolume(out)
}

func (a *PactlAudio) SetVolume(level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("volume level %d out of range", level)
	}
	_, err := a.run("pactl", "set-sink-volume", defaultSink, fmt.Sprintf("%d%%", level))
	return err
}

func (a *PactlAudio) Muted() (bool, error) {
	out, err := a.run("pactl", "get-sink-mute", defaultSink)
	if err != nil {
		return false, err
	}
	return parseSinkMute(out)
}

func (a *PactlAudio) ToggleMute() (bool, error) {
	if _, err := a.run("pactl", "set-sink-mute", defaultSink, "toggle"); err != nil {
		return false, err
	}
	return a.Muted()
}

// parseSinkVolume extracts the first percentage from pactl get-sink-volume
// output, e.g. "Volume: front-left: 38550 /  59% / -13.77 dB, ...".
func parseSinkVolume(out string) (int, error) {
	for _, field := range strings.Fields(out) {
		if !strings.HasSuffix(field, "%") {
			continue
		}
		level, err := strconv.Atoi(strings.TrimSuffix(field, "%"))
		if err != nil {
			continue
		}
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		return level, nil
	}
	return 0, fmt.Errorf("no volume percentage in pactl output %q", out)
}

// parseSinkMute reads pactl get-sink-mute output ("Mute: yes" / "Mute: no").
func parseSinkMute(out string) (bool, error) {
	switch {
	case strings.Contains(out, "yes"):
		return true, nil
	case strings.Contains(out, "no"):
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized pactl mute output %q", out)
	}
}
