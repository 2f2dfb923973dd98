package system

import (
	"fmt"
	"strconv"
	"strings"
)

// BrightnessctlDisplay drives backlight brightness through brightnessctl.
type BrightnessctlDisplay struct {
	run runner
}

// NewBrightnessctlDisplay returns a brightness adapter backed by the
// brightnessctl utility.
func NewBrightnessctlDisplay() *BrightnessctlDisplay {
	return &BrightnessctlDisplay{run: runCommand}
}

func (d *BrightnessctlDisplay) Brightness() (int, error) {
	current, err := d.readValue("get")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	max, err := d.readValue("max")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if max <= 0 {
		return 0, fmt.Errorf("%w: backlight reports max brightness %d", ErrUnsupported, max)
	}
	return int(float64(current)/float64(max)*100 + 0.5), nil
}

func (d *BrightnessctlDisplay) SetBrightness(level int) error {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	if _, err := d.run("brightnessctl", "set", fmt.Sprintf("%d%%", level)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return nil
}

func (d *BrightnessctlDisplay) readValue(subcommand string) (int, error) {
	out, err := d.run("brightnessctl", subcommand)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse brightnessctl %s output %q: %v", subcommand, out, err)
	}
	return value, nil
}
