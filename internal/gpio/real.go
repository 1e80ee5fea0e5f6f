//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO drives actual hardware using the Linux GPIO character device.
type RealIO struct {
	chip      *gpiocdev.Chip
	pump      *gpiocdev.Line
	runLED    *gpiocdev.Line
	statusLED *gpiocdev.Line
	button    *gpiocdev.Line
}

// NewRealIO requests the pump relay and LED lines as outputs (initially low)
// and the button as input with pull-down, matching Pi boot defaults.
func NewRealIO(pinPump, pinRunLED, pinStatusLED, pinButton int) (*RealIO, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealIO{chip: chip}

	request := func(pin int, name string, opts ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
		line, err := chip.RequestLine(pin, opts...)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", name, pin, err)
		}
		return line, nil
	}

	if r.pump, err = request(pinPump, "pump", gpiocdev.AsOutput(0)); err != nil {
		return nil, err
	}
	if r.runLED, err = request(pinRunLED, "run LED", gpiocdev.AsOutput(0)); err != nil {
		return nil, err
	}
	if r.statusLED, err = request(pinStatusLED, "status LED", gpiocdev.AsOutput(0)); err != nil {
		return nil, err
	}
	if r.button, err = request(pinButton, "button", gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		return nil, err
	}

	return r, nil
}

// SetPump commands the pump relay.
func (r *RealIO) SetPump(on bool) error {
	return r.setLine(r.pump, "pump", on)
}

// SetRunLED drives the run indicator.
func (r *RealIO) SetRunLED(on bool) error {
	return r.setLine(r.runLED, "run LED", on)
}

// SetStatusLED drives the learning/status indicator.
func (r *RealIO) SetStatusLED(on bool) error {
	return r.setLine(r.statusLED, "status LED", on)
}

func (r *RealIO) setLine(line *gpiocdev.Line, name string, on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// ReadButton returns the logical button state.
// Inverts raw GPIO: raw active (1) = released, raw inactive (0) = pressed.
func (r *RealIO) ReadButton() (bool, error) {
	raw, err := r.button.Value()
	if err != nil {
		return false, fmt.Errorf("read button: %w", err)
	}
	return raw == 0, nil
}

// Close drops the pump relay, reconfigures all lines to input with pull-down
// (matching Pi boot defaults) and releases them. A relay left energized
// across a daemon restart would run the pump unsupervised.
func (r *RealIO) Close() error {
	var errs []error

	if r.pump != nil {
		if err := r.pump.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drop pump relay: %w", err))
		}
	}

	for _, l := range []*gpiocdev.Line{r.pump, r.runLED, r.statusLED, r.button} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
