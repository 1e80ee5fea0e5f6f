//go:build !linux

package gpio

import "errors"

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(pinPump, pinRunLED, pinStatusLED, pinButton int) (*RealIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetPump is not implemented on non-Linux platforms.
func (r *RealIO) SetPump(on bool) error { return errors.New("gpio: not supported") }

// SetRunLED is not implemented on non-Linux platforms.
func (r *RealIO) SetRunLED(on bool) error { return errors.New("gpio: not supported") }

// SetStatusLED is not implemented on non-Linux platforms.
func (r *RealIO) SetStatusLED(on bool) error { return errors.New("gpio: not supported") }

// ReadButton is not implemented on non-Linux platforms.
func (r *RealIO) ReadButton() (bool, error) { return false, errors.New("gpio: not supported") }

// Close is not implemented on non-Linux platforms.
func (r *RealIO) Close() error { return nil }
