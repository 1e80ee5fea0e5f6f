// Package gpio drives the pump relay, indicator LEDs and momentary button
// with hardware abstraction. The real implementation uses the Linux GPIO
// character device; the fake implementation allows testing without hardware.
package gpio

// IO is the controller's hardware surface.
type IO interface {
	// SetPump commands the circulation pump relay.
	SetPump(on bool) error

	// SetRunLED drives the green run indicator.
	SetRunLED(on bool) error

	// SetStatusLED drives the yellow learning/status indicator.
	SetStatusLED(on bool) error

	// ReadButton returns the logical button state (true = pressed).
	// The raw input is inverted: raw active = released.
	ReadButton() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering).
const (
	DefaultPinPump      = 17 // pump relay
	DefaultPinRunLED    = 27 // green run indicator
	DefaultPinStatusLED = 22 // yellow learning/status indicator
	DefaultPinButton    = 23 // momentary button
)
