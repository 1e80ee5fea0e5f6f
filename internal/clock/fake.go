package clock

import (
	"time"

	"github.com/sweeney/hotcirc/internal/logic"
)

// Fake is a settable clock source for tests.
type Fake struct {
	Reading logic.ClockReading
}

// NewFake creates a Fake set to the given time.
func NewFake(t time.Time) *Fake {
	return &Fake{Reading: Reading(t)}
}

// NewInvalidFake creates a Fake reporting an invalid clock.
func NewInvalidFake() *Fake {
	return &Fake{}
}

// Now returns the configured reading.
func (f *Fake) Now() logic.ClockReading {
	return f.Reading
}

// Set moves the fake clock to the given time.
func (f *Fake) Set(t time.Time) {
	f.Reading = Reading(t)
}

// Invalidate makes subsequent readings invalid.
func (f *Fake) Invalidate() {
	f.Reading = logic.ClockReading{}
}
