package gpio

// FakeIO is a test double that records output commands and returns scripted
// button states.
type FakeIO struct {
	// Pump, RunLED, StatusLED hold the last commanded states.
	Pump      bool
	RunLED    bool
	StatusLED bool

	// PumpHistory records every pump command in order.
	PumpHistory []bool

	// ButtonSamples contains scripted button states. Each ReadButton call
	// consumes the next sample; the last repeats once exhausted. Empty
	// means "never pressed".
	ButtonSamples []bool
	index         int

	// SetError, if set, is returned by all Set* methods.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeIO creates a FakeIO with no pending button presses.
func NewFakeIO() *FakeIO {
	return &FakeIO{}
}

// SetPump records the pump command.
func (f *FakeIO) SetPump(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Pump = on
	f.PumpHistory = append(f.PumpHistory, on)
	return nil
}

// SetRunLED records the run LED command.
func (f *FakeIO) SetRunLED(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.RunLED = on
	return nil
}

// SetStatusLED records the status LED command.
func (f *FakeIO) SetStatusLED(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.StatusLED = on
	return nil
}

// ReadButton returns the next scripted button state.
func (f *FakeIO) ReadButton() (bool, error) {
	if len(f.ButtonSamples) == 0 {
		return false, nil
	}
	s := f.ButtonSamples[f.index]
	if f.index < len(f.ButtonSamples)-1 {
		f.index++
	}
	return s, nil
}

// Close marks the IO as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}
