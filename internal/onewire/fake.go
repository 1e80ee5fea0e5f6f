package onewire

import (
	"errors"
	"math"
)

// FakeSensor is a test double that returns scripted temperature samples.
type FakeSensor struct {
	// Samples contains scripted readings (°C, NaN = sensor fault).
	// Each call to Read() consumes the next sample; the last sample
	// repeats once exhausted.
	Samples []float64

	index int

	// ReadError, if set, will be returned by Read().
	ReadError error
}

// NewFakeSensor creates a FakeSensor with the given samples.
func NewFakeSensor(samples ...float64) *FakeSensor {
	return &FakeSensor{Samples: samples}
}

// Fixed creates a FakeSensor that always returns the same value.
func Fixed(temp float64) *FakeSensor {
	return &FakeSensor{Samples: []float64{temp}}
}

// Read returns the next scripted sample.
func (f *FakeSensor) Read() (float64, error) {
	if f.ReadError != nil {
		return math.NaN(), f.ReadError
	}
	if len(f.Samples) == 0 {
		return math.NaN(), errors.New("no samples configured")
	}
	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Set replaces the script with a single fixed value.
func (f *FakeSensor) Set(temp float64) {
	f.Samples = []float64{temp}
	f.index = 0
}

// Reset rewinds the script.
func (f *FakeSensor) Reset() {
	f.index = 0
}
