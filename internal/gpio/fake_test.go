package gpio

import (
	"errors"
	"testing"
)

func TestFakeIORecordsOutputs(t *testing.T) {
	f := NewFakeIO()

	if err := f.SetPump(true); err != nil {
		t.Fatalf("SetPump: %v", err)
	}
	if err := f.SetPump(false); err != nil {
		t.Fatalf("SetPump: %v", err)
	}
	if f.Pump {
		t.Error("last pump state should be off")
	}
	if len(f.PumpHistory) != 2 || !f.PumpHistory[0] || f.PumpHistory[1] {
		t.Errorf("pump history: %v", f.PumpHistory)
	}

	f.SetRunLED(true)
	f.SetStatusLED(true)
	if !f.RunLED || !f.StatusLED {
		t.Error("LED states not recorded")
	}
}

func TestFakeIOButtonScript(t *testing.T) {
	f := NewFakeIO()
	f.ButtonSamples = []bool{false, true, true, false}

	want := []bool{false, true, true, false, false}
	for i, w := range want {
		got, err := f.ReadButton()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: got %v, want %v", i, got, w)
		}
	}
}

func TestFakeIOButtonDefaultReleased(t *testing.T) {
	f := NewFakeIO()
	got, err := f.ReadButton()
	if err != nil {
		t.Fatalf("ReadButton: %v", err)
	}
	if got {
		t.Error("default button state should be released")
	}
}

func TestFakeIOSetError(t *testing.T) {
	f := NewFakeIO()
	f.SetError = errors.New("chip gone")

	if err := f.SetPump(true); err == nil {
		t.Error("expected error")
	}
	if len(f.PumpHistory) != 0 {
		t.Error("failed command recorded")
	}
}

func TestFakeIOClose(t *testing.T) {
	f := NewFakeIO()
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("Closed not set")
	}
}
