package logic

import (
	"math"
	"testing"
	"time"
)

// clockAt converts a time.Time into a valid reading using the controller's
// native 1=Sunday..7=Saturday day convention.
func clockAt(t time.Time) ClockReading {
	return ClockReading{
		Valid:     true,
		Epoch:     t.Unix(),
		Hour:      t.Hour(),
		Minute:    t.Minute(),
		DayOfWeek: int(t.Weekday()) + 1,
		DayOfYear: t.YearDay(),
	}
}

func tickInput(tm time.Time, outlet, ret float64) Input {
	return Input{
		Outlet:        outlet,
		Return:        ret,
		Clock:         clockAt(tm),
		PumpAvailable: true,
		Time:          tm,
	}
}

func findEvent(events []Event, typ EventType) (Event, bool) {
	for _, e := range events {
		if e.Type == typ {
			return e, true
		}
	}
	return Event{}, false
}

func countEvents(events []Event, typ EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// rampTicks drives 1 Hz ticks with the outlet rising by step per second and
// a fixed return temperature, collecting all events.
func rampTicks(c *Controller, start time.Time, outlet, step, ret float64, seconds int) []Event {
	var all []Event
	for i := 0; i <= seconds; i++ {
		tm := start.Add(time.Duration(i) * time.Second)
		_, events := c.Tick(tickInput(tm, outlet+float64(i)*step, ret))
		all = append(all, events...)
	}
	return all
}

func TestManualStartStopsAtReturnTarget(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC) // Monday
	c := NewController(DefaultConfig(), Matrix{}, t0)

	events := c.Apply(CmdPumpStart, tickInput(t0, 40.0, 20.0))
	if ev, ok := findEvent(events, EventPumpOn); !ok || ev.Trigger != TriggerManualWebUI {
		t.Fatalf("expected PUMP_ON MANUAL_WEBUI, got %v", events)
	}
	if !c.Running() {
		t.Fatal("pump should be running")
	}

	// Target reached before the minimum run time: keep running.
	_, events = c.Tick(tickInput(t0.Add(10*time.Second), 40.0, 24.8))
	if _, ok := findEvent(events, EventPumpOff); ok {
		t.Error("stop before MinRunTime")
	}

	// Past the minimum, return at baseline+rise-tolerance stops the cycle.
	_, events = c.Tick(tickInput(t0.Add(31*time.Second), 40.0, 24.8))
	ev, ok := findEvent(events, EventPumpOff)
	if !ok {
		t.Fatal("expected PUMP_OFF")
	}
	if ev.Reason != "target reached" {
		t.Errorf("stop reason: got %q, want %q", ev.Reason, "target reached")
	}
	if ev.CycleSeconds != 31 {
		t.Errorf("cycle seconds: got %d, want 31", ev.CycleSeconds)
	}
	if c.Running() {
		t.Error("pump should be stopped")
	}
}

func TestSafetyTimeoutWithFaultedReturnSensor(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	c.Apply(CmdPumpStart, tickInput(t0, 40.0, 20.0))

	// Return sensor dies mid-run: the temperature stop is unavailable but
	// the hard ceiling still applies.
	_, events := c.Tick(tickInput(t0.Add(100*time.Second), 40.0, math.NaN()))
	if _, ok := findEvent(events, EventPumpOff); ok {
		t.Fatal("premature stop on NaN return")
	}
	_, events = c.Tick(tickInput(t0.Add(480*time.Second), 40.0, math.NaN()))
	ev, ok := findEvent(events, EventPumpOff)
	if !ok {
		t.Fatal("expected safety stop at MaxRunTime")
	}
	if ev.Reason != "safety timeout" {
		t.Errorf("stop reason: got %q, want %q", ev.Reason, "safety timeout")
	}
}

func TestStartRejections(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	t.Run("actuator unavailable", func(t *testing.T) {
		c := NewController(DefaultConfig(), Matrix{}, t0)
		in := tickInput(t0, 40.0, 20.0)
		in.PumpAvailable = false
		events := c.Apply(CmdPumpStart, in)
		ev, ok := findEvent(events, EventStartRejected)
		if !ok || ev.Reason != "actuator unavailable" {
			t.Fatalf("got %v, want rejection %q", events, "actuator unavailable")
		}
		if c.Running() {
			t.Error("pump must not run")
		}
	})

	t.Run("pump disabled", func(t *testing.T) {
		c := NewController(DefaultConfig(), Matrix{}, t0)
		c.Apply(CmdPumpDisable, tickInput(t0, 40.0, 20.0))
		events := c.Apply(CmdPumpStart, tickInput(t0, 40.0, 20.0))
		ev, ok := findEvent(events, EventStartRejected)
		if !ok || ev.Reason != "pump disabled" {
			t.Fatalf("got %v, want rejection %q", events, "pump disabled")
		}
	})

	t.Run("return sensor invalid", func(t *testing.T) {
		c := NewController(DefaultConfig(), Matrix{}, t0)
		events := c.Apply(CmdPumpStart, tickInput(t0, 40.0, math.NaN()))
		ev, ok := findEvent(events, EventStartRejected)
		if !ok || ev.Reason != "return sensor invalid" {
			t.Fatalf("got %v, want rejection %q", events, "return sensor invalid")
		}
	})

	t.Run("return already warm", func(t *testing.T) {
		c := NewController(DefaultConfig(), Matrix{}, t0)
		events := c.Apply(CmdPumpStart, tickInput(t0, 40.0, 35.0))
		ev, ok := findEvent(events, EventStartRejected)
		if !ok || ev.Reason != "return already warm" {
			t.Fatalf("got %v, want rejection %q", events, "return already warm")
		}
		if c.Counts().StartsRejected != 1 {
			t.Errorf("rejected count: got %d, want 1", c.Counts().StartsRejected)
		}
	})
}

func TestDrawConfirmationLearnsAndStartsPump(t *testing.T) {
	// Monday 07:00 UTC: internal day 0, slot 14.
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	events := rampTicks(c, t0, 30.0, 0.1, 20.0, 30)

	ev, ok := findEvent(events, EventDrawConfirmed)
	if !ok {
		t.Fatal("expected DRAW_CONFIRMED")
	}
	if ev.Day != 0 || ev.Slot != 14 {
		t.Errorf("learned cell: got (%d,%d), want (0,14)", ev.Day, ev.Slot)
	}
	if got := c.Matrix()[0][14]; got != 40 {
		t.Errorf("matrix[0][14]: got %d, want 40", got)
	}
	on, ok := findEvent(events, EventPumpOn)
	if !ok {
		t.Fatal("expected PUMP_ON after confirmation")
	}
	if on.Trigger != TriggerWaterDraw {
		t.Errorf("trigger: got %s, want WATER_DRAW", on.Trigger)
	}
	if c.Counts().DrawsConfirmed != 1 {
		t.Errorf("draws confirmed: got %d, want 1", c.Counts().DrawsConfirmed)
	}
}

func TestLearningDisabledSkipsMatrixUpdate(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)
	c.Apply(CmdLearningOff, tickInput(t0, 30.0, 20.0))

	events := rampTicks(c, t0, 30.0, 0.1, 20.0, 30)

	ev, ok := findEvent(events, EventDrawConfirmed)
	if !ok {
		t.Fatal("expected DRAW_CONFIRMED")
	}
	if ev.Day != -1 || ev.Slot != -1 {
		t.Errorf("cell in event: got (%d,%d), want (-1,-1)", ev.Day, ev.Slot)
	}
	if c.Matrix() != (Matrix{}) {
		t.Error("matrix must not change with learning disabled")
	}
}

func TestNoDrawConfirmationWhileRunning(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	c.Apply(CmdPumpStart, tickInput(t0, 30.0, 20.0))
	if !c.Running() {
		t.Fatal("pump should be running")
	}

	// Pump-induced warming looks exactly like a draw; the forced detector
	// reset while running must keep it out of the model.
	events := rampTicks(c, t0.Add(time.Second), 30.0, 0.1, 20.0, 25)
	if _, ok := findEvent(events, EventDrawConfirmed); ok {
		t.Error("confirmation while pump running")
	}
	if c.Counts().DrawsConfirmed != 0 {
		t.Errorf("draws confirmed: got %d, want 0", c.Counts().DrawsConfirmed)
	}
}

func TestWaterDrawRequestAgeGate(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	// Complete one cycle so lastRunTime is set.
	c.Apply(CmdPumpStart, tickInput(t0, 30.0, 20.0))
	c.Apply(CmdPumpStop, tickInput(t0.Add(60*time.Second), 30.0, 24.0))

	// A draw 10 minutes later confirms (and learns) but must not restart
	// the pump: the loop is still warm from the previous run.
	events := rampTicks(c, t0.Add(10*time.Minute), 30.0, 0.1, 20.0, 30)
	if _, ok := findEvent(events, EventDrawConfirmed); !ok {
		t.Fatal("expected DRAW_CONFIRMED")
	}
	if _, ok := findEvent(events, EventPumpOn); ok {
		t.Error("pump start within the 30 minute request window")
	}

	// Past the window a fresh draw starts the pump again.
	events = rampTicks(c, t0.Add(31*time.Minute), 30.0, 0.1, 20.0, 30)
	on, ok := findEvent(events, EventPumpOn)
	if !ok {
		t.Fatal("expected PUMP_ON after the request window")
	}
	if on.Trigger != TriggerWaterDraw {
		t.Errorf("trigger: got %s, want WATER_DRAW", on.Trigger)
	}
}

func TestVacationEnterAndExit(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	// First valid reading seeds the last-draw timestamp.
	_, events := c.Tick(tickInput(t0, 30.0, 20.0))
	if _, ok := findEvent(events, EventVacationEnter); ok {
		t.Fatal("vacation on first tick")
	}

	// One draw-free day later the house is considered empty.
	_, events = c.Tick(tickInput(t0.Add(24*time.Hour), 30.0, 20.0))
	if _, ok := findEvent(events, EventVacationEnter); !ok {
		t.Fatal("expected VACATION_ENTER after a draw-free day")
	}
	if !c.VacationMode() {
		t.Fatal("vacation flag not set")
	}

	// The first draw back home exits vacation, learns, and pre-heats.
	events = rampTicks(c, t0.Add(25*time.Hour), 30.0, 0.1, 20.0, 30)
	if _, ok := findEvent(events, EventVacationExit); !ok {
		t.Fatal("expected VACATION_EXIT")
	}
	if c.VacationMode() {
		t.Error("vacation flag still set")
	}
	ev, _ := findEvent(events, EventDrawConfirmed)
	if ev.Day < 0 {
		t.Error("exit draw should still be learned")
	}
	if _, ok := findEvent(events, EventPumpOn); !ok {
		t.Error("exit draw should start the pump")
	}
}

func TestAntiStagnationRun(t *testing.T) {
	// Sunday 03:01 local.
	t0 := time.Date(2026, 3, 8, 3, 1, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)
	c.Apply(CmdPumpDisable, tickInput(t0.Add(-time.Hour), 40.0, 35.0))

	// Fires despite the pump being disabled and the return being warm.
	_, events := c.Tick(tickInput(t0, 40.0, 35.0))
	if _, ok := findEvent(events, EventAntiStagnation); !ok {
		t.Fatal("expected ANTI_STAGNATION_RUN")
	}
	on, ok := findEvent(events, EventPumpOn)
	if !ok || on.Trigger != TriggerAntiStagnation {
		t.Fatalf("expected PUMP_ON ANTI_STAGNATION, got %v", events)
	}

	// Fixed-length run.
	_, events = c.Tick(tickInput(t0.Add(5*time.Second), 40.0, 35.0))
	if _, ok := findEvent(events, EventPumpOff); ok {
		t.Fatal("stopped before the fixed runtime")
	}
	_, events = c.Tick(tickInput(t0.Add(15*time.Second), 40.0, 35.0))
	ev, ok := findEvent(events, EventPumpOff)
	if !ok || ev.Reason != "anti-stagnation complete" {
		t.Fatalf("expected anti-stagnation stop, got %v", events)
	}

	// One run per window.
	_, events = c.Tick(tickInput(t0.Add(60*time.Second), 40.0, 35.0))
	if _, ok := findEvent(events, EventAntiStagnation); ok {
		t.Error("second run inside the same window")
	}
}

func TestAntiStagnationLockoutSuppressesDrawDetection(t *testing.T) {
	t0 := time.Date(2026, 3, 8, 3, 1, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)
	c.Apply(CmdPumpDisable, tickInput(t0.Add(-time.Hour), 40.0, 20.0))

	c.Tick(tickInput(t0, 40.0, 20.0))
	c.Tick(tickInput(t0.Add(15*time.Second), 40.0, 20.0))
	if c.Running() {
		t.Fatal("anti-stagnation run should have finished")
	}

	// The run warmed the loop: the resulting outlet rise must not confirm.
	events := rampTicks(c, t0.Add(30*time.Second), 40.0, 0.1, 20.0, 30)
	if _, ok := findEvent(events, EventDrawConfirmed); ok {
		t.Error("confirmation during the settling lockout")
	}

	// After the lockout a real draw confirms again.
	events = rampTicks(c, t0.Add(31*time.Minute), 40.0, 0.1, 20.0, 30)
	if _, ok := findEvent(events, EventDrawConfirmed); !ok {
		t.Error("expected confirmation after the lockout")
	}
}

func TestScheduledPreheat(t *testing.T) {
	// Monday 07:05: day 0, slot 14.
	t0 := time.Date(2026, 3, 2, 7, 5, 0, 0, time.UTC)
	var m Matrix
	m[0][14] = 200
	c := NewController(DefaultConfig(), m, t0)

	_, events := c.Tick(tickInput(t0, 30.0, 20.0))
	on, ok := findEvent(events, EventPumpOn)
	if !ok || on.Trigger != TriggerScheduled {
		t.Fatalf("expected PUMP_ON SCHEDULED, got %v", events)
	}

	// Cycle completes on temperature.
	_, events = c.Tick(tickInput(t0.Add(31*time.Second), 30.0, 24.8))
	if _, ok := findEvent(events, EventPumpOff); !ok {
		t.Fatal("expected PUMP_OFF")
	}

	// The guard holds for the rest of the slot.
	_, events = c.Tick(tickInput(t0.Add(2*time.Minute), 30.0, 20.0))
	if _, ok := findEvent(events, EventPumpOn); ok {
		t.Error("re-fired inside the same slot")
	}
}

func TestScheduleBelowThresholdDoesNotFire(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 5, 0, 0, time.UTC)
	var m Matrix
	m[0][14] = 119 // one below the default ECO threshold
	c := NewController(DefaultConfig(), m, t0)

	_, events := c.Tick(tickInput(t0, 30.0, 20.0))
	if _, ok := findEvent(events, EventPumpOn); ok {
		t.Error("fired below the ECO threshold")
	}
}

func TestDisinfectionDetectionAndCooldown(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	// Seed the tank baseline with one completed cycle at 45 °C.
	c.Apply(CmdPumpStart, tickInput(t0, 45.0, 20.0))
	c.Apply(CmdPumpStop, tickInput(t0.Add(60*time.Second), 45.0, 24.0))
	if got := c.BaselineOutlet(); got != 45.0 {
		t.Fatalf("baseline: got %v, want 45.0", got)
	}

	// Boiler disinfection: outlet jumps well past baseline+10.
	t1 := t0.Add(2 * time.Minute)
	_, events := c.Tick(tickInput(t1, 56.0, 35.0))
	if _, ok := findEvent(events, EventDisinfection); !ok {
		t.Fatal("expected DISINFECTION_DETECTED")
	}
	on, ok := findEvent(events, EventPumpOn)
	if !ok || on.Trigger != TriggerDisinfection {
		t.Fatalf("expected PUMP_ON DISINFECTION, got %v", events)
	}
	if !c.DisinfectionMode() {
		t.Fatal("disinfection mode not set")
	}

	// Temperature never stops a disinfection run; only the ceiling does.
	_, events = c.Tick(tickInput(t1.Add(479*time.Second), 56.0, 50.0))
	if _, ok := findEvent(events, EventPumpOff); ok {
		t.Fatal("disinfection stopped early")
	}
	_, events = c.Tick(tickInput(t1.Add(480*time.Second), 56.0, 50.0))
	ev, ok := findEvent(events, EventPumpOff)
	if !ok || ev.Reason != "safety timeout" {
		t.Fatalf("expected safety stop, got %v", events)
	}

	// The elevated stop outlet must not poison the baseline.
	if got := c.BaselineOutlet(); got != 45.0 {
		t.Errorf("baseline after disinfection: got %v, want 45.0", got)
	}

	// Still elevated inside the cooldown: no re-detection.
	_, events = c.Tick(tickInput(t1.Add(500*time.Second), 56.0, 35.0))
	if _, ok := findEvent(events, EventDisinfection); ok {
		t.Error("re-detected inside the cooldown")
	}
}

func TestEnergyIntegration(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	c.Apply(CmdPumpStart, tickInput(t0, 45.0, 25.0))
	c.Tick(tickInput(t0.Add(100*time.Second), 45.0, 25.0))

	// Reverse gradient contributes nothing.
	c.Tick(tickInput(t0.Add(200*time.Second), 20.0, 25.0))

	events := c.Apply(CmdPumpStop, tickInput(t0.Add(200*time.Second), 45.0, 25.0))
	ev, ok := findEvent(events, EventPumpOff)
	if !ok {
		t.Fatal("expected PUMP_OFF")
	}
	if ev.CycleSeconds != 200 {
		t.Errorf("cycle seconds: got %d, want 200", ev.CycleSeconds)
	}
	// 20 L/min at ΔT=20 °C is 27.9 kW; 100 s of that is 0.7752 kWh.
	want := (20.0 / 60.0) * 20.0 * 4186.0 * (100.0 / 3600.0) / 1000.0
	if math.Abs(ev.CycleKWh-want) > 1e-6 {
		t.Errorf("cycle energy: got %v, want %v", ev.CycleKWh, want)
	}
}

func TestMatrixDecayOnDayRollover(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	var m Matrix
	m[0][0] = 100
	c := NewController(DefaultConfig(), m, t0)

	_, events := c.Tick(tickInput(t0, 30.0, 20.0))
	if _, ok := findEvent(events, EventMatrixDecay); ok {
		t.Fatal("decay on the seeding tick")
	}

	_, events = c.Tick(tickInput(t0.Add(2*time.Hour), 30.0, 20.0))
	if _, ok := findEvent(events, EventMatrixDecay); !ok {
		t.Fatal("expected MATRIX_DECAY on day rollover")
	}
	if got := c.Matrix()[0][0]; got != 98 {
		t.Errorf("decayed cell: got %d, want 98", got)
	}

	// Once per calendar day.
	_, events = c.Tick(tickInput(t0.Add(3*time.Hour), 30.0, 20.0))
	if _, ok := findEvent(events, EventMatrixDecay); ok {
		t.Error("second decay on the same day")
	}
}

func TestButtonShortPressTogglesPump(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	press := tickInput(t0, 30.0, 20.0)
	press.Button = true
	c.Tick(press)

	_, events := c.Tick(tickInput(t0.Add(time.Second), 30.0, 20.0))
	on, ok := findEvent(events, EventPumpOn)
	if !ok || on.Trigger != TriggerManualButton {
		t.Fatalf("expected PUMP_ON MANUAL_BUTTON, got %v", events)
	}

	press = tickInput(t0.Add(2*time.Second), 30.0, 20.0)
	press.Button = true
	c.Tick(press)
	_, events = c.Tick(tickInput(t0.Add(3*time.Second), 30.0, 20.0))
	ev, ok := findEvent(events, EventPumpOff)
	if !ok || ev.Reason != "manual stop" {
		t.Fatalf("expected manual stop, got %v", events)
	}
}

func TestButtonLongPressTogglesLearning(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	press := tickInput(t0, 30.0, 20.0)
	press.Button = true
	c.Tick(press)

	_, events := c.Tick(tickInput(t0.Add(4*time.Second), 30.0, 20.0))
	if _, ok := findEvent(events, EventLearningDisabled); !ok {
		t.Fatalf("expected LEARNING_DISABLED, got %v", events)
	}
	if c.LearningEnabled() {
		t.Fatal("learning still enabled")
	}
	if _, ok := findEvent(events, EventPumpOn); ok {
		t.Error("long press must not start the pump")
	}

	press = tickInput(t0.Add(10*time.Second), 30.0, 20.0)
	press.Button = true
	c.Tick(press)
	out, events := c.Tick(tickInput(t0.Add(14*time.Second), 30.0, 20.0))
	if _, ok := findEvent(events, EventLearningEnabled); !ok {
		t.Fatalf("expected LEARNING_ENABLED, got %v", events)
	}
	// Re-enable acknowledges with a short status pulse.
	if !out.StatusLED {
		t.Error("expected status LED pulse on re-enable")
	}
}

func TestButtonVeryLongPressResetsMatrix(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	var m Matrix
	m[1][1] = 200
	c := NewController(DefaultConfig(), m, t0)

	press := tickInput(t0, 30.0, 20.0)
	press.Button = true
	c.Tick(press)

	out, events := c.Tick(tickInput(t0.Add(11*time.Second), 30.0, 20.0))
	if _, ok := findEvent(events, EventMatrixReset); !ok {
		t.Fatalf("expected MATRIX_RESET, got %v", events)
	}
	if !out.FlashStatusLED {
		t.Error("expected flash request on the reset tick")
	}
	if c.Matrix() != SeedMatrix() {
		t.Error("matrix not reset to the seed pattern")
	}

	// The flash request is one-shot.
	out, _ = c.Tick(tickInput(t0.Add(12*time.Second), 30.0, 20.0))
	if out.FlashStatusLED {
		t.Error("flash request repeated")
	}
}

func TestStatusLEDReflectsLearningAndDraws(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	// Learning on, no recent draw: LED off.
	out, _ := c.Tick(tickInput(t0, 30.0, 20.0))
	if out.StatusLED {
		t.Error("LED on with learning enabled and no draw")
	}

	// Learning off: LED solid.
	c.Apply(CmdLearningOff, tickInput(t0, 30.0, 20.0))
	out, _ = c.Tick(tickInput(t0.Add(time.Second), 30.0, 20.0))
	if !out.StatusLED {
		t.Error("LED off with learning disabled")
	}
}

func TestPumpDisableStopsRunningPump(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	c.Apply(CmdPumpStart, tickInput(t0, 30.0, 20.0))
	events := c.Apply(CmdPumpDisable, tickInput(t0.Add(10*time.Second), 30.0, 20.0))

	if _, ok := findEvent(events, EventPumpDisabled); !ok {
		t.Error("expected PUMP_DISABLED")
	}
	ev, ok := findEvent(events, EventPumpOff)
	if !ok || ev.Reason != "pump disabled" {
		t.Fatalf("expected stop with reason %q, got %v", "pump disabled", events)
	}
	if c.Running() {
		t.Error("pump still running")
	}

	// Enable is idempotent: only a real transition emits an event.
	events = c.Apply(CmdPumpEnable, tickInput(t0.Add(11*time.Second), 30.0, 20.0))
	if _, ok := findEvent(events, EventPumpEnabled); !ok {
		t.Error("expected PUMP_ENABLED")
	}
	events = c.Apply(CmdPumpEnable, tickInput(t0.Add(12*time.Second), 30.0, 20.0))
	if len(events) != 0 {
		t.Errorf("duplicate enable emitted %v", events)
	}
}

func TestInvalidClockKeepsDrawDetection(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	var all []Event
	for i := 0; i <= 30; i++ {
		tm := t0.Add(time.Duration(i) * time.Second)
		in := Input{
			Outlet:        30.0 + float64(i)*0.1,
			Return:        20.0,
			Clock:         ClockReading{}, // no NTP yet
			PumpAvailable: true,
			Time:          tm,
		}
		_, events := c.Tick(in)
		all = append(all, events...)
	}

	ev, ok := findEvent(all, EventDrawConfirmed)
	if !ok {
		t.Fatal("expected confirmation with invalid clock")
	}
	if ev.Day != -1 || ev.Slot != -1 {
		t.Errorf("cell without calendar: got (%d,%d), want (-1,-1)", ev.Day, ev.Slot)
	}
	if c.Matrix() != (Matrix{}) {
		t.Error("matrix changed without a valid calendar")
	}
	if _, ok := findEvent(all, EventPumpOn); !ok {
		t.Error("expected comfort start despite invalid clock")
	}
}

func TestMatrixSaveAndResetCommands(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	var m Matrix
	m[4][4] = 55
	c := NewController(DefaultConfig(), m, t0)

	events := c.Apply(CmdMatrixSave, tickInput(t0, 30.0, 20.0))
	if _, ok := findEvent(events, EventMatrixSave); !ok {
		t.Error("expected MATRIX_SAVE")
	}

	events = c.Apply(CmdMatrixReset, tickInput(t0, 30.0, 20.0))
	if _, ok := findEvent(events, EventMatrixReset); !ok {
		t.Error("expected MATRIX_RESET")
	}
	if c.Matrix() != SeedMatrix() {
		t.Error("matrix not reset")
	}
}

func TestCheckHeartbeat(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)
	c := NewController(DefaultConfig(), Matrix{}, t0)

	if hb := c.CheckHeartbeat(t0.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("heartbeat before the interval")
	}
	hb := c.CheckHeartbeat(t0.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at the interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v, want 15m", hb.Uptime)
	}
	if c.CheckHeartbeat(t0.Add(15*time.Minute), 15*time.Minute) != nil {
		t.Error("duplicate heartbeat")
	}
	if c.CheckHeartbeat(t0.Add(time.Hour), 0) != nil {
		t.Error("heartbeat with interval disabled")
	}
}
