package logic

import (
	"math"
	"time"
)

// Counts tracks controller activity since startup.
type Counts struct {
	DrawsConfirmed int
	PumpStarts     int
	PumpStops      int
	StartsRejected int
}

// HeartbeatData carries a periodic liveness summary.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// Controller owns the full circulation-control state record. It is driven by
// a single loop: no locking, correctness rests on within-tick ordering
// (vacation/anti-stagnation → draw detection → learning/decay/scheduling →
// run-state advancement).
type Controller struct {
	cfg    Config
	matrix Matrix
	draw   *DrawDetector

	learningEnabled bool
	pumpEnabled     bool

	// Vacation state.
	vacation      bool
	lastDrawEpoch int64

	// Daily decay bookkeeping. lastDecayDay is seeded from the first valid
	// clock reading so boot never triggers a spurious decay.
	decaySeeded  bool
	lastDecayDay int

	// Disinfection detection.
	baselineOutlet        float64
	disinfectionMode      bool
	lastDisinfectionEpoch int64

	// Anti-stagnation scheduler.
	lastAntiStagEpoch int64
	antiStagFired     bool

	// Schedule guard: last (day,slot) for which a scheduled or
	// anti-stagnation trigger fired.
	lastScheduledDay  int
	lastScheduledSlot int
	lastScheduleCheck time.Time

	// Pump run state.
	pumpRunning    bool
	trigger        PumpTrigger
	baselineReturn float64
	pumpStart      time.Time
	lastRunTime    time.Time // monotonic; gates WATER_DRAW request age
	lastRunEpoch   int64     // wall clock, 0 if clock was invalid at stop

	// Energy accumulator for the active cycle.
	energyWh       float64
	energySamples  int
	lastEnergyCalc time.Time

	// Last completed cycle.
	lastCycleSeconds int
	lastCycleKWh     float64

	// UI state.
	statusLEDUntil  time.Time
	flashStatusLED  bool
	buttonLast      bool
	buttonPressedAt time.Time

	startTime     time.Time
	lastHeartbeat time.Time
	counts        Counts
}

// NewController creates a controller around an already loaded (or seeded)
// learning matrix.
func NewController(cfg Config, m Matrix, startTime time.Time) *Controller {
	return &Controller{
		cfg:               cfg,
		matrix:            m,
		draw:              NewDrawDetector(),
		learningEnabled:   true,
		pumpEnabled:       true,
		baselineOutlet:    math.NaN(),
		baselineReturn:    math.NaN(),
		lastScheduledDay:  -1,
		lastScheduledSlot: -1,
		startTime:         startTime,
		lastHeartbeat:     startTime,
	}
}

// Tick advances the controller by one control cycle. It returns the desired
// actuator state and any events to publish. Nothing in here blocks.
func (c *Controller) Tick(in Input) (Output, []Event) {
	var events []Event

	if in.Clock.Valid {
		if !c.decaySeeded {
			c.lastDecayDay = in.Clock.DayOfYear
			c.decaySeeded = true
		}
		c.checkVacation(in, &events)
		c.checkAntiStagnation(in, &events)
	}

	// Draw detection always runs (it is how vacation mode exits); it is
	// internally suspended while the pump runs or during the lockout.
	c.detectDraw(in, &events)

	if in.Clock.Valid && !c.vacation {
		c.decayMatrix(in, &events)
		if c.pumpEnabled {
			c.detectDisinfection(in, &events)
			c.checkSchedule(in, &events)
		}
	}

	c.pumpControl(in, &events)
	c.handleButton(in, &events)

	return c.outputs(in.Time), events
}

// Apply executes an externally sourced command (web UI). The input supplies
// the sensor/clock context the command needs.
func (c *Controller) Apply(cmd Command, in Input) []Event {
	var events []Event
	switch cmd {
	case CmdPumpStart:
		c.startPump(TriggerManualWebUI, in, &events)
	case CmdPumpStop:
		c.stopPump("manual stop (web ui)", in, &events)
	case CmdPumpEnable:
		if !c.pumpEnabled {
			c.pumpEnabled = true
			events = append(events, Event{Timestamp: in.Time, Type: EventPumpEnabled})
		}
	case CmdPumpDisable:
		if c.pumpEnabled {
			c.pumpEnabled = false
			events = append(events, Event{Timestamp: in.Time, Type: EventPumpDisabled})
		}
		c.stopPump("pump disabled", in, &events)
	case CmdLearningOn:
		if !c.learningEnabled {
			c.learningEnabled = true
			c.statusLEDUntil = in.Time.Add(learningPulse)
			events = append(events, Event{Timestamp: in.Time, Type: EventLearningEnabled})
		}
	case CmdLearningOff:
		if c.learningEnabled {
			c.learningEnabled = false
			events = append(events, Event{Timestamp: in.Time, Type: EventLearningDisabled})
		}
	case CmdMatrixSave:
		events = append(events, Event{Timestamp: in.Time, Type: EventMatrixSave})
	case CmdMatrixReset:
		c.matrix = SeedMatrix()
		events = append(events, Event{Timestamp: in.Time, Type: EventMatrixReset})
	}
	return events
}

// handleButton classifies press duration on release: short toggles the pump,
// long (>3 s) toggles learning, very long (>10 s) resets the learning matrix
// and requests the blink feedback sequence.
func (c *Controller) handleButton(in Input, events *[]Event) {
	pressed := in.Button
	switch {
	case pressed && !c.buttonLast:
		c.buttonPressedAt = in.Time
	case !pressed && c.buttonLast:
		dur := in.Time.Sub(c.buttonPressedAt)
		switch {
		case dur > veryLongPress:
			c.matrix = SeedMatrix()
			c.flashStatusLED = true
			*events = append(*events, Event{Timestamp: in.Time, Type: EventMatrixReset})
		case dur > longPress:
			if c.learningEnabled {
				c.learningEnabled = false
				*events = append(*events, Event{Timestamp: in.Time, Type: EventLearningDisabled})
			} else {
				c.learningEnabled = true
				c.statusLEDUntil = in.Time.Add(learningPulse)
				*events = append(*events, Event{Timestamp: in.Time, Type: EventLearningEnabled})
			}
		default:
			if c.pumpRunning {
				c.stopPump("manual stop", in, events)
			} else {
				c.startPump(TriggerManualButton, in, events)
			}
		}
	}
	c.buttonLast = pressed
}

// outputs computes the desired actuator state. The flash request is one-shot.
func (c *Controller) outputs(now time.Time) Output {
	out := Output{
		Pump:           c.pumpRunning,
		RunLED:         c.pumpRunning,
		StatusLED:      !c.learningEnabled || now.Before(c.statusLEDUntil),
		FlashStatusLED: c.flashStatusLED,
	}
	c.flashStatusLED = false
	return out
}

// CheckHeartbeat returns heartbeat data when the interval has elapsed since
// the previous heartbeat (or startup). Returns nil otherwise, or when the
// interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}
	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}

// Matrix returns a copy of the learning matrix for visualization/persistence.
func (c *Controller) Matrix() Matrix { return c.matrix }

// Running reports whether the pump is commanded on.
func (c *Controller) Running() bool { return c.pumpRunning }

// Trigger returns the active run trigger (TriggerNone while idle).
func (c *Controller) Trigger() PumpTrigger { return c.trigger }

// VacationMode reports the vacation flag.
func (c *Controller) VacationMode() bool { return c.vacation }

// PumpEnabled reports the master enable flag.
func (c *Controller) PumpEnabled() bool { return c.pumpEnabled }

// LearningEnabled reports whether confirmed draws update the matrix.
func (c *Controller) LearningEnabled() bool { return c.learningEnabled }

// DisinfectionMode reports whether the current/last run is a disinfection run.
func (c *Controller) DisinfectionMode() bool { return c.disinfectionMode }

// LastCycle returns the previous completed cycle's duration and energy.
func (c *Controller) LastCycle() (seconds int, kWh float64) {
	return c.lastCycleSeconds, c.lastCycleKWh
}

// BaselineOutlet returns the slow tank-temperature estimate (NaN until the
// first pump stop seeds it).
func (c *Controller) BaselineOutlet() float64 { return c.baselineOutlet }

// Counts returns the activity counters.
func (c *Controller) Counts() Counts { return c.counts }

// EcoThreshold returns the configured scheduled-preheat threshold.
func (c *Controller) EcoThreshold() uint8 { return c.cfg.EcoThreshold }
