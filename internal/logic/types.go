// Package logic contains pure business logic for hot-water circulation control.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters and ClockReading values.
package logic

import "time"

// PumpTrigger identifies what caused the pump to start.
type PumpTrigger string

const (
	TriggerNone           PumpTrigger = "NONE"
	TriggerManualButton   PumpTrigger = "MANUAL_BUTTON"
	TriggerManualWebUI    PumpTrigger = "MANUAL_WEBUI"
	TriggerWaterDraw      PumpTrigger = "WATER_DRAW"
	TriggerScheduled      PumpTrigger = "SCHEDULED"
	TriggerDisinfection   PumpTrigger = "DISINFECTION"
	TriggerAntiStagnation PumpTrigger = "ANTI_STAGNATION"
)

// EventType classifies a controller event.
type EventType string

const (
	EventDrawConfirmed     EventType = "DRAW_CONFIRMED"
	EventPumpOn            EventType = "PUMP_ON"
	EventPumpOff           EventType = "PUMP_OFF"
	EventStartRejected     EventType = "START_REJECTED"
	EventDisinfection      EventType = "DISINFECTION_DETECTED"
	EventAntiStagnation    EventType = "ANTI_STAGNATION_RUN"
	EventVacationEnter     EventType = "VACATION_ENTER"
	EventVacationExit      EventType = "VACATION_EXIT"
	EventMatrixDecay       EventType = "MATRIX_DECAY"
	EventMatrixReset       EventType = "MATRIX_RESET"
	EventMatrixSave        EventType = "MATRIX_SAVE"
	EventLearningEnabled   EventType = "LEARNING_ENABLED"
	EventLearningDisabled  EventType = "LEARNING_DISABLED"
	EventPumpEnabled       EventType = "PUMP_ENABLED"
	EventPumpDisabled      EventType = "PUMP_DISABLED"
)

// Event is a controller state change to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Trigger   PumpTrigger // set for PUMP_ON / PUMP_OFF / START_REJECTED
	Reason    string      // stop reason or rejection reason

	// Cycle summary, set on PUMP_OFF.
	CycleSeconds int
	CycleKWh     float64

	// Matrix cell, set on DRAW_CONFIRMED when the clock was valid and
	// learning was enabled. Day/Slot are -1 otherwise.
	Day  int
	Slot int
}

// ClockReading is one observation of the external wall clock.
// DayOfWeek uses the clock source's native 1=Sunday..7=Saturday convention.
type ClockReading struct {
	Valid     bool
	Epoch     int64
	Hour      int
	Minute    int
	DayOfWeek int
	DayOfYear int
}

// Input is everything the controller consumes on one tick.
// Temperatures are °C; NaN marks an invalid reading.
type Input struct {
	Outlet float64
	Return float64
	Clock  ClockReading
	Button bool
	// PumpAvailable reports whether the pump actuator can be commanded.
	PumpAvailable bool
	Time          time.Time
}

// Output is the desired actuator state after a tick.
type Output struct {
	Pump      bool
	RunLED    bool
	StatusLED bool
	// FlashStatusLED requests the very-long-press blink feedback sequence.
	// The loop owns the (deliberate, bounded) delays; logic never sleeps.
	FlashStatusLED bool
}

// Command is an externally sourced control request (web UI, signals).
type Command int

const (
	CmdPumpStart Command = iota
	CmdPumpStop
	CmdPumpEnable
	CmdPumpDisable
	CmdLearningOn
	CmdLearningOff
	CmdMatrixSave
	CmdMatrixReset
)

// String returns the command name for logging.
func (c Command) String() string {
	switch c {
	case CmdPumpStart:
		return "pump-start"
	case CmdPumpStop:
		return "pump-stop"
	case CmdPumpEnable:
		return "pump-enable"
	case CmdPumpDisable:
		return "pump-disable"
	case CmdLearningOn:
		return "learning-on"
	case CmdLearningOff:
		return "learning-off"
	case CmdMatrixSave:
		return "matrix-save"
	case CmdMatrixReset:
		return "matrix-reset"
	}
	return "unknown"
}

// Config holds the controller tuning parameters. Values mirror the shipped
// device defaults.
type Config struct {
	// OutletRise is the accumulated outlet rise (°C) confirming a draw.
	OutletRise float64
	// ReturnRise is the target return rise (°C) above the start baseline.
	ReturnRise float64
	// DisinfectionRise is the outlet elevation (°C) above the slow baseline
	// that indicates a boiler disinfection cycle.
	DisinfectionRise float64
	// MinReturnTemp blocks starts when the loop is already warm (°C).
	MinReturnTemp float64
	// FlowRate is the pump flow in L/min, used for energy integration.
	FlowRate float64
	// EcoThreshold is the matrix intensity at which a slot triggers a
	// scheduled pre-heat.
	EcoThreshold uint8
	// MinRunTime / MaxRunTime bound every pump cycle.
	MinRunTime time.Duration
	MaxRunTime time.Duration
	// AntiStagnationRuntime is the fixed maintenance run length.
	AntiStagnationRuntime time.Duration
}

// DefaultConfig returns the shipped tuning values.
func DefaultConfig() Config {
	return Config{
		OutletRise:            1.5,
		ReturnRise:            5.0,
		DisinfectionRise:      10.0,
		MinReturnTemp:         30.0,
		FlowRate:              20.0,
		EcoThreshold:          120,
		MinRunTime:            30 * time.Second,
		MaxRunTime:            480 * time.Second,
		AntiStagnationRuntime: 15 * time.Second,
	}
}

// Timing constants shared by the detectors. These are physical properties of
// the installation (sensor noise floor, pipe thermal lag), not user tuning.
const (
	// minDrawRate is the minimum outlet rise rate (°C/s) that opens a
	// detection episode. Sensor resolution is ~0.0625°C, so the paired
	// minDrawDelta gives a comfortable noise margin.
	minDrawRate  = 0.010
	minDrawDelta = 0.03

	// drawConfirmAfter is how long an episode must persist before it can
	// confirm; drawAbortAfter cancels an episode that never reaches the
	// rise threshold.
	drawConfirmAfter = 15 * time.Second
	drawAbortAfter   = 30 * time.Second

	// fallRate / fallTotal abort an episode on sustained cooling.
	fallRate  = -0.01
	fallTotal = -0.1

	// requestMaxAge drops WATER_DRAW pump requests arriving within 30
	// minutes of the previous run.
	requestMaxAge = 30 * time.Minute

	// vacationAfter enters vacation mode after a draw-free day.
	vacationAfter = int64(86400)

	// disinfectionCooldown prevents re-detecting one extended disinfection
	// cycle. Anchored at detection time, not stop time.
	disinfectionCooldown = int64(3600)

	// antiStagLockout suppresses draw detection and scheduling after an
	// anti-stagnation run while the loop thermally settles.
	antiStagLockout = int64(1800)

	// Anti-stagnation window: Sunday 03:00–03:05 local.
	antiStagDay         = 6 // internal index, 0=Mon..6=Sun
	antiStagHour        = 3
	antiStagMinuteStart = 0
	antiStagMinuteEnd   = 5

	// scheduleCheckEvery paces the matrix schedule scan.
	scheduleCheckEvery = 30 * time.Second

	// returnTolerance softens the return-rise stop target.
	returnTolerance = 0.2

	// Button press classification bounds.
	longPress     = 3 * time.Second
	veryLongPress = 10 * time.Second

	// Status LED pulse lengths.
	drawPulse     = 5 * time.Second
	learningPulse = 2 * time.Second
)
