// Package status provides a thread-safe status tracker for the hotcirc
// daemon. The control loop writes it every tick; HTTP handlers and system
// events read point-in-time snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/hotcirc/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs        int64
	HeartbeatMs   int64
	Broker        string
	HTTPAddr      string
	StateFile     string
	OutletRise    float64
	ReturnRise    float64
	MinReturnTemp float64
	EcoThreshold  uint8
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	PumpRunning     bool
	Trigger         logic.PumpTrigger
	PumpEnabled     bool
	LearningEnabled bool
	Vacation        bool
	Disinfection    bool

	Outlet         float64
	Return         float64
	BaselineOutlet float64

	LastCycleSeconds int
	LastCycleKWh     float64

	Counts logic.Counts
	Matrix logic.Matrix

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the controller's observable state. Called from the control
// loop on every tick.
func (t *Tracker) Update(c *logic.Controller, outlet, ret float64) {
	t.mu.Lock()
	t.snap.PumpRunning = c.Running()
	t.snap.Trigger = c.Trigger()
	t.snap.PumpEnabled = c.PumpEnabled()
	t.snap.LearningEnabled = c.LearningEnabled()
	t.snap.Vacation = c.VacationMode()
	t.snap.Disinfection = c.DisinfectionMode()
	t.snap.Outlet = outlet
	t.snap.Return = ret
	t.snap.BaselineOutlet = c.BaselineOutlet()
	t.snap.LastCycleSeconds, t.snap.LastCycleKWh = c.LastCycle()
	t.snap.Counts = c.Counts()
	t.snap.Matrix = c.Matrix()
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
