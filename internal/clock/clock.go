// Package clock provides the wall-clock source with abstraction for testing.
// The controller's calendar logic (learning slots, decay, scheduling) runs
// off ClockReading values so tests can script arbitrary calendars.
package clock

import (
	"time"

	"github.com/sweeney/hotcirc/internal/logic"
)

// Source produces wall-clock readings.
type Source interface {
	// Now returns the current calendar reading. Valid=false means all
	// calendar-dependent logic must be skipped this tick.
	Now() logic.ClockReading
}

// System reads the OS clock in a fixed location.
type System struct {
	loc *time.Location
}

// NewSystem creates a Source over the OS clock. A nil location means local time.
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.Local
	}
	return &System{loc: loc}
}

// Now returns the current reading. DayOfWeek uses the 1=Sunday..7=Saturday
// convention the controller expects.
func (s *System) Now() logic.ClockReading {
	t := time.Now().In(s.loc)
	return Reading(t)
}

// Reading converts a time.Time into a valid ClockReading. Exported for tests
// and the integration harness.
func Reading(t time.Time) logic.ClockReading {
	return logic.ClockReading{
		Valid:     true,
		Epoch:     t.Unix(),
		Hour:      t.Hour(),
		Minute:    t.Minute(),
		DayOfWeek: int(t.Weekday()) + 1,
		DayOfYear: t.YearDay(),
	}
}
