package logic

import "math"

// inLockout reports whether the post-anti-stagnation settling window is
// active. The window is anchored at the run's firing timestamp and consumed
// by draw detection and scheduling; other triggers are unaffected.
func (c *Controller) inLockout(clk ClockReading) bool {
	if c.lastAntiStagEpoch == 0 || !clk.Valid {
		return false
	}
	return clk.Epoch-c.lastAntiStagEpoch < antiStagLockout
}

// detectDraw runs the draw detector and handles the confirmation handoff.
// Forced reset while the pump runs keeps pump-induced warming out of the
// model; forced reset during the lockout keeps thermal settling out of it.
func (c *Controller) detectDraw(in Input, events *[]Event) {
	if c.pumpRunning {
		c.draw.Reset()
		return
	}
	if c.inLockout(in.Clock) {
		c.draw.Reset()
		return
	}
	if c.draw.Sample(in.Outlet, in.Time, c.cfg.OutletRise) {
		c.confirmDraw(in, events)
	}
}

// confirmDraw is the single handoff point for a confirmed draw: it updates
// the vacation timestamp, learns the current slot, resets the detector, and
// requests a WATER_DRAW start unless a run finished within the last 30
// minutes (stale requests are dropped, not queued).
func (c *Controller) confirmDraw(in Input, events *[]Event) {
	c.counts.DrawsConfirmed++

	ev := Event{Timestamp: in.Time, Type: EventDrawConfirmed, Day: -1, Slot: -1}

	if in.Clock.Valid {
		c.lastDrawEpoch = in.Clock.Epoch
		if c.vacation {
			c.vacation = false
			*events = append(*events, Event{Timestamp: in.Time, Type: EventVacationExit})
		}
		if c.learningEnabled && !c.vacation {
			day := DayIndex(in.Clock.DayOfWeek)
			slot := SlotIndex(in.Clock.Hour, in.Clock.Minute)
			c.matrix.Increment(day, slot)
			ev.Day = day
			ev.Slot = slot
		}
	}

	c.statusLEDUntil = in.Time.Add(drawPulse)
	c.draw.Reset()
	*events = append(*events, ev)

	if c.lastRunTime.IsZero() || in.Time.Sub(c.lastRunTime) > requestMaxAge {
		c.startPump(TriggerWaterDraw, in, events)
	}
}

// checkVacation enters vacation mode after a draw-free day. The last-draw
// timestamp is seeded from the first valid clock reading so a freshly booted
// system with no history does not immediately go on vacation.
func (c *Controller) checkVacation(in Input, events *[]Event) {
	if c.lastDrawEpoch == 0 {
		c.lastDrawEpoch = in.Clock.Epoch
		return
	}
	if !c.vacation && in.Clock.Epoch-c.lastDrawEpoch >= vacationAfter {
		c.vacation = true
		*events = append(*events, Event{Timestamp: in.Time, Type: EventVacationEnter})
	}
}

// checkAntiStagnation fires the weekly maintenance run inside the Sunday
// 03:00–03:05 window when the pump is disabled or the system is on vacation.
// The weekly-fired flag resets as soon as the observed time leaves the
// trigger hour on the trigger day; a backward clock jump can therefore
// re-fire within one calendar week (known, preserved behavior).
func (c *Controller) checkAntiStagnation(in Input, events *[]Event) {
	if c.pumpRunning {
		return
	}
	clk := in.Clock
	wd := DayIndex(clk.DayOfWeek)

	if wd != antiStagDay || clk.Hour != antiStagHour {
		c.antiStagFired = false
	}

	if c.pumpEnabled && !c.vacation {
		return
	}

	inWindow := wd == antiStagDay &&
		clk.Hour == antiStagHour &&
		clk.Minute >= antiStagMinuteStart &&
		clk.Minute < antiStagMinuteEnd

	if !inWindow || c.antiStagFired {
		return
	}

	c.antiStagFired = true
	c.lastAntiStagEpoch = clk.Epoch

	// Mark the slot so the schedule check cannot double-fire it.
	c.lastScheduledDay = wd
	c.lastScheduledSlot = SlotIndex(clk.Hour, clk.Minute)

	*events = append(*events, Event{Timestamp: in.Time, Type: EventAntiStagnation})
	c.startPump(TriggerAntiStagnation, in, events)
}

// detectDisinfection compares the outlet against the slow tank baseline while
// the pump is idle. Elevation past the threshold starts a full-length run,
// subject to a 1-hour cooldown anchored at detection time (one extended
// boiler cycle must not re-trigger).
func (c *Controller) detectDisinfection(in Input, events *[]Event) {
	if c.pumpRunning || math.IsNaN(c.baselineOutlet) || math.IsNaN(in.Outlet) {
		return
	}
	if in.Outlet-c.baselineOutlet < c.cfg.DisinfectionRise {
		return
	}
	if c.lastDisinfectionEpoch != 0 && in.Clock.Epoch-c.lastDisinfectionEpoch < disinfectionCooldown {
		return
	}
	c.lastDisinfectionEpoch = in.Clock.Epoch
	c.disinfectionMode = true
	*events = append(*events, Event{Timestamp: in.Time, Type: EventDisinfection})
	c.startPump(TriggerDisinfection, in, events)
}

// decayMatrix applies the daily decay when the calendar day rolls over. The
// MATRIX_DECAY event doubles as the persistence trigger: the loop saves the
// matrix whenever it sees one.
func (c *Controller) decayMatrix(in Input, events *[]Event) {
	if !c.decaySeeded || in.Clock.DayOfYear == c.lastDecayDay {
		return
	}
	c.lastDecayDay = in.Clock.DayOfYear
	c.matrix.Decay()
	*events = append(*events, Event{Timestamp: in.Time, Type: EventMatrixDecay})
}

// checkSchedule scans the learning matrix for the current slot every 30
// seconds and fires a SCHEDULED pre-heat when the slot's intensity reaches
// the ECO threshold. The ScheduleGuard suppresses re-firing within one slot;
// the anti-stagnation lockout suppresses the scan entirely.
func (c *Controller) checkSchedule(in Input, events *[]Event) {
	if c.inLockout(in.Clock) {
		return
	}
	if !c.lastScheduleCheck.IsZero() && in.Time.Sub(c.lastScheduleCheck) < scheduleCheckEvery {
		return
	}
	c.lastScheduleCheck = in.Time

	wd := DayIndex(in.Clock.DayOfWeek)
	slot := SlotIndex(in.Clock.Hour, in.Clock.Minute)

	if c.matrix[wd][slot] < c.cfg.EcoThreshold {
		return
	}
	if c.lastScheduledDay == wd && c.lastScheduledSlot == slot {
		return
	}

	// Record the slot before arbitration so a refused start still counts as
	// handled for this bucket.
	c.lastScheduledDay = wd
	c.lastScheduledSlot = slot

	if !c.pumpRunning {
		c.startPump(TriggerScheduled, in, events)
	}
}
