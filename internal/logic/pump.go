package logic

import (
	"math"
	"time"
)

// specificHeat is the volumetric heat capacity of water in J/(L·°C).
const specificHeat = 4186.0

// energyMinInterval avoids integrating over vanishing intervals.
const energyMinInterval = 50 * time.Millisecond

// startPump is the single IDLE→RUNNING entry point. Every trigger source
// goes through here; a start while already running is a silent no-op, and
// other refusals surface as START_REJECTED events.
func (c *Controller) startPump(trigger PumpTrigger, in Input, events *[]Event) {
	if c.pumpRunning {
		return
	}

	reject := func(reason string) {
		c.counts.StartsRejected++
		*events = append(*events, Event{
			Timestamp: in.Time,
			Type:      EventStartRejected,
			Trigger:   trigger,
			Reason:    reason,
		})
	}

	if !in.PumpAvailable {
		reject("actuator unavailable")
		return
	}
	// ANTI_STAGNATION protects the pump hardware itself and bypasses the
	// enable gate.
	if !c.pumpEnabled && trigger != TriggerAntiStagnation {
		reject("pump disabled")
		return
	}
	if math.IsNaN(in.Return) {
		reject("return sensor invalid")
		return
	}
	// Pre-heating warm water is wasted effort. Disinfection and
	// anti-stagnation must run regardless of temperature.
	if trigger != TriggerAntiStagnation && !c.disinfectionMode && in.Return >= c.cfg.MinReturnTemp {
		reject("return already warm")
		return
	}

	c.trigger = trigger
	c.baselineReturn = in.Return
	c.pumpRunning = true
	c.pumpStart = in.Time

	c.energyWh = 0
	c.energySamples = 0
	c.lastEnergyCalc = in.Time

	c.counts.PumpStarts++
	*events = append(*events, Event{Timestamp: in.Time, Type: EventPumpOn, Trigger: trigger})

	// Pump-induced warming must not open a detection episode.
	c.draw.Reset()
}

// pumpControl advances the RUNNING state by one tick: integrate energy,
// enforce the hard safety ceiling, then apply the per-trigger stop rule.
func (c *Controller) pumpControl(in Input, events *[]Event) {
	if !c.pumpRunning {
		return
	}

	c.integrateEnergy(in)

	elapsed := in.Time.Sub(c.pumpStart)

	// The safety ceiling holds for every trigger, including a mid-run NaN
	// return sensor.
	if elapsed >= c.cfg.MaxRunTime {
		c.stopPump("safety timeout", in, events)
		return
	}

	if c.trigger == TriggerAntiStagnation {
		if elapsed >= c.cfg.AntiStagnationRuntime {
			c.stopPump("anti-stagnation complete", in, events)
		}
		return
	}

	// Disinfection runs to the ceiling; temperature never stops it early.
	if c.disinfectionMode {
		return
	}

	if math.IsNaN(in.Return) {
		return
	}
	if elapsed >= c.cfg.MinRunTime &&
		in.Return >= c.baselineReturn+c.cfg.ReturnRise-returnTolerance {
		c.stopPump("target reached", in, events)
	}
}

// integrateEnergy accumulates instantaneous thermal power over the run.
// Reverse gradients contribute nothing; energy is never negative.
func (c *Controller) integrateEnergy(in Input) {
	if math.IsNaN(in.Outlet) || math.IsNaN(in.Return) {
		return
	}
	dt := in.Time.Sub(c.lastEnergyCalc)
	if dt < energyMinInterval {
		return
	}
	deltaT := in.Outlet - in.Return
	if deltaT > 0 {
		flowLs := c.cfg.FlowRate / 60.0
		powerW := flowLs * deltaT * specificHeat
		c.energyWh += powerW * dt.Hours()
		c.energySamples++
	}
	c.lastEnergyCalc = in.Time
}

// stopPump finalizes the cycle: duration and kWh, the 90/10 baseline-outlet
// update (skipped for disinfection runs — their elevated outlet would poison
// the estimate), actuator off, state cleared. A stop while idle is a no-op.
func (c *Controller) stopPump(reason string, in Input, events *[]Event) {
	if !c.pumpRunning {
		return
	}

	c.lastCycleSeconds = int(in.Time.Sub(c.pumpStart) / time.Second)
	c.lastCycleKWh = c.energyWh / 1000.0

	// The baseline is captured now, while fresh tank water is still at the
	// sensor; the connecting pipe re-cools within minutes.
	if !c.disinfectionMode && !math.IsNaN(in.Outlet) {
		if math.IsNaN(c.baselineOutlet) {
			c.baselineOutlet = in.Outlet
		} else {
			c.baselineOutlet = c.baselineOutlet*0.9 + in.Outlet*0.1
		}
	}

	stopped := c.trigger
	c.pumpRunning = false
	c.trigger = TriggerNone
	c.disinfectionMode = false
	c.lastRunTime = in.Time
	if in.Clock.Valid {
		c.lastRunEpoch = in.Clock.Epoch
	} else {
		c.lastRunEpoch = 0
	}

	c.counts.PumpStops++
	*events = append(*events, Event{
		Timestamp:    in.Time,
		Type:         EventPumpOff,
		Trigger:      stopped,
		Reason:       reason,
		CycleSeconds: c.lastCycleSeconds,
		CycleKWh:     c.lastCycleKWh,
	})

	c.draw.Reset()
}
