package logic

import (
	"math"
	"time"
)

// DrawDetector converts the noisy outlet temperature series into a single
// confirmed event per sustained hot-water draw.
//
// Physics: the pipe between tank top and sensor cools while idle. When a tap
// opens, stratified hot water from the tank top reaches the sensor and it
// sees a RISE (typical 0.015–0.04 °C/s). A draw is confirmed when the rise
// persists for 15 s and accumulates past the configured threshold.
//
// IMPORTANT: the controller force-resets the detector while the pump runs —
// pump-induced warming must never confirm (or be learned) as a draw.
type DrawDetector struct {
	lastValue float64   // previous accepted sample, NaN before first
	lastCheck time.Time // time of previous accepted sample
	startedAt time.Time // episode open time, zero = idle
	startTemp float64   // outlet at episode open
	confirmed bool      // episode already fired
}

// NewDrawDetector returns an idle detector.
func NewDrawDetector() *DrawDetector {
	return &DrawDetector{lastValue: math.NaN(), startTemp: math.NaN()}
}

// Reset aborts the current episode. Sample pacing state is kept so the next
// accepted sample still has a sane elapsed interval.
func (d *DrawDetector) Reset() {
	d.startedAt = time.Time{}
	d.startTemp = math.NaN()
	d.confirmed = false
}

// Open reports whether a detection episode is in progress.
func (d *DrawDetector) Open() bool {
	return !d.startedAt.IsZero()
}

// Confirmed reports whether the current episode already fired.
func (d *DrawDetector) Confirmed() bool {
	return d.confirmed
}

// Sample feeds one outlet reading. It self-paces to 1 Hz: calls arriving
// within a second of the previous accepted sample are no-ops. Returns true
// exactly once per episode, at the moment the draw is confirmed.
func (d *DrawDetector) Sample(t float64, now time.Time, riseThreshold float64) bool {
	if math.IsNaN(t) {
		// Sensor fault: fail open, abort any episode.
		d.Reset()
		return false
	}

	if math.IsNaN(d.lastValue) {
		d.lastValue = t
		d.lastCheck = now
		d.Reset()
		return false
	}

	if now.Sub(d.lastCheck) < time.Second {
		return false
	}

	delta := t - d.lastValue
	elapsed := now.Sub(d.lastCheck).Seconds()
	rate := delta / elapsed

	fired := false
	if rate >= minDrawRate && delta > minDrawDelta {
		if d.startedAt.IsZero() {
			d.startedAt = now
			d.startTemp = t
		}
		totalRise := t - d.startTemp
		if now.Sub(d.startedAt) >= drawConfirmAfter && !d.confirmed && totalRise >= riseThreshold {
			d.confirmed = true
			fired = true
		}
	} else if !d.startedAt.IsZero() && !d.confirmed {
		// Not rising this second. Tolerate brief pauses; abort only on
		// sustained cooling or a stalled episode.
		totalRise := t - d.startTemp
		if rate < fallRate || totalRise < fallTotal || now.Sub(d.startedAt) > drawAbortAfter {
			d.Reset()
		}
	} else if d.confirmed && rate < fallRate {
		// Draw ended; pipe cooling back down.
		d.Reset()
	}

	d.lastValue = t
	d.lastCheck = now
	return fired
}
