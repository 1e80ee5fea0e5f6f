// Package onewire reads DS18B20 temperature probes via the Linux w1 sysfs
// interface. The real implementation parses w1_slave files; the fake allows
// testing without hardware.
package onewire

// Sensor reads one temperature probe.
type Sensor interface {
	// Read returns the temperature in °C. A sensor fault is reported as
	// (NaN, nil) so callers treat it as an invalid sample rather than a
	// hard error; err is reserved for bus-level failures.
	Read() (float64, error)
}

// DefaultBusDir is where the kernel w1 driver exposes enumerated slaves.
const DefaultBusDir = "/sys/bus/w1/devices"
