package onewire

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DS18B20 reads a single probe through the kernel w1 therm driver.
type DS18B20 struct {
	path string
}

// NewDS18B20 creates a reader for the probe with the given device ID
// (e.g. "28-0316a2795b1a") on the default bus directory.
func NewDS18B20(deviceID string) *DS18B20 {
	return &DS18B20{path: filepath.Join(DefaultBusDir, deviceID, "w1_slave")}
}

// Read parses the probe's w1_slave file. A failed CRC is a transient sensor
// fault and yields NaN; a missing or unreadable file is a bus error.
func (d *DS18B20) Read() (float64, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return math.NaN(), fmt.Errorf("read %s: %w", d.path, err)
	}
	return parseW1Slave(string(data))
}

// parseW1Slave extracts the temperature from w1_slave file contents:
//
//	6f 01 4b 46 7f ff 01 10 57 : crc=57 YES
//	6f 01 4b 46 7f ff 01 10 57 t=22937
func parseW1Slave(s string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) < 2 {
		return math.NaN(), fmt.Errorf("malformed w1_slave data")
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		// CRC failure: treat as an invalid sample, not an error.
		return math.NaN(), nil
	}
	idx := strings.LastIndex(lines[1], "t=")
	if idx < 0 {
		return math.NaN(), fmt.Errorf("missing t= field")
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][idx+2:]))
	if err != nil {
		return math.NaN(), fmt.Errorf("parse temperature: %w", err)
	}
	return float64(milli) / 1000.0, nil
}
