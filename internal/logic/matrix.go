package logic

import (
	"encoding/binary"
	"errors"
	"math"
)

// Matrix is the 7×48 usage-intensity grid: day 0=Mon..6=Sun, slot 0..47 in
// 30-minute buckets. Cells are saturating counters.
type Matrix [7][48]uint8

const (
	// learnIncrement is added to the current slot on each confirmed draw.
	learnIncrement = 40
	// decayFactor is applied to every cell once per calendar day.
	decayFactor = 0.98

	// RecordSize is the persisted layout: 336 grid bytes plus a 4-byte
	// little-endian additive checksum.
	RecordSize = 7*48 + 4
)

// ErrBadRecord reports a record of the wrong size or with a checksum that
// does not match its cells (legacy format or flash corruption).
var ErrBadRecord = errors.New("logic: invalid matrix record")

// DayIndex converts a clock day-of-week (1=Sunday..7=Saturday) to the
// internal index (0=Monday..6=Sunday). Out-of-range input clamps to 0.
func DayIndex(rawDOW int) int {
	var wd int
	if rawDOW == 1 {
		wd = 6
	} else {
		wd = rawDOW - 2
	}
	if wd < 0 || wd > 6 {
		return 0
	}
	return wd
}

// SlotIndex converts a wall-clock hour/minute to a 30-minute slot, clamped
// to [0,47].
func SlotIndex(hour, minute int) int {
	slot := hour*2 + boolToInt(minute >= 30)
	if slot < 0 {
		return 0
	}
	if slot > 47 {
		return 47
	}
	return slot
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Increment applies a saturating add of the learning increment to one cell.
func (m *Matrix) Increment(day, slot int) {
	v := uint16(m[day][slot]) + learnIncrement
	if v > 255 {
		v = 255
	}
	m[day][slot] = uint8(v)
}

// Decay multiplies every cell by the daily decay factor, rounding to nearest.
func (m *Matrix) Decay() {
	for d := 0; d < 7; d++ {
		for s := 0; s < 48; s++ {
			m[d][s] = uint8(math.Round(float64(m[d][s]) * decayFactor))
		}
	}
}

// Checksum returns the additive checksum over all 336 cells.
func (m *Matrix) Checksum() uint32 {
	var sum uint32
	for d := 0; d < 7; d++ {
		for s := 0; s < 48; s++ {
			sum += uint32(m[d][s])
		}
	}
	return sum
}

// Encode serializes the matrix into the fixed persisted record.
func (m *Matrix) Encode() []byte {
	buf := make([]byte, RecordSize)
	i := 0
	for d := 0; d < 7; d++ {
		for s := 0; s < 48; s++ {
			buf[i] = m[d][s]
			i++
		}
	}
	binary.LittleEndian.PutUint32(buf[i:], m.Checksum())
	return buf
}

// DecodeMatrix parses a persisted record, validating size and checksum.
// A failed decode returns ErrBadRecord; callers fall back to the seed
// pattern rather than treating this as fatal.
func DecodeMatrix(data []byte) (Matrix, error) {
	var m Matrix
	if len(data) != RecordSize {
		return m, ErrBadRecord
	}
	i := 0
	for d := 0; d < 7; d++ {
		for s := 0; s < 48; s++ {
			m[d][s] = data[i]
			i++
		}
	}
	stored := binary.LittleEndian.Uint32(data[i:])
	if stored != m.Checksum() {
		return Matrix{}, ErrBadRecord
	}
	return m, nil
}

// SeedMatrix returns the built-in typical household pattern used when no
// valid record exists. Weekdays get morning shower, lunch, dinner and
// evening peaks; weekends shift the morning later.
func SeedMatrix() Matrix {
	var m Matrix
	for d := 0; d < 5; d++ {
		// Morning shower 06:00–08:29
		m[d][12] = 80
		m[d][13] = 120
		m[d][14] = 120
		m[d][15] = 100
		m[d][16] = 80
		// Lunch 11:30–12:59
		m[d][23] = 80
		m[d][24] = 100
		m[d][25] = 80
		// Dinner 18:00–18:59
		m[d][36] = 100
		m[d][37] = 100
		// Evening bath 21:00–21:59
		m[d][42] = 100
		m[d][43] = 80
	}
	for d := 5; d < 7; d++ {
		// Later morning 08:00–09:59
		m[d][16] = 80
		m[d][17] = 100
		m[d][18] = 100
		m[d][19] = 80
		// Lunch 12:00–12:59
		m[d][24] = 100
		m[d][25] = 80
		// Dinner 18:30–19:29
		m[d][37] = 100
		m[d][38] = 80
		// Evening 21:00–21:59
		m[d][42] = 100
		m[d][43] = 80
	}
	return m
}
