// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/hotcirc/internal/logic"
)

// Topic is the MQTT topic for circulation controller events.
const Topic = "energy/hotwater/circulation/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "energy/hotwater/circulation/system"

// TopicMatrix is the MQTT topic for retained learning-matrix snapshots.
const TopicMatrix = "energy/hotwater/circulation/matrix"

// Publisher publishes controller telemetry.
type Publisher interface {
	// Publish sends a controller event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// PublishMatrix sends a retained learning-matrix snapshot.
	PublishMatrix(ts time.Time, m logic.Matrix, ecoThreshold uint8) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the controller event payload structure.
type Payload struct {
	Circulation CirculationPayload `json:"circulation"`
}

// CirculationPayload contains the controller event details.
type CirculationPayload struct {
	Timestamp    string  `json:"timestamp"`
	Event        string  `json:"event"`
	Trigger      string  `json:"trigger,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	CycleSeconds int     `json:"cycle_seconds,omitempty"`
	CycleKWh     float64 `json:"cycle_kwh,omitempty"`
	Day          *int    `json:"day,omitempty"`
	Slot         *int    `json:"slot,omitempty"`
}

// FormatPayload creates the JSON payload for a controller event.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := Payload{
		Circulation: CirculationPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Reason:    event.Reason,
		},
	}
	if event.Trigger != "" && event.Trigger != logic.TriggerNone {
		p.Circulation.Trigger = string(event.Trigger)
	}
	if event.Type == logic.EventPumpOff {
		p.Circulation.CycleSeconds = event.CycleSeconds
		p.Circulation.CycleKWh = event.CycleKWh
	}
	if event.Type == logic.EventDrawConfirmed && event.Day >= 0 {
		day, slot := event.Day, event.Slot
		p.Circulation.Day = &day
		p.Circulation.Slot = &slot
	}
	return json.Marshal(p)
}

// SystemPayload represents the payload for simple system events that don't
// carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// MatrixPayload represents the retained matrix snapshot payload.
type MatrixPayload struct {
	Matrix MatrixPayloadInner `json:"matrix"`
}

// MatrixPayloadInner contains the matrix snapshot details. Grid is indexed
// [day][slot] with day 0=Monday..6=Sunday.
type MatrixPayloadInner struct {
	Timestamp    string     `json:"timestamp"`
	EcoThreshold uint8      `json:"eco_threshold"`
	Grid         [7][48]int `json:"grid"`
}

// FormatMatrixPayload creates the JSON payload for a matrix snapshot.
func FormatMatrixPayload(ts time.Time, m logic.Matrix, ecoThreshold uint8) ([]byte, error) {
	inner := MatrixPayloadInner{
		Timestamp:    ts.UTC().Format(time.RFC3339),
		EcoThreshold: ecoThreshold,
	}
	for d := 0; d < 7; d++ {
		for s := 0; s < 48; s++ {
			inner.Grid[d][s] = int(m[d][s])
		}
	}
	return json.Marshal(MatrixPayload{Matrix: inner})
}
