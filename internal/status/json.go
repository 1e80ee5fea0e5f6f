package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string     `json:"event,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	Pump             string     `json:"pump"`
	Trigger          string     `json:"trigger"`
	PumpEnabled      bool       `json:"pump_enabled"`
	LearningEnabled  bool       `json:"learning_enabled"`
	Vacation         bool       `json:"vacation"`
	Disinfection     bool       `json:"disinfection"`
	OutletC          *float64   `json:"outlet_c"`
	ReturnC          *float64   `json:"return_c"`
	BaselineOutletC  *float64   `json:"baseline_outlet_c"`
	LastCycleSeconds int        `json:"last_cycle_seconds"`
	LastCycleKWh     float64    `json:"last_cycle_kwh"`
	UptimeSeconds    int64      `json:"uptime_seconds"`
	StartTime        string     `json:"start_time"`
	Timestamp        string     `json:"timestamp"`
	MQTT             MQTTStatus `json:"mqtt"`
	Counts           CountsJSON `json:"counts"`
	Config           ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counters.
type CountsJSON struct {
	DrawsConfirmed int `json:"draws_confirmed"`
	PumpStarts     int `json:"pump_starts"`
	PumpStops      int `json:"pump_stops"`
	StartsRejected int `json:"starts_rejected"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs        int64   `json:"tick_ms"`
	HeartbeatMs   int64   `json:"heartbeat_ms"`
	Broker        string  `json:"broker"`
	HTTPAddr      string  `json:"http_addr"`
	StateFile     string  `json:"state_file"`
	OutletRise    float64 `json:"outlet_rise"`
	ReturnRise    float64 `json:"return_rise"`
	MinReturnTemp float64 `json:"min_return_temp"`
	EcoThreshold  uint8   `json:"eco_threshold"`
}

// tempOrNull maps NaN (invalid sensor) to a JSON null.
func tempOrNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func pumpString(running bool) string {
	if running {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Pump:             pumpString(snap.PumpRunning),
		Trigger:          string(snap.Trigger),
		PumpEnabled:      snap.PumpEnabled,
		LearningEnabled:  snap.LearningEnabled,
		Vacation:         snap.Vacation,
		Disinfection:     snap.Disinfection,
		OutletC:          tempOrNull(snap.Outlet),
		ReturnC:          tempOrNull(snap.Return),
		BaselineOutletC:  tempOrNull(snap.BaselineOutlet),
		LastCycleSeconds: snap.LastCycleSeconds,
		LastCycleKWh:     snap.LastCycleKWh,
		UptimeSeconds:    int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:        snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:        snap.Now.UTC().Format(time.RFC3339),
		MQTT:             MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			DrawsConfirmed: snap.Counts.DrawsConfirmed,
			PumpStarts:     snap.Counts.PumpStarts,
			PumpStops:      snap.Counts.PumpStops,
			StartsRejected: snap.Counts.StartsRejected,
		},
		Config: ConfigJSON{
			TickMs:        snap.Config.TickMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
			StateFile:     snap.Config.StateFile,
			OutletRise:    snap.Config.OutletRise,
			ReturnRise:    snap.Config.ReturnRise,
			MinReturnTemp: snap.Config.MinReturnTemp,
			EcoThreshold:  snap.Config.EcoThreshold,
		},
	}
}

// FormatJSON renders a snapshot for the HTTP status endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent renders a snapshot as a system event payload
// (STARTUP/SHUTDOWN/HEARTBEAT with the full status embedded).
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
