package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	RunID         string     `json:"run_id"`
	Pump          PumpJSON   `json:"pump"`
	TankA         TankJSON   `json:"tank_a"`
	TankB         TankJSON   `json:"tank_b"`
	DrainFlow     float64    `json:"drain_flow_mm3s"`
	SimSeconds    float64    `json:"sim_seconds"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// PumpJSON reports the pump state and its current flow.
type PumpJSON struct {
	State string  `json:"state"`
	Flow  float64 `json:"flow_mm3s"`
}

// TankJSON reports a tank's level, water height and boundary condition.
type TankJSON struct {
	Level       float64 `json:"level"`
	WaterHeight float64 `json:"water_height_mm"`
	Condition   string  `json:"condition,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of run counts.
type CountsJSON struct {
	Steps      int `json:"steps"`
	PumpOn     int `json:"pump_on"`
	PumpOff    int `json:"pump_off"`
	Overflows  int `json:"overflows"`
	Underflows int `json:"underflows"`
}

// ConfigJSON is the JSON representation of run config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	DurationMs  int64  `json:"duration_ms"`
	PrintMs     int64  `json:"print_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	PlotPath    string `json:"plot_path,omitempty"`
	Integration string `json:"integration"`
	PumpPin     int    `json:"pump_pin"`
}

func buildInner(snap Snapshot) StatusInner {
	pump := string(snap.Reading.Pump)
	if pump == "" {
		pump = "UNKNOWN"
	}

	return StatusInner{
		RunID: snap.RunID,
		Pump:  PumpJSON{State: pump, Flow: float64(snap.Reading.PumpFlow)},
		TankA: TankJSON{
			Level:       float64(snap.Reading.LevelA),
			WaterHeight: float64(snap.Reading.WaterHeightA),
			Condition:   string(snap.CondA),
		},
		TankB: TankJSON{
			Level:       float64(snap.Reading.LevelB),
			WaterHeight: float64(snap.Reading.WaterHeightB),
			Condition:   string(snap.CondB),
		},
		DrainFlow:     float64(snap.Reading.DrainFlow),
		SimSeconds:    snap.SimTime.Seconds(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Steps:      snap.Counts.Steps,
			PumpOn:     snap.Counts.PumpOn,
			PumpOff:    snap.Counts.PumpOff,
			Overflows:  snap.Counts.Overflows,
			Underflows: snap.Counts.Underflows,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			DurationMs:  snap.Config.DurationMs,
			PrintMs:     snap.Config.PrintMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			PlotPath:    snap.Config.PlotPath,
			Integration: snap.Config.Integration,
			PumpPin:     snap.Config.PumpPin,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
