// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/water-system/internal/logic"
)

// Topic is the MQTT topic for pump and tank events.
const Topic = "water/system/events"

// TopicSystem is the MQTT topic for run lifecycle events.
const TopicSystem = "water/system/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a simulation event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "COMPLETE" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Water WaterPayload `json:"water"`
}

// WaterPayload contains the event details.
type WaterPayload struct {
	Timestamp string    `json:"timestamp"`
	Event     string    `json:"event"`
	Pump      PumpState `json:"pump"`
	TankA     TankState `json:"tank_a"`
	TankB     TankState `json:"tank_b"`
}

// PumpState represents the pump's commanded state.
type PumpState struct {
	State string `json:"state"`
}

// TankState represents a single tank's level as a fraction.
type TankState struct {
	Level float64 `json:"level"`
}

// FormatPayload creates the JSON payload for a simulation event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Water: WaterPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Pump:      PumpState{State: string(event.Pump)},
			TankA:     TankState{Level: float64(event.LevelA)},
			TankB:     TankState{Level: float64(event.LevelB)},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (the OFFLINE last will) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}
