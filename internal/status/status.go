// Package status provides a thread-safe view of the running simulation.
// The run loop writes it every tick; HTTP handlers and MQTT lifecycle
// events read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/water-system/internal/logic"
)

// Config contains run configuration for display.
type Config struct {
	TickMs      int64
	DurationMs  int64
	PrintMs     int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	PlotPath    string
	Integration string
	PumpPin     int
}

// Snapshot is a point-in-time view of simulation state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	RunID         string
	Reading       logic.Reading
	Counts        logic.Counts
	CondA         logic.Condition
	CondB         logic.Condition
	SimTime       time.Duration
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the wall-clock duration since the run started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable run state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, run ID and config.
func NewTracker(startTime time.Time, runID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			RunID:     runID,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the clock used to stamp snapshots.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Update records the latest reading, counts, tank conditions and simulated
// time. Called from the run loop after every step.
func (t *Tracker) Update(r logic.Reading, counts logic.Counts, condA, condB logic.Condition, simTime time.Duration) {
	t.mu.Lock()
	t.snap.Reading = r
	t.snap.Counts = counts
	t.snap.CondA = condA
	t.snap.CondB = condB
	t.snap.SimTime = simTime
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the run state.
// The Now field is set from the tracker clock at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
