package logic

import (
	"errors"
	"math"
	"testing"
	"time"
)

type systemParams struct {
	heightA, diameterA Length
	levelA             Level
	heightB, diameterB Length
	levelB             Level
	flowRate           Flow
	drainDiameter      Length
	setPoint, deadband Level
	integration        Integration
}

// defaultParams is the reference scenario: a 200mm tank half full draining
// into a full 100mm tank.
func defaultParams() systemParams {
	return systemParams{
		heightA: 200, diameterA: 100, levelA: 0.5,
		heightB: 100, diameterB: 100, levelB: 1.0,
		flowRate:      8000,
		drainDiameter: 9,
		setPoint:      0.5, deadband: 0.02,
	}
}

func newTestSystem(t *testing.T, p systemParams) (*WaterSystem, *manualClock) {
	t.Helper()
	clock := newManualClock()
	tankA, err := NewTank(p.heightA, p.diameterA, p.levelA)
	if err != nil {
		t.Fatal(err)
	}
	tankB, err := NewTank(p.heightB, p.diameterB, p.levelB)
	if err != nil {
		t.Fatal(err)
	}
	pump, err := NewPump(p.flowRate, DefaultMinRunTime, clock.Now)
	if err != nil {
		t.Fatal(err)
	}
	drain, err := NewDrain(p.drainDiameter)
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := NewControlSystem(pump, tankB, p.setPoint, p.deadband)
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWaterSystem(tankA, tankB, pump, drain, ctrl, p.integration)
	if err != nil {
		t.Fatal(err)
	}
	return w, clock
}

// mustStep runs one step and fails the test on error.
func mustStep(t *testing.T, w *WaterSystem, dt time.Duration) StepResult {
	t.Helper()
	res, err := w.Step(dt)
	if err != nil {
		t.Fatalf("step %v: %v", dt, err)
	}
	return res
}

func eventTypes(events []Event) []EventType {
	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func sameTypes(got, want []EventType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewWaterSystemValidation(t *testing.T) {
	tankA, _ := NewTank(200, 100, 0.5)
	tankB, _ := NewTank(100, 100, 1.0)
	pump, _ := NewPump(8000, DefaultMinRunTime, nil)
	otherPump, _ := NewPump(8000, DefaultMinRunTime, nil)
	drain, _ := NewDrain(9)
	ctrl, _ := NewControlSystem(pump, tankB, 0.5, 0.02)
	ctrlOnA, _ := NewControlSystem(pump, tankA, 0.5, 0.02)

	tests := []struct {
		name    string
		build   func() (*WaterSystem, error)
		wantErr error
	}{
		{"valid", func() (*WaterSystem, error) {
			return NewWaterSystem(tankA, tankB, pump, drain, ctrl, IntegrateCapacity)
		}, nil},
		{"nil tank", func() (*WaterSystem, error) {
			return NewWaterSystem(nil, tankB, pump, drain, ctrl, "")
		}, ErrNilComponent},
		{"nil controller", func() (*WaterSystem, error) {
			return NewWaterSystem(tankA, tankB, pump, drain, nil, "")
		}, ErrNilComponent},
		{"controller drives another pump", func() (*WaterSystem, error) {
			return NewWaterSystem(tankA, tankB, otherPump, drain, ctrl, "")
		}, ErrControlWiring},
		{"controller observes tank A", func() (*WaterSystem, error) {
			return NewWaterSystem(tankA, tankB, pump, drain, ctrlOnA, "")
		}, ErrControlWiring},
		{"same tank twice", func() (*WaterSystem, error) {
			return NewWaterSystem(tankB, tankB, pump, drain, ctrl, "")
		}, ErrControlWiring},
		{"zero value drain", func() (*WaterSystem, error) {
			return NewWaterSystem(tankA, tankB, pump, Drain{}, ctrl, "")
		}, ErrInvalidGeometry},
		{"unknown integration", func() (*WaterSystem, error) {
			return NewWaterSystem(tankA, tankB, pump, drain, ctrl, "rk4")
		}, ErrUnknownIntegration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := tt.build()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if w == nil {
					t.Error("expected a water system")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultIntegrationIsCapacity(t *testing.T) {
	w, _ := newTestSystem(t, defaultParams())
	if got := w.Integration(); got != IntegrateCapacity {
		t.Errorf("expected %q, got %q", IntegrateCapacity, got)
	}
}

func TestStepConservesVolumeWithPumpOff(t *testing.T) {
	p := defaultParams()
	p.levelA, p.levelB = 0.8, 0.3 // tank B below the band keeps the pump off
	w, _ := newTestSystem(t, p)

	beforeA, beforeB := w.TankA().Volume(), w.TankB().Volume()
	res := mustStep(t, w, time.Second)

	if w.Pump().IsOn() {
		t.Fatal("pump should stay off")
	}
	if res.Command != CommandOff {
		t.Errorf("expected command %v, got %v", CommandOff, res.Command)
	}
	if res.PumpVolume != 0 {
		t.Errorf("expected no pump volume, got %v", res.PumpVolume)
	}
	if res.DrainVolume <= 0 {
		t.Errorf("expected drain volume, got %v", res.DrainVolume)
	}

	dA := float64(w.TankA().Volume() - beforeA)
	dB := float64(w.TankB().Volume() - beforeB)
	if !near(dA+dB, 0, 1e-6) {
		t.Errorf("total volume changed by %v", dA+dB)
	}
	if !near(dA, -float64(res.DrainVolume), 1e-6) {
		t.Errorf("tank A changed by %v, drain moved %v", dA, res.DrainVolume)
	}
}

func TestStepEndToEndScenario(t *testing.T) {
	w, _ := newTestSystem(t, defaultParams())

	res := mustStep(t, w, time.Second)

	// Tank B starts above the band, so the controller turns the pump on
	// before the flows are computed.
	if res.Command != CommandOn || res.Pump != StateOn {
		t.Errorf("expected pump commanded on, got command %v state %v", res.Command, res.Pump)
	}
	if res.Pressure != 0 {
		t.Errorf("both water columns start at 100mm, got pressure %v", res.Pressure)
	}
	if res.PumpVolume != 8000 || res.DrainVolume != 0 || res.Net != 8000 {
		t.Errorf("volumes: pump %v drain %v net %v", res.PumpVolume, res.DrainVolume, res.Net)
	}

	capA := math.Pi * 50 * 50 * 200
	capB := math.Pi * 50 * 50 * 100
	if got := float64(w.TankA().Level()); !near(got, 0.5+8000/capA, 1e-12) {
		t.Errorf("tank A level: expected %v, got %v", 0.5+8000/capA, got)
	}
	if got := float64(w.TankB().Level()); !near(got, 1.0-8000/capB, 1e-12) {
		t.Errorf("tank B level: expected %v, got %v", 1.0-8000/capB, got)
	}
	if w.TankB().Level() >= 1 {
		t.Error("tank B should drop below full")
	}
	if got := float64(res.DeltaA); !near(got, 8000/capA, 1e-12) {
		t.Errorf("delta A: expected %v, got %v", 8000/capA, got)
	}
	if got := float64(res.DeltaB); !near(got, -8000/capB, 1e-12) {
		t.Errorf("delta B: expected %v, got %v", -8000/capB, got)
	}

	if len(res.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(res.Events))
	}
	e := res.Events[0]
	if e.Type != EventPumpOn || e.Pump != StateOn {
		t.Errorf("expected PUMP_ON with pump on, got %v %v", e.Type, e.Pump)
	}
	if e.LevelB != w.TankB().Level() {
		t.Errorf("event should carry post-step level, got %v", e.LevelB)
	}
}

func TestStepEndToEndScenarioVolumeIntegration(t *testing.T) {
	p := defaultParams()
	p.integration = IntegrateVolume
	w, _ := newTestSystem(t, p)

	res := mustStep(t, w, time.Second)
	if res.Net != 8000 {
		t.Errorf("expected net 8000, got %v", res.Net)
	}

	// Both tanks hold the same pre-step volume, so both levels move by the
	// same fraction.
	volA := 0.5 * math.Pi * 50 * 50 * 200
	volB := 1.0 * math.Pi * 50 * 50 * 100
	if got := float64(w.TankA().Level()); !near(got, 0.5+8000/volA, 1e-12) {
		t.Errorf("tank A level: expected %v, got %v", 0.5+8000/volA, got)
	}
	if got := float64(w.TankB().Level()); !near(got, 1.0-8000/volB, 1e-12) {
		t.Errorf("tank B level: expected %v, got %v", 1.0-8000/volB, got)
	}
}

func TestStepDrainNeverReverses(t *testing.T) {
	p := defaultParams()
	p.heightA, p.levelA = 100, 0.2
	p.heightB, p.levelB = 100, 0.4 // B higher than A, below the band
	w, _ := newTestSystem(t, p)

	if w.Pressure() != 0 || w.DrainFlow() != 0 {
		t.Errorf("expected no pressure or drain flow, got %v %v", w.Pressure(), w.DrainFlow())
	}

	res := mustStep(t, w, time.Second)
	if res.DrainVolume != 0 || res.Net != 0 {
		t.Errorf("expected no flow, got drain %v net %v", res.DrainVolume, res.Net)
	}
	if w.TankA().Level() != 0.2 || w.TankB().Level() != 0.4 {
		t.Errorf("levels moved: A %v B %v", w.TankA().Level(), w.TankB().Level())
	}
}

func TestStepNegativeDelta(t *testing.T) {
	w, _ := newTestSystem(t, defaultParams())

	_, err := w.Step(-time.Millisecond)
	if !errors.Is(err, ErrNegativeStep) {
		t.Fatalf("expected ErrNegativeStep, got %v", err)
	}
	if w.Pump().IsOn() {
		t.Error("controller must not run on a rejected step")
	}
	if w.TankA().Level() != 0.5 || w.TankB().Level() != 1.0 {
		t.Errorf("levels moved: A %v B %v", w.TankA().Level(), w.TankB().Level())
	}
	if got := w.Counts().Steps; got != 0 {
		t.Errorf("rejected step was counted: %d", got)
	}
}

func TestStepZeroDelta(t *testing.T) {
	w, _ := newTestSystem(t, defaultParams())

	res := mustStep(t, w, 0)
	if res.Net != 0 {
		t.Errorf("expected no net volume, got %v", res.Net)
	}
	if !w.Pump().IsOn() {
		t.Error("controller still runs on a zero step")
	}
	if w.TankA().Level() != 0.5 || w.TankB().Level() != 1.0 {
		t.Errorf("levels moved: A %v B %v", w.TankA().Level(), w.TankB().Level())
	}
}

func TestStepEmptyTankVolumeIntegration(t *testing.T) {
	p := defaultParams()
	p.levelA = 0
	p.integration = IntegrateVolume
	w, _ := newTestSystem(t, p)

	_, err := w.Step(time.Second)
	if !errors.Is(err, ErrEmptyTank) {
		t.Fatalf("expected ErrEmptyTank, got %v", err)
	}
	if w.Pump().IsOn() {
		t.Error("controller must not run when the step is rejected")
	}
	if w.TankA().Level() != 0 {
		t.Errorf("tank A level moved to %v", w.TankA().Level())
	}
}

func TestStepEmptyTankCapacityIntegration(t *testing.T) {
	p := defaultParams()
	p.levelA = 0
	w, _ := newTestSystem(t, p)

	mustStep(t, w, time.Second)
	if w.TankA().Level() <= 0 {
		t.Errorf("tank A should fill, got %v", w.TankA().Level())
	}
}

func TestStepOverflowClampsAndReportsOnce(t *testing.T) {
	p := defaultParams()
	p.heightA, p.levelA = 100, 0.999
	p.levelB = 0.9
	w, _ := newTestSystem(t, p)

	res := mustStep(t, w, 10*time.Second)
	if w.TankA().Level() != 1 {
		t.Errorf("tank A should clamp at 1, got %v", w.TankA().Level())
	}
	want := []EventType{EventPumpOn, EventTankAOverflow}
	if got := eventTypes(res.Events); !sameTypes(got, want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}

	condA, condB := w.Conditions()
	if condA != ConditionOverflow || condB != ConditionNormal {
		t.Errorf("conditions: A %v B %v", condA, condB)
	}

	res = mustStep(t, w, 10*time.Second)
	if len(res.Events) != 0 {
		t.Errorf("overflow is reported when entered, not every step: %v", eventTypes(res.Events))
	}
	if got := w.Counts().Overflows; got != 1 {
		t.Errorf("expected 1 overflow, got %d", got)
	}
}

func TestStepUnderflowClamps(t *testing.T) {
	p := defaultParams()
	p.heightA, p.levelA = 1000, 0.1
	p.levelB = 0.55
	p.flowRate = 1e6
	w, _ := newTestSystem(t, p)

	res := mustStep(t, w, time.Second)
	if w.TankB().Level() != 0 {
		t.Errorf("tank B should clamp at 0, got %v", w.TankB().Level())
	}
	if res.DeltaB != -0.55 {
		t.Errorf("delta reports the clamped change, got %v", res.DeltaB)
	}

	want := []EventType{EventPumpOn, EventTankBUnderflow}
	if got := eventTypes(res.Events); !sameTypes(got, want) {
		t.Errorf("expected events %v, got %v", want, got)
	}
	if got := w.Counts().Underflows; got != 1 {
		t.Errorf("expected 1 underflow, got %d", got)
	}
}

func TestStepPumpTransitionsAndCounts(t *testing.T) {
	p := defaultParams()
	p.levelB = 0.53
	w, clock := newTestSystem(t, p)

	res := mustStep(t, w, 0)
	if len(res.Events) != 1 || res.Events[0].Type != EventPumpOn {
		t.Fatalf("expected PUMP_ON, got %v", eventTypes(res.Events))
	}
	if !res.Events[0].Timestamp.Equal(clock.Now()) {
		t.Errorf("event timestamp %v, want %v", res.Events[0].Timestamp, clock.Now())
	}

	w.TankB().level = 0.47
	clock.Advance(time.Second)
	res = mustStep(t, w, 0)
	if len(res.Events) != 0 {
		t.Errorf("lockout holds the pump on, got %v", eventTypes(res.Events))
	}

	clock.Advance(time.Second)
	res = mustStep(t, w, 0)
	if len(res.Events) != 1 || res.Events[0].Type != EventPumpOff {
		t.Fatalf("expected PUMP_OFF, got %v", eventTypes(res.Events))
	}
	if res.Events[0].Pump != StateOff {
		t.Errorf("expected pump off in event, got %v", res.Events[0].Pump)
	}

	want := Counts{Steps: 3, PumpOn: 1, PumpOff: 1}
	if got := w.Counts(); got != want {
		t.Errorf("expected counts %+v, got %+v", want, got)
	}
}

func TestLongRunCyclesAndConservesVolume(t *testing.T) {
	w, clock := newTestSystem(t, defaultParams())
	total := w.TankA().Volume() + w.TankB().Volume()

	var events []EventType
	dt := 100 * time.Millisecond
	for i := 0; i < 3000; i++ {
		clock.Advance(dt)
		res := mustStep(t, w, dt)
		events = append(events, eventTypes(res.Events)...)

		a, b := w.TankA().Level(), w.TankB().Level()
		if a < 0 || a > 1 || b < 0 || b > 1 {
			t.Fatalf("step %d: levels out of range: A %v B %v", i, a, b)
		}
	}

	after := w.TankA().Volume() + w.TankB().Volume()
	if !near(float64(after), float64(total), 1e-3) {
		t.Errorf("total volume drifted from %v to %v", total, after)
	}

	if len(events) < 3 {
		t.Fatalf("pump should cycle, got events %v", events)
	}
	for i, e := range events {
		want := EventPumpOn
		if i%2 == 1 {
			want = EventPumpOff
		}
		if e != want {
			t.Errorf("event %d: expected %v, got %v", i, want, e)
		}
	}

	counts := w.Counts()
	if counts.Steps != 3000 {
		t.Errorf("expected 3000 steps, got %d", counts.Steps)
	}
	if counts.Overflows != 0 || counts.Underflows != 0 {
		t.Errorf("unexpected clamps: %+v", counts)
	}
}

func TestReading(t *testing.T) {
	p := defaultParams()
	p.levelA, p.levelB = 0.8, 0.3
	w, _ := newTestSystem(t, p)

	r := w.Reading()
	if r.LevelA != 0.8 || r.LevelB != 0.3 {
		t.Errorf("levels: A %v B %v", r.LevelA, r.LevelB)
	}
	if !near(float64(r.WaterHeightA), 160, 1e-9) || !near(float64(r.WaterHeightB), 30, 1e-9) {
		t.Errorf("water heights: A %v B %v", r.WaterHeightA, r.WaterHeightB)
	}
	if r.Pump != StateOff || r.PumpFlow != 0 {
		t.Errorf("pump: %v flow %v", r.Pump, r.PumpFlow)
	}
	if want := 130 * math.Pi * 4.5 * 4.5; !near(float64(r.DrainFlow), want, 1e-6) {
		t.Errorf("drain flow: expected %v, got %v", want, r.DrainFlow)
	}
}

func TestCheckHeartbeat(t *testing.T) {
	w, clock := newTestSystem(t, defaultParams())
	start := clock.Now()

	if hb := w.CheckHeartbeat(start.Add(time.Hour), 0); hb != nil {
		t.Error("heartbeat should be disabled for zero interval")
	}
	if hb := w.CheckHeartbeat(start.Add(30*time.Second), time.Minute); hb != nil {
		t.Error("heartbeat should not fire before the interval")
	}

	mustStep(t, w, time.Second)

	hb := w.CheckHeartbeat(start.Add(time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("uptime: expected 1m, got %v", hb.Uptime)
	}
	if hb.Counts.Steps != 1 || hb.Counts.PumpOn != 1 {
		t.Errorf("counts: %+v", hb.Counts)
	}
	if hb.Reading.Pump != StateOn {
		t.Errorf("expected pump on in heartbeat, got %v", hb.Reading.Pump)
	}

	if hb := w.CheckHeartbeat(start.Add(90*time.Second), time.Minute); hb != nil {
		t.Error("heartbeat interval should restart from the last heartbeat")
	}
	if hb := w.CheckHeartbeat(start.Add(2*time.Minute), time.Minute); hb == nil {
		t.Error("expected second heartbeat")
	}
}
