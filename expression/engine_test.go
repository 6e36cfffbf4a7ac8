package expression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airgrid/tracking"
)

func testFinger() tracking.FingerID {
	return tracking.FingerID{Hand: "left_0", Finger: tracking.Index}
}

func TestVelocity(t *testing.T) {
	e := NewEngine(DefaultConfig())

	assert.Equal(t, 64, e.Velocity(0, 1.0), "no movement stays neutral")
	assert.Equal(t, 64, e.Velocity(0.005, 1.0), "sub-threshold speed stays neutral")
	assert.Equal(t, 64, e.Velocity(0.1, 0), "zero dt falls back, not an error")
	assert.Equal(t, 64, e.Velocity(0.1, -1.0), "negative dt falls back")
	assert.Equal(t, 127, e.Velocity(1.0, 1.0), "caps at full velocity")
	assert.Equal(t, 127, e.Velocity(5.0, 1.0))

	v := e.Velocity(0.1, 1.0)
	assert.GreaterOrEqual(t, v, 1)
	assert.LessOrEqual(t, v, 127)
}

func TestPressureBoundaries(t *testing.T) {
	e := NewEngine(DefaultConfig())

	assert.Equal(t, 127, e.Pressure(-0.2), "at minimum depth")
	assert.Equal(t, 0, e.Pressure(0.2), "at maximum depth")
	assert.Equal(t, 127, e.Pressure(-1.0), "clamped below range")
	assert.Equal(t, 0, e.Pressure(1.0), "clamped above range")

	mid := e.Pressure(0)
	assert.Greater(t, mid, 0)
	assert.Less(t, mid, 127)
}

func TestPressureMonotonic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	prev := 128
	for z := -0.3; z <= 0.3; z += 0.05 {
		p := e.Pressure(z)
		assert.LessOrEqual(t, p, prev, "pressure must not increase with depth (z=%v)", z)
		prev = p
	}
}

func TestPitchBendSign(t *testing.T) {
	e := NewEngine(DefaultConfig())
	id := testFinger()

	// Rightward swipe.
	for _, x := range []float64{0.1, 0.2, 0.3, 0.4} {
		e.updateTrajectory(id, x, 0.5)
	}
	assert.Positive(t, e.PitchBend(id))

	// Leftward swipe.
	e.Reset()
	for _, x := range []float64{0.4, 0.3, 0.2, 0.1} {
		e.updateTrajectory(id, x, 0.5)
	}
	assert.Negative(t, e.PitchBend(id))
}

func TestPitchBendFlat(t *testing.T) {
	e := NewEngine(DefaultConfig())
	id := testFinger()

	for i := 0; i < 4; i++ {
		e.updateTrajectory(id, 0.5001+float64(i%2)*0.0002, 0.5)
	}
	assert.Equal(t, 0, e.PitchBend(id), "near-flat slope must be exactly zero")
}

func TestPitchBendNeedsHistory(t *testing.T) {
	e := NewEngine(DefaultConfig())
	id := testFinger()

	assert.Equal(t, 0, e.PitchBend(id), "no trajectory")
	e.updateTrajectory(id, 0.5, 0.5)
	assert.Equal(t, 0, e.PitchBend(id), "one sample is not a trend")
}

func TestPitchBendClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PitchBendSensitivity = 100
	e := NewEngine(cfg)
	id := testFinger()

	for _, x := range []float64{0.0, 0.3, 0.6, 0.9} {
		e.updateTrajectory(id, x, 0.5)
	}
	assert.Equal(t, 8191, e.PitchBend(id))

	e.Reset()
	for _, x := range []float64{0.9, 0.6, 0.3, 0.0} {
		e.updateTrajectory(id, x, 0.5)
	}
	assert.Equal(t, -8192, e.PitchBend(id))
}

func TestVerticalCC(t *testing.T) {
	e := NewEngine(DefaultConfig())

	assert.Equal(t, 64, e.VerticalCC(0))
	assert.Less(t, e.VerticalCC(-0.01), 64, "upward movement goes below center")
	assert.Greater(t, e.VerticalCC(0.01), 64, "downward movement goes above center")
	assert.Equal(t, 0, e.VerticalCC(-1))
	assert.Equal(t, 127, e.VerticalCC(1))
}

func TestModulation(t *testing.T) {
	e := NewEngine(DefaultConfig())

	m := e.Modulation(0.01)
	assert.GreaterOrEqual(t, m, 0)
	assert.LessOrEqual(t, m, 127)
	assert.Equal(t, 127, e.Modulation(0.5), "caps at maximum")
	assert.Equal(t, 0, e.Modulation(0))
}

func TestExtract(t *testing.T) {
	e := NewEngine(DefaultConfig())
	index := testFinger()
	middle := tracking.FingerID{Hand: "left_0", Finger: tracking.Middle}

	current := map[tracking.FingerID]tracking.Sample{
		index:  {X: 0.5, Y: 0.5, Z: 0.0},
		middle: {X: 0.6, Y: 0.5, Z: -0.05},
	}
	previous := map[tracking.FingerID]tracking.Sample{
		index:  {X: 0.4, Y: 0.5, Z: 0.0},
		middle: {X: 0.55, Y: 0.5, Z: -0.03},
	}

	vectors := e.Extract(current, previous, 33*time.Millisecond)
	require.Len(t, vectors, 2)
	for id, v := range vectors {
		assert.Equal(t, AllFields, v.Fields, "%v", id)
		assert.GreaterOrEqual(t, v.Velocity, 1)
		assert.LessOrEqual(t, v.Velocity, 127)
	}
	assert.Greater(t, vectors[middle].Pressure, vectors[index].Pressure, "closer finger presses harder")
}

func TestExtractNoBaseline(t *testing.T) {
	e := NewEngine(DefaultConfig())
	id := testFinger()
	sample := map[tracking.FingerID]tracking.Sample{id: {X: 0.5, Y: 0.5}}

	assert.Empty(t, e.Extract(nil, sample, time.Second))
	assert.Empty(t, e.Extract(sample, nil, time.Second))
	assert.Empty(t, e.Extract(map[tracking.FingerID]tracking.Sample{}, sample, time.Second))
}

func TestExtractSkipsUnmatchedFinger(t *testing.T) {
	e := NewEngine(DefaultConfig())
	index := testFinger()
	ring := tracking.FingerID{Hand: "left_0", Finger: tracking.Ring}

	current := map[tracking.FingerID]tracking.Sample{
		index: {X: 0.5, Y: 0.5},
		ring:  {X: 0.2, Y: 0.2},
	}
	previous := map[tracking.FingerID]tracking.Sample{
		index: {X: 0.4, Y: 0.5},
	}

	vectors := e.Extract(current, previous, 33*time.Millisecond)
	require.Len(t, vectors, 1)
	_, ok := vectors[index]
	assert.True(t, ok)
}

func TestTrajectoryBoundedAndPruned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrajectoryLength = 3
	e := NewEngine(cfg)
	id := testFinger()

	for i := 0; i < 5; i++ {
		e.updateTrajectory(id, float64(i)*0.1, 0.5)
	}
	assert.Len(t, e.trajectories[id].points, 3, "oldest entries evicted")

	// A frame without this finger prunes its trajectory.
	other := tracking.FingerID{Hand: "right_0", Finger: tracking.Index}
	current := map[tracking.FingerID]tracking.Sample{other: {X: 0.5, Y: 0.5}}
	previous := map[tracking.FingerID]tracking.Sample{other: {X: 0.4, Y: 0.5}}
	e.Extract(current, previous, 33*time.Millisecond)
	_, ok := e.trajectories[id]
	assert.False(t, ok)

	e.Reset()
	assert.Equal(t, 0, e.ActiveTrajectories())
}

func TestAggregate(t *testing.T) {
	full := func(vel, press, bend, vert, mod int) Vector {
		return Vector{Velocity: vel, Pressure: press, PitchBend: bend, VerticalCC: vert, Modulation: mod, Fields: AllFields}
	}

	got := Aggregate([]Vector{full(100, 80, 1000, 70, 20), full(50, 40, -2001, 60, 10)})
	assert.Equal(t, 75, got.Velocity)
	assert.Equal(t, 60, got.Pressure)
	assert.Equal(t, -500, got.PitchBend, "mean truncates toward zero")
	assert.Equal(t, 65, got.VerticalCC)
	assert.Equal(t, 15, got.Modulation)
	assert.Equal(t, AllFields, got.Fields)
}

func TestAggregateEmptyIsNeutral(t *testing.T) {
	got := Aggregate(nil)
	assert.Equal(t, Neutral(), got)
	assert.Equal(t, 64, got.Velocity)
	assert.Equal(t, 64, got.Pressure)
	assert.Equal(t, 0, got.PitchBend)
	assert.Equal(t, 64, got.VerticalCC)
	assert.Equal(t, 0, got.Modulation)
}

func TestAggregatePartialVectors(t *testing.T) {
	pressureOnly := Vector{Pressure: 100, Fields: FieldPressure}
	got := Aggregate([]Vector{pressureOnly})
	assert.Equal(t, 100, got.Pressure)
	assert.Equal(t, NeutralVelocity, got.Velocity, "missing fields average to neutral")
	assert.Equal(t, NeutralPitchBend, got.PitchBend)
}
