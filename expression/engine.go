package expression

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"airgrid/tracking"
)

// Config holds the per-signal scaling and threshold factors.
type Config struct {
	VelocityScaling   float64
	VelocityThreshold float64 // speed (units/s) below which velocity stays neutral
	MaxVelocity       float64 // speed mapping to velocity 127

	PressureMin     float64 // z at full pressure (closest to the sensor)
	PressureMax     float64 // z at zero pressure
	PressureScaling float64

	PitchBendThreshold   float64 // minimum |slope| before bend engages
	PitchBendSensitivity float64

	VerticalScaling float64

	TrajectoryLength int
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		VelocityScaling:      1.0,
		VelocityThreshold:    0.01,
		MaxVelocity:          1.0,
		PressureMin:          -0.2,
		PressureMax:          0.2,
		PressureScaling:      1.0,
		PitchBendThreshold:   0.01,
		PitchBendSensitivity: 2.0,
		VerticalScaling:      1.0,
		TrajectoryLength:     5,
	}
}

// trajectory is a bounded position history for one finger. The oldest
// point is evicted on overflow.
type trajectory struct {
	points [][2]float64
	limit  int
}

func (t *trajectory) push(x, y float64) {
	if len(t.points) >= t.limit {
		t.points = t.points[1:]
	}
	t.points = append(t.points, [2]float64{x, y})
}

// Engine extracts expression vectors from fingertip motion. It keeps a
// bounded trajectory per tracked finger; all state is owned by the single
// frame-processing goroutine.
type Engine struct {
	cfg          Config
	trajectories map[tracking.FingerID]*trajectory
}

func NewEngine(cfg Config) *Engine {
	if cfg.TrajectoryLength < 2 {
		cfg.TrajectoryLength = DefaultConfig().TrajectoryLength
	}
	return &Engine{
		cfg:          cfg,
		trajectories: make(map[tracking.FingerID]*trajectory),
	}
}

// Extract computes a full expression vector per finger present in both
// frames. Without a prior-frame baseline it returns nothing, so the first
// frame after a reset can never emit spurious expression. Trajectory
// entries for fingers no longer seen are pruned.
func (e *Engine) Extract(current, previous map[tracking.FingerID]tracking.Sample, dt time.Duration) map[tracking.FingerID]Vector {
	if len(current) == 0 || len(previous) == 0 {
		return nil
	}

	for id := range e.trajectories {
		if _, ok := current[id]; !ok {
			delete(e.trajectories, id)
		}
	}

	out := make(map[tracking.FingerID]Vector, len(current))
	for id, cur := range current {
		prev, ok := previous[id]
		if !ok {
			continue // new finger this frame: no motion baseline yet
		}
		dx := cur.X - prev.X
		dy := cur.Y - prev.Y
		mag := math.Hypot(dx, dy)

		e.updateTrajectory(id, cur.X, cur.Y)

		out[id] = Vector{
			Velocity:   e.Velocity(mag, dt.Seconds()),
			Pressure:   e.Pressure(cur.Z),
			PitchBend:  e.PitchBend(id),
			VerticalCC: e.VerticalCC(dy),
			Modulation: e.Modulation(mag),
			Fields:     AllFields,
		}
	}
	return out
}

// Velocity maps movement speed to note velocity. Non-positive dt and
// sub-threshold speeds yield the neutral 64 rather than an error.
func (e *Engine) Velocity(magnitude, dt float64) int {
	if dt <= 0 {
		return NeutralVelocity
	}
	speed := magnitude / dt
	if speed < e.cfg.VelocityThreshold {
		return NeutralVelocity
	}
	norm := math.Min(speed/e.cfg.MaxVelocity, 1)
	return clamp(int(math.Round(norm*127*e.cfg.VelocityScaling)), 1, 127)
}

// Pressure maps depth inversely across [PressureMin, PressureMax]: the
// closer to the sensor (more negative z), the higher the pressure.
func (e *Engine) Pressure(z float64) int {
	span := e.cfg.PressureMax - e.cfg.PressureMin
	if span <= 0 {
		return NeutralPressure
	}
	norm := (e.cfg.PressureMax - z) / span
	norm = math.Max(0, math.Min(1, norm))
	return clamp(int(math.Round(norm*127*e.cfg.PressureScaling)), 0, 127)
}

// PitchBend fits a least-squares line of x-position against sample index
// over the finger's trajectory. The index base (rather than elapsed time)
// conflates frame rate into slope magnitude; that is the reference
// behavior and kept as-is. Near-flat slopes return exactly 0.
func (e *Engine) PitchBend(id tracking.FingerID) int {
	traj, ok := e.trajectories[id]
	if !ok || len(traj.points) < 2 {
		return NeutralPitchBend
	}
	xs := make([]float64, len(traj.points))
	ys := make([]float64, len(traj.points))
	for i, p := range traj.points {
		xs[i] = float64(i)
		ys[i] = p[0]
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if math.Abs(slope) < e.cfg.PitchBendThreshold {
		return NeutralPitchBend
	}
	return clamp(int(math.Round(slope*e.cfg.PitchBendSensitivity*8191)), -8192, 8191)
}

// VerticalCC maps vertical motion around the 64 center point.
func (e *Engine) VerticalCC(deltaY float64) int {
	return clamp(int(math.Round(64+deltaY*1000*e.cfg.VerticalScaling)), 0, 127)
}

// Modulation maps movement magnitude onto the mod wheel range.
func (e *Engine) Modulation(magnitude float64) int {
	norm := math.Min(magnitude*10, 1)
	return clamp(int(math.Round(norm*127)), 0, 127)
}

// ActiveTrajectories returns the number of fingers with history.
func (e *Engine) ActiveTrajectories() int {
	return len(e.trajectories)
}

// Reset clears all trajectory state.
func (e *Engine) Reset() {
	e.trajectories = make(map[tracking.FingerID]*trajectory)
}

func (e *Engine) updateTrajectory(id tracking.FingerID, x, y float64) {
	traj, ok := e.trajectories[id]
	if !ok {
		traj = &trajectory{limit: e.cfg.TrajectoryLength}
		e.trajectories[id] = traj
	}
	traj.push(x, y)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
