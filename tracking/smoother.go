package tracking

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSmoother is returned for smoother kinds that are declared
// but not implemented.
var ErrUnsupportedSmoother = errors.New("tracking: unsupported smoother")

// Smoother filters raw landmark positions frame to frame. Implementations
// form a closed set: EMA today, Kalman declared but unsupported.
type Smoother interface {
	// Smooth filters one hand's landmark set, preserving order.
	Smooth(landmarks [][3]float64) [][3]float64

	// Reset drops all filter state.
	Reset()
}

// NewSmoother builds a smoother by config kind. "ema" is the only
// implemented kind; "kalman" is reserved and returns
// ErrUnsupportedSmoother instead of silently falling back.
func NewSmoother(kind string, alpha float64) (Smoother, error) {
	switch kind {
	case "", "ema":
		return NewEMASmoother(alpha), nil
	case "kalman":
		return nil, fmt.Errorf("%w: kalman", ErrUnsupportedSmoother)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSmoother, kind)
	}
}

// EMASmoother applies an exponential moving average per landmark:
// v = alpha*new + (1-alpha)*v, seeded from the first sample.
type EMASmoother struct {
	alpha float64
	value [][3]float64
}

func NewEMASmoother(alpha float64) *EMASmoother {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}
	return &EMASmoother{alpha: alpha}
}

func (s *EMASmoother) Smooth(landmarks [][3]float64) [][3]float64 {
	if s.value == nil || len(s.value) != len(landmarks) {
		s.value = make([][3]float64, len(landmarks))
		copy(s.value, landmarks)
		out := make([][3]float64, len(landmarks))
		copy(out, landmarks)
		return out
	}
	out := make([][3]float64, len(landmarks))
	for i, lm := range landmarks {
		for j := 0; j < 3; j++ {
			s.value[i][j] = s.alpha*lm[j] + (1-s.alpha)*s.value[i][j]
		}
		out[i] = s.value[i]
	}
	return out
}

func (s *EMASmoother) Reset() {
	s.value = nil
}
