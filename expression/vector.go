// Package expression turns frame-to-frame fingertip motion into
// continuous MIDI expression signals.
package expression

// Field flags mark which signals a Vector actually carries. Partial
// vectors are legal; consumers emit only the present fields.
type Field uint8

const (
	FieldVelocity Field = 1 << iota
	FieldPressure
	FieldPitchBend
	FieldVerticalCC
	FieldModulation

	AllFields = FieldVelocity | FieldPressure | FieldPitchBend | FieldVerticalCC | FieldModulation
)

// Neutral signal values, used wherever data is missing.
const (
	NeutralVelocity   = 64
	NeutralPressure   = 64
	NeutralPitchBend  = 0
	NeutralVerticalCC = 64
	NeutralModulation = 0
)

// Vector is one finger's (or one zone's aggregated) expression state.
type Vector struct {
	Velocity   int // 1..127
	Pressure   int // 0..127
	PitchBend  int // -8192..8191
	VerticalCC int // 0..127
	Modulation int // 0..127
	Fields     Field
}

// Has reports whether the given field is present.
func (v Vector) Has(f Field) bool {
	return v.Fields&f != 0
}

// Neutral returns a full vector of neutral values.
func Neutral() Vector {
	return Vector{
		Velocity:   NeutralVelocity,
		Pressure:   NeutralPressure,
		PitchBend:  NeutralPitchBend,
		VerticalCC: NeutralVerticalCC,
		Modulation: NeutralModulation,
		Fields:     AllFields,
	}
}

// Aggregate averages the vectors of all fingers contributing to a zone.
// Each field is averaged over the vectors that carry it, with the mean
// truncated toward zero; fields nobody supplied fall back to neutral.
// The result always carries all fields.
func Aggregate(vectors []Vector) Vector {
	out := Neutral()
	out.Velocity = meanField(vectors, FieldVelocity, func(v Vector) int { return v.Velocity }, NeutralVelocity)
	out.Pressure = meanField(vectors, FieldPressure, func(v Vector) int { return v.Pressure }, NeutralPressure)
	out.PitchBend = meanField(vectors, FieldPitchBend, func(v Vector) int { return v.PitchBend }, NeutralPitchBend)
	out.VerticalCC = meanField(vectors, FieldVerticalCC, func(v Vector) int { return v.VerticalCC }, NeutralVerticalCC)
	out.Modulation = meanField(vectors, FieldModulation, func(v Vector) int { return v.Modulation }, NeutralModulation)
	return out
}

func meanField(vectors []Vector, f Field, get func(Vector) int, neutral int) int {
	sum, count := 0, 0
	for _, v := range vectors {
		if v.Has(f) {
			sum += get(v)
			count++
		}
	}
	if count == 0 {
		return neutral
	}
	return sum / count // integer division truncates toward zero
}
