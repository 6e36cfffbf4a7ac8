// Package tracking defines the frame data consumed from an external hand
// tracker. Detection itself happens out of process; this package turns the
// tracker's ordered landmark sets into per-finger samples and extension
// flags.
package tracking

import (
	"math"
	"time"
)

// NumLandmarks is the landmark count of one fully tracked hand.
const NumLandmarks = 21

// Finger names, also used as the finger half of a FingerID.
const (
	Thumb  = "thumb"
	Index  = "index"
	Middle = "middle"
	Ring   = "ring"
	Pinky  = "pinky"
)

// Fingers lists all finger names in tip-index order.
var Fingers = []string{Thumb, Index, Middle, Ring, Pinky}

// tipIndex maps a finger name to its tip landmark index.
var tipIndex = map[string]int{
	Thumb:  4,
	Index:  8,
	Middle: 12,
	Ring:   16,
	Pinky:  20,
}

const (
	wristIndex   = 0
	thumbIPIndex = 3
)

// FingerID identifies one tracked finger: a stable hand label ("left_0")
// plus a finger name.
type FingerID struct {
	Hand   string
	Finger string
}

// Sample is one fingertip position. X and Y are normalized to [0,1],
// Z is relative depth (more negative = closer to the sensor).
type Sample struct {
	X, Y, Z float64
}

// Hand is one tracked hand in a frame.
type Hand struct {
	Label      string       // stable identity, e.g. "left_0"
	Landmarks  [][3]float64 // ordered normalized positions, NumLandmarks when complete
	Confidence float64
}

// Frame is one tracker observation. An empty Hands slice means no hands
// were detected.
type Frame struct {
	Hands []Hand
	At    time.Time
}

// Fingertips extracts per-finger samples from every hand in the frame.
// Fingers whose tip landmark is missing are skipped.
func Fingertips(hands []Hand) map[FingerID]Sample {
	tips := make(map[FingerID]Sample)
	for _, h := range hands {
		for _, finger := range Fingers {
			tip := tipIndex[finger]
			if tip >= len(h.Landmarks) {
				continue
			}
			lm := h.Landmarks[tip]
			tips[FingerID{Hand: h.Label, Finger: finger}] = Sample{X: lm[0], Y: lm[1], Z: lm[2]}
		}
	}
	return tips
}

// ExtensionFlags computes an extended/curled flag for every finger whose
// landmarks are present. Fingers with missing landmarks get no entry at
// all, so policies requiring flags exclude them rather than guessing.
func ExtensionFlags(hands []Hand) map[FingerID]bool {
	flags := make(map[FingerID]bool)
	for _, h := range hands {
		for _, finger := range Fingers {
			extended, ok := fingerExtended(h.Landmarks, finger)
			if !ok {
				continue
			}
			flags[FingerID{Hand: h.Label, Finger: finger}] = extended
		}
	}
	return flags
}

// fingerExtended applies the extension heuristics. Non-thumb digits are
// extended when the proximal and distal segments are within ~45 degrees
// of each other (cosine > 0.7). The thumb is extended when its tip sits
// more than 10% further from the wrist than the IP joint does.
func fingerExtended(landmarks [][3]float64, finger string) (extended, ok bool) {
	if finger == Thumb {
		if len(landmarks) <= tipIndex[Thumb] {
			return false, false
		}
		wrist := landmarks[wristIndex]
		tip := landmarks[tipIndex[Thumb]]
		ip := landmarks[thumbIPIndex]
		return dist(tip, wrist) > 1.1*dist(ip, wrist), true
	}

	tip := tipIndex[finger]
	mcp, pip := tip-3, tip-2
	if len(landmarks) <= tip {
		return false, false
	}
	proximal := sub(landmarks[pip], landmarks[mcp])
	distal := sub(landmarks[tip], landmarks[pip])
	np, nd := norm(proximal), norm(distal)
	if np == 0 || nd == 0 {
		return false, false
	}
	cos := dot(proximal, distal) / (np * nd)
	return cos > 0.7, true
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func norm(a [3]float64) float64 {
	return math.Sqrt(dot(a, a))
}

func dist(a, b [3]float64) float64 {
	return norm(sub(a, b))
}
