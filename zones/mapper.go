// Package zones converts fingertip samples into active grid zones and
// maps zones to MIDI notes.
package zones

import (
	"errors"
	"fmt"
	"sort"

	"airgrid/layout"
	"airgrid/tracking"
)

// ErrUnknownMode is returned when an activation-mode name is not one of
// the known policies.
var ErrUnknownMode = errors.New("zones: unknown activation mode")

// Mode selects which fingers may activate zones.
type Mode int

const (
	ModeAllFingers Mode = iota
	ModeIndexOnly
	ModeIndexAndThumb
	ModeExtendedOnly
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "all_fingers":
		return ModeAllFingers, nil
	case "index_only":
		return ModeIndexOnly, nil
	case "index_and_thumb":
		return ModeIndexAndThumb, nil
	case "extended_only":
		return ModeExtendedOnly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeAllFingers:
		return "all_fingers"
	case ModeIndexOnly:
		return "index_only"
	case ModeIndexAndThumb:
		return "index_and_thumb"
	case ModeExtendedOnly:
		return "extended_only"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// admits reports whether a finger passes the activation filter.
// ExtendedOnly requires a present, true extension flag; a missing flag
// excludes the finger rather than defaulting it active.
func (m Mode) admits(id tracking.FingerID, flags map[tracking.FingerID]bool) bool {
	switch m {
	case ModeAllFingers:
		return true
	case ModeIndexOnly:
		return id.Finger == tracking.Index
	case ModeIndexAndThumb:
		return id.Finger == tracking.Index || id.Finger == tracking.Thumb
	case ModeExtendedOnly:
		return flags[id]
	}
	return false
}

// Activation is one active zone this frame plus the fingers that landed
// in it, both in deterministic order.
type Activation struct {
	Zone    int
	Fingers []tracking.FingerID
}

// Mapper turns fingertip positions into zone activations using a Layout,
// and holds the static zone→note arithmetic.
type Mapper struct {
	layout   layout.Layout
	baseNote int
	interval int
}

func NewMapper(l layout.Layout, baseNote, interval int) *Mapper {
	return &Mapper{layout: l, baseNote: baseNote, interval: interval}
}

// SetNotes replaces the zone→note arithmetic.
func (m *Mapper) SetNotes(baseNote, interval int) {
	m.baseNote = baseNote
	m.interval = interval
}

// NoteForZone returns baseNote + zone*interval. The result is not clamped
// here; the MIDI controller clamps at the wire.
func (m *Mapper) NoteForZone(zone int) int {
	return m.baseNote + zone*m.interval
}

// Layout returns the mapper's layout.
func (m *Mapper) Layout() layout.Layout {
	return m.layout
}

// ActiveZones computes the deduplicated set of zones activated by the
// given fingertips under the mode policy, sorted ascending by zone id so
// downstream channel assignment is reproducible.
func (m *Mapper) ActiveZones(tips map[tracking.FingerID]tracking.Sample, flags map[tracking.FingerID]bool, mode Mode) []Activation {
	byZone := make(map[int][]tracking.FingerID)
	for id, sample := range tips {
		if !mode.admits(id, flags) {
			continue
		}
		zone, ok := m.zoneAt(sample.X, sample.Y)
		if !ok {
			continue
		}
		byZone[zone] = append(byZone[zone], id)
	}

	activations := make([]Activation, 0, len(byZone))
	for zone, fingers := range byZone {
		sort.Slice(fingers, func(i, j int) bool {
			if fingers[i].Hand != fingers[j].Hand {
				return fingers[i].Hand < fingers[j].Hand
			}
			return fingers[i].Finger < fingers[j].Finger
		})
		activations = append(activations, Activation{Zone: zone, Fingers: fingers})
	}
	sort.Slice(activations, func(i, j int) bool { return activations[i].Zone < activations[j].Zone })
	return activations
}

// zoneAt normalizes a [0,1] position into the margin-adjusted unit
// square, truncates-and-clamps into a grid cell, and converts via the
// layout. ok is false for positions in the margin or off the surface.
func (m *Mapper) zoneAt(x, y float64) (int, bool) {
	margin := m.layout.Margin()
	span := 1 - 2*margin
	if span <= 0 {
		return 0, false
	}
	nx := (x - margin) / span
	ny := (y - margin) / span
	if nx < 0 || nx > 1 || ny < 0 || ny > 1 {
		return 0, false
	}

	rows, cols := m.layout.Dims()
	if rows == 0 || cols == 0 {
		return 0, false
	}
	col := int(nx * float64(cols))
	if col >= cols {
		col = cols - 1
	}
	row := int(ny * float64(rows))
	if row >= rows {
		row = rows - 1
	}
	return m.layout.PointToZone(col, row)
}
