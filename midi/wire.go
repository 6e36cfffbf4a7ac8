// Package midi owns the MPE channel pool and the raw wire encoding of
// note and expression messages.
package midi

// MIDI status bytes. The low nibble carries the 0-based channel.
const (
	StatusNoteOff         uint8 = 0x80
	StatusNoteOn          uint8 = 0x90
	StatusControlChange   uint8 = 0xB0
	StatusChannelPressure uint8 = 0xD0
	StatusPitchBend       uint8 = 0xE0
)

// CCAllNotesOff is the All Notes Off controller number.
const CCAllNotesOff uint8 = 123

// Default control-change numbers for expression signals.
const (
	DefaultPressureCC   uint8 = 74 // non-MPE pressure fallback
	DefaultModulationCC uint8 = 1
	DefaultVerticalCC   uint8 = 16
)

// wireChannel converts a 1-based MIDI channel to the 0-based wire nibble.
func wireChannel(ch int) uint8 {
	return uint8(ch-1) & 0x0F
}

func noteOnMsg(ch int, note, velocity uint8) []byte {
	return []byte{StatusNoteOn | wireChannel(ch), note, velocity}
}

func noteOffMsg(ch int, note uint8) []byte {
	return []byte{StatusNoteOff | wireChannel(ch), note, 0}
}

func ccMsg(ch int, cc, value uint8) []byte {
	return []byte{StatusControlChange | wireChannel(ch), cc, value}
}

func channelPressureMsg(ch int, value uint8) []byte {
	return []byte{StatusChannelPressure | wireChannel(ch), value}
}

// pitchBendMsg encodes a signed bend as a 14-bit value split into two
// 7-bit fields: value = clamp(bend+8192, 0, 16383).
func pitchBendMsg(ch int, bend int) []byte {
	v := bend + 8192
	if v < 0 {
		v = 0
	}
	if v > 16383 {
		v = 16383
	}
	return []byte{StatusPitchBend | wireChannel(ch), uint8(v & 0x7F), uint8((v >> 7) & 0x7F)}
}
