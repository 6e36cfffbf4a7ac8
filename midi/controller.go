package midi

import (
	"time"

	"airgrid/debug"
	"airgrid/expression"
)

// Per-note channels. Channel 1 is reserved for global messages; the pool
// spans 2-16 (1-based), 15 channels total.
const (
	FirstPoolChannel = 2
	LastPoolChannel  = 16
	PoolSize         = LastPoolChannel - FirstPoolChannel + 1
	rawChannelCount  = 16
)

// Sender is the byte-message sink the controller writes to. Fire and
// forget: no acknowledgement, no retry. A dropped message is corrected by
// the next frame's refresh.
type Sender interface {
	Send(msg []byte) error
}

// ControllerConfig selects the expression encoding.
type ControllerConfig struct {
	MPEEnabled   bool
	PressureCC   uint8 // used when MPEEnabled is false
	ModulationCC uint8
	VerticalCC   uint8
}

// DefaultControllerConfig returns MPE mode with the standard CC numbers.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MPEEnabled:   true,
		PressureCC:   DefaultPressureCC,
		ModulationCC: DefaultModulationCC,
		VerticalCC:   DefaultVerticalCC,
	}
}

// NoteInfo records what is sounding on an allocated channel.
type NoteInfo struct {
	Note      int
	Velocity  int
	StartedAt time.Time
}

// Controller allocates one exclusive channel per sounding note and emits
// note and expression messages. A channel is either free or owned by
// exactly one note; free + allocated = PoolSize at all times.
type Controller struct {
	sender Sender
	cfg    ControllerConfig
	active map[int]NoteInfo // keyed by 1-based channel
	now    func() time.Time
}

func NewController(sender Sender, cfg ControllerConfig) *Controller {
	return &Controller{
		sender: sender,
		cfg:    cfg,
		active: make(map[int]NoteInfo, PoolSize),
		now:    time.Now,
	}
}

// TriggerNote allocates the lowest free channel, emits note-on, and
// forwards the initial expression. Returns (0, false) when the pool is
// exhausted; the caller retries on a later frame rather than failing.
// Note is clamped to [0,127], velocity to [1,127].
func (c *Controller) TriggerNote(note, velocity int, expr expression.Vector) (int, bool) {
	ch, ok := c.allocate()
	if !ok {
		debug.LogEvery(30, "midi", "channel pool exhausted")
		return 0, false
	}

	note = clampInt(note, 0, 127)
	velocity = clampInt(velocity, 1, 127)

	c.active[ch] = NoteInfo{Note: note, Velocity: velocity, StartedAt: c.now()}
	c.emit(noteOnMsg(ch, uint8(note), uint8(velocity)))
	c.UpdateExpression(ch, expr)
	return ch, true
}

// UpdateExpression emits at most one message per present field. No-op on
// channels that are not allocated.
func (c *Controller) UpdateExpression(ch int, expr expression.Vector) {
	if _, ok := c.active[ch]; !ok {
		return
	}
	if expr.Has(expression.FieldPressure) {
		value := uint8(clampInt(expr.Pressure, 0, 127))
		if c.cfg.MPEEnabled {
			c.emit(channelPressureMsg(ch, value))
		} else {
			c.emit(ccMsg(ch, c.cfg.PressureCC, value))
		}
	}
	if expr.Has(expression.FieldPitchBend) {
		c.emit(pitchBendMsg(ch, expr.PitchBend))
	}
	if expr.Has(expression.FieldModulation) {
		c.emit(ccMsg(ch, c.cfg.ModulationCC, uint8(clampInt(expr.Modulation, 0, 127))))
	}
	if expr.Has(expression.FieldVerticalCC) {
		c.emit(ccMsg(ch, c.cfg.VerticalCC, uint8(clampInt(expr.VerticalCC, 0, 127))))
	}
}

// ReleaseNote emits note-off and returns the channel to the pool. No-op
// on channels that are not allocated.
func (c *Controller) ReleaseNote(ch int) {
	info, ok := c.active[ch]
	if !ok {
		return
	}
	c.emit(noteOffMsg(ch, uint8(info.Note)))
	delete(c.active, ch)
}

// ReleaseAll releases every allocated channel, then broadcasts All Notes
// Off on all 16 raw channels, the reserved one included, so notes the
// synth latched outside the pool also stop.
func (c *Controller) ReleaseAll() {
	for ch := FirstPoolChannel; ch <= LastPoolChannel; ch++ {
		c.ReleaseNote(ch)
	}
	for ch := 1; ch <= rawChannelCount; ch++ {
		c.emit(ccMsg(ch, CCAllNotesOff, 0))
	}
}

// NoteInfo returns what is sounding on a channel.
func (c *Controller) NoteInfo(ch int) (NoteInfo, bool) {
	info, ok := c.active[ch]
	return info, ok
}

// IsChannelActive reports whether a channel is allocated.
func (c *Controller) IsChannelActive(ch int) bool {
	_, ok := c.active[ch]
	return ok
}

// ActiveNoteCount returns the number of allocated channels.
func (c *Controller) ActiveNoteCount() int {
	return len(c.active)
}

// AvailableChannelCount returns the number of free channels.
func (c *Controller) AvailableChannelCount() int {
	return PoolSize - len(c.active)
}

// allocate scans ascending so channel assignment is reproducible.
func (c *Controller) allocate() (int, bool) {
	for ch := FirstPoolChannel; ch <= LastPoolChannel; ch++ {
		if _, taken := c.active[ch]; !taken {
			return ch, true
		}
	}
	return 0, false
}

func (c *Controller) emit(msg []byte) {
	if err := c.sender.Send(msg); err != nil {
		debug.LogEvery(100, "midi", "send failed: %v", err)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
