// Package events drives the per-frame note lifecycle: zone activity is
// tracked over time and debounced into trigger, continue, and release
// decisions.
package events

import (
	"sort"
	"time"

	"airgrid/debug"
	"airgrid/expression"
	"airgrid/tracking"
	"airgrid/zones"
)

// DefaultReleaseDelay is the debounce window: how long a zone must stay
// unseen before its note is released. Without it, momentary tracking
// dropouts cause audible chatter.
const DefaultReleaseDelay = 100 * time.Millisecond

// NotePool is the channel-allocation surface the manager drives.
type NotePool interface {
	TriggerNote(note, velocity int, expr expression.Vector) (channel int, ok bool)
	UpdateExpression(channel int, expr expression.Vector)
	ReleaseNote(channel int)
	AvailableChannelCount() int
}

// Config tunes the manager.
type Config struct {
	Mode         zones.Mode
	ReleaseDelay time.Duration // 0 means DefaultReleaseDelay
}

// ZoneStatus is one tracked zone in a status snapshot.
type ZoneStatus struct {
	Zone    int
	Note    int
	Channel int // 0 while pending
	Pending bool
}

// Status is a value snapshot published after each processed frame, safe
// to hand to other goroutines.
type Status struct {
	At           time.Time
	Hands        int
	FreeChannels int
	Zones        []ZoneStatus
	Expression   expression.Vector // last aggregated vector, neutral if none
}

// zoneEntry tracks one active zone. pending means the pool was exhausted
// at trigger time; the trigger is retried while the zone stays active.
type zoneEntry struct {
	channel  int
	pending  bool
	lastSeen time.Time
}

// Manager is the top-level per-frame orchestrator. All of its state is
// owned by the single goroutine calling Process; snapshots leave only as
// value copies on the updates channel.
type Manager struct {
	mapper *zones.Mapper
	engine *expression.Engine
	pool   NotePool

	mode         zones.Mode
	releaseDelay time.Duration

	entries  map[int]*zoneEntry
	prevTips map[tracking.FingerID]tracking.Sample
	prevAt   time.Time
	lastExpr expression.Vector

	updates chan Status
}

func NewManager(mapper *zones.Mapper, engine *expression.Engine, pool NotePool, cfg Config) *Manager {
	delay := cfg.ReleaseDelay
	if delay <= 0 {
		delay = DefaultReleaseDelay
	}
	return &Manager{
		mapper:       mapper,
		engine:       engine,
		pool:         pool,
		mode:         cfg.Mode,
		releaseDelay: delay,
		entries:      make(map[int]*zoneEntry),
		lastExpr:     expression.Neutral(),
		updates:      make(chan Status, 1),
	}
}

// Updates returns the status snapshot channel. Snapshots are dropped when
// the consumer is behind.
func (m *Manager) Updates() <-chan Status {
	return m.updates
}

// Process handles one tracker frame. It must be called from a single
// goroutine, one call per captured frame.
func (m *Manager) Process(frame tracking.Frame) {
	now := frame.At
	if now.IsZero() {
		now = time.Now()
	}

	if len(frame.Hands) == 0 {
		// Brief detection gaps must not cut notes: only run the
		// release sweep, and drop the expression baseline and
		// trajectories so the next detected frame starts clean. A
		// finger reappearing elsewhere must not regress over pre-gap
		// positions and emit a phantom bend.
		m.prevTips = nil
		m.prevAt = now
		m.engine.Reset()
		m.sweep(now)
		m.publish(now, 0)
		return
	}

	var dt time.Duration
	if !m.prevAt.IsZero() {
		dt = now.Sub(m.prevAt)
	}

	tips := tracking.Fingertips(frame.Hands)
	flags := tracking.ExtensionFlags(frame.Hands)
	vectors := m.engine.Extract(tips, m.prevTips, dt)
	activations := m.mapper.ActiveZones(tips, flags, m.mode)

	for _, act := range activations {
		agg := expression.Aggregate(collect(vectors, act.Fingers))
		m.lastExpr = agg

		entry, ok := m.entries[act.Zone]
		if !ok {
			entry = &zoneEntry{pending: true}
			m.entries[act.Zone] = entry
		}
		entry.lastSeen = now

		if entry.pending {
			note := m.mapper.NoteForZone(act.Zone)
			if ch, ok := m.pool.TriggerNote(note, agg.Velocity, agg); ok {
				entry.channel = ch
				entry.pending = false
				debug.Log("events", "zone %d on: note %d ch %d", act.Zone, note, ch)
			}
			// Still pending: retried next frame while the zone stays
			// active.
		} else {
			m.pool.UpdateExpression(entry.channel, agg)
		}
	}

	m.sweep(now)
	m.prevTips = tips
	m.prevAt = now
	m.publish(now, len(frame.Hands))
}

// sweep releases every tracked zone whose unseen duration exceeds the
// debounce window. Entries for zones orphaned by a layout change are
// released here too; the release path never consults the layout.
func (m *Manager) sweep(now time.Time) {
	for zone, entry := range m.entries {
		if now.Sub(entry.lastSeen) <= m.releaseDelay {
			continue
		}
		if !entry.pending {
			m.pool.ReleaseNote(entry.channel)
			debug.Log("events", "zone %d off: ch %d", zone, entry.channel)
		}
		delete(m.entries, zone)
	}
}

// ReleaseAll force-releases every tracked zone unconditionally and resets
// all motion state. Shutdown/reset path.
func (m *Manager) ReleaseAll() {
	for zone, entry := range m.entries {
		if !entry.pending {
			m.pool.ReleaseNote(entry.channel)
		}
		delete(m.entries, zone)
	}
	m.engine.Reset()
	m.prevTips = nil
	m.prevAt = time.Time{}
}

// ActiveZoneCount returns the number of tracked zones.
func (m *Manager) ActiveZoneCount() int {
	return len(m.entries)
}

func (m *Manager) publish(now time.Time, hands int) {
	st := Status{
		At:           now,
		Hands:        hands,
		FreeChannels: m.pool.AvailableChannelCount(),
		Expression:   m.lastExpr,
	}
	for zone, entry := range m.entries {
		st.Zones = append(st.Zones, ZoneStatus{
			Zone:    zone,
			Note:    m.mapper.NoteForZone(zone),
			Channel: entry.channel,
			Pending: entry.pending,
		})
	}
	sort.Slice(st.Zones, func(i, j int) bool { return st.Zones[i].Zone < st.Zones[j].Zone })

	select {
	case m.updates <- st:
	default:
	}
}

func collect(vectors map[tracking.FingerID]expression.Vector, fingers []tracking.FingerID) []expression.Vector {
	out := make([]expression.Vector, 0, len(fingers))
	for _, id := range fingers {
		if v, ok := vectors[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
