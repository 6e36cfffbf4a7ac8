// Package tui renders a live terminal monitor for the controller: the
// zone grid, channel pool occupancy, and the latest expression values.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"airgrid/events"
	"airgrid/midi"
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	zoneOffStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	zoneOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("84")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// Model is the bubbletea model for the monitor.
type Model struct {
	manager  *events.Manager
	rows     int
	columns  int
	portName string

	status   events.Status
	frames   int
	quitting bool
	onQuit   func()
}

// StatusMsg carries one pipeline snapshot into the UI loop.
type StatusMsg events.Status

// NewModel creates the monitor. onQuit runs once when the user quits
// (release-all lives there).
func NewModel(manager *events.Manager, rows, columns int, portName string, onQuit func()) Model {
	return Model{
		manager:  manager,
		rows:     rows,
		columns:  columns,
		portName: portName,
		onQuit:   onQuit,
	}
}

func listenForStatus(manager *events.Manager) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-manager.Updates()
		if !ok {
			return tea.Quit()
		}
		return StatusMsg(st)
	}
}

func (m Model) Init() tea.Cmd {
	return listenForStatus(m.manager)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}

	case StatusMsg:
		m.status = events.Status(msg)
		m.frames++
		return m, listenForStatus(m.manager)
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.status

	header := headerStyle.Render(fmt.Sprintf("airgrid  %s  hands:%d  free:%2d/%d  frames:%d",
		m.portName, st.Hands, st.FreeChannels, midi.PoolSize, m.frames))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(m.gridView(st))
	out.WriteString("\n")
	out.WriteString(m.zoneList(st))
	out.WriteString(m.expressionView(st))
	out.WriteString("\n")
	out.WriteString(dimStyle.Render("q:quit"))
	out.WriteString("\n")
	return out.String()
}

// gridView draws the zone grid, lighting active cells.
func (m Model) gridView(st events.Status) string {
	state := make(map[int]events.ZoneStatus, len(st.Zones))
	for _, z := range st.Zones {
		state[z.Zone] = z
	}

	var out strings.Builder
	for r := 0; r < m.rows; r++ {
		out.WriteString("  ")
		for c := 0; c < m.columns; c++ {
			zone := r*m.columns + c
			cell := fmt.Sprintf("[%3d]", zone)
			if z, ok := state[zone]; ok {
				if z.Pending {
					out.WriteString(pendingStyle.Render(cell))
				} else {
					out.WriteString(zoneOnStyle.Render(cell))
				}
			} else {
				out.WriteString(zoneOffStyle.Render(cell))
			}
			out.WriteString(" ")
		}
		out.WriteString("\n")
	}
	return out.String()
}

func (m Model) zoneList(st events.Status) string {
	if len(st.Zones) == 0 {
		return dimStyle.Render("  no active zones") + "\n"
	}
	var out strings.Builder
	for _, z := range st.Zones {
		if z.Pending {
			out.WriteString(fmt.Sprintf("  zone %-3d note %-3d %s\n", z.Zone, z.Note, pendingStyle.Render("pending")))
		} else {
			out.WriteString(fmt.Sprintf("  zone %-3d note %-3d ch %-2d\n", z.Zone, z.Note, z.Channel))
		}
	}
	return out.String()
}

func (m Model) expressionView(st events.Status) string {
	e := st.Expression
	return dimStyle.Render(fmt.Sprintf("  vel:%3d press:%3d bend:%+5d vert:%3d mod:%3d",
		e.Velocity, e.Pressure, e.PitchBend, e.VerticalCC, e.Modulation)) + "\n"
}
