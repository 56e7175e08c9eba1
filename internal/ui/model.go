// ABOUTME: Bubbletea model for the ring status TUI
// ABOUTME: Shows ring fill, transfer counters and volume for player and capture modes
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	title   string
	started time.Time

	// Stream
	source     string
	backend    string
	sampleRate int
	channels   int

	// Ring
	capacity int
	readable int
	written  uint64
	read     uint64

	// Glitches
	underruns uint64
	overruns  uint64

	// Playback
	volume int
	muted  bool

	// Monitor
	clients []string

	showDebug bool
	quitting  bool

	volumeCtrl *VolumeControl

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.renderStream())
	b.WriteString(m.renderRing())
	if m.volumeCtrl != nil {
		b.WriteString(m.renderVolume())
	}
	if m.clients != nil {
		b.WriteString(m.renderClients())
	}
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(m.helpText()))
	return b.String()
}

func field(name, value string) string {
	return headerStyle.Render(fmt.Sprintf("%-10s", name+":")) + valueStyle.Render(value) + "\n"
}

func (m Model) renderStream() string {
	source := m.source
	if source == "" {
		source = "(none)"
	}

	var b strings.Builder
	b.WriteString(field("Source", truncate(source, 48)))
	if m.sampleRate > 0 {
		b.WriteString(field("Format", fmt.Sprintf("%dHz %s", m.sampleRate, channelName(m.channels))))
	}
	if m.backend != "" {
		b.WriteString(field("Device", m.backend))
	}
	if !m.started.IsZero() {
		b.WriteString(field("Uptime", time.Since(m.started).Round(time.Second).String()))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderRing() string {
	var b strings.Builder

	fill := 0
	if m.capacity > 0 {
		fill = m.readable * 100 / m.capacity
	}
	b.WriteString(field("Ring", fmt.Sprintf("[%s] %3d%%  %s", renderBar(m.readable, m.capacity, 20), fill, m.latency())))

	glitches := fmt.Sprintf("underruns %d  overruns %d", m.underruns, m.overruns)
	if m.underruns > 0 || m.overruns > 0 {
		glitches = warnStyle.Render(glitches)
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-10s", "Glitches:")) + glitches + "\n")
	return b.String()
}

// latency converts the buffered bytes to milliseconds of float32 audio
func (m Model) latency() string {
	if m.sampleRate <= 0 || m.channels <= 0 {
		return fmt.Sprintf("%d bytes", m.readable)
	}
	frames := m.readable / (4 * m.channels)
	return fmt.Sprintf("%.1fms", float64(frames)*1000/float64(m.sampleRate))
}

func (m Model) renderVolume() string {
	mute := ""
	if m.muted {
		mute = " (muted)"
	}
	return field("Volume", fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, mute))
}

func (m Model) renderClients() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("Listeners (%d)", len(m.clients))))
	b.WriteString("\n")
	if len(m.clients) == 0 {
		b.WriteString(valueStyle.Render("  No listeners connected"))
		b.WriteString("\n")
	}
	for _, c := range m.clients {
		b.WriteString(valueStyle.Render("  • " + c))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDebug() string {
	return "\n" + field("Written", fmt.Sprintf("%d bytes", m.written)) +
		field("Read", fmt.Sprintf("%d bytes", m.read)) +
		field("Capacity", fmt.Sprintf("%d bytes", m.capacity))
}

func (m Model) helpText() string {
	if m.volumeCtrl != nil {
		return "↑/↓:Volume  m:Mute  d:Debug  q:Quit"
	}
	return "d:Debug  q:Quit"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.volumeCtrl != nil {
			select {
			case m.volumeCtrl.Quit <- QuitMsg{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.setVolume(m.volume + 5)
	case "down":
		m.setVolume(m.volume - 5)
	case "m":
		if m.volumeCtrl != nil {
			m.muted = !m.muted
			m.sendVolume()
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m *Model) setVolume(volume int) {
	if m.volumeCtrl == nil {
		return
	}
	if volume > 100 {
		volume = 100
	}
	if volume < 0 {
		volume = 0
	}
	if volume == m.volume {
		return
	}
	m.volume = volume
	m.sendVolume()
}

func (m *Model) sendVolume() {
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.Backend != "" {
		m.backend = msg.Backend
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
	}
	if msg.Ring != nil {
		m.capacity = msg.Ring.Capacity
		m.readable = msg.Ring.Readable
		m.written = msg.Ring.Written
		m.read = msg.Ring.Read
	}
	if msg.Underruns != 0 {
		m.underruns = msg.Underruns
	}
	if msg.Overruns != 0 {
		m.overruns = msg.Overruns
	}
	if msg.Clients != nil {
		m.clients = msg.Clients
	}
}

// RingState mirrors the ring counters shown in the meter
type RingState struct {
	Capacity int
	Readable int
	Written  uint64
	Read     uint64
}

// StatusMsg updates TUI state. Zero fields leave the current value alone.
type StatusMsg struct {
	Source     string
	Backend    string
	SampleRate int
	Channels   int
	Ring       *RingState
	Underruns  uint64
	Overruns   uint64
	Clients    []string
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := 0
	if max > 0 {
		filled = (value * width) / max
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
