// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the volume channel back to the player
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg carries a volume or mute change from the keyboard
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// QuitMsg is sent when the user quits the TUI
type QuitMsg struct{}

// VolumeControl holds channels for volume control communication
type VolumeControl struct {
	Changes chan VolumeChangeMsg
	Quit    chan QuitMsg
}

// NewVolumeControl creates a new volume control handler
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan QuitMsg, 1),
	}
}

// NewModel creates a new TUI model. A nil volCtrl hides volume keys, as in
// capture mode.
func NewModel(title string, volCtrl *VolumeControl) Model {
	return Model{
		title:      title,
		started:    time.Now(),
		volume:     100,
		volumeCtrl: volCtrl,
	}
}

// Run creates the TUI program; the caller runs it and feeds it StatusMsg
// values with Send
func Run(title string, volCtrl *VolumeControl) *tea.Program {
	return tea.NewProgram(NewModel(title, volCtrl), tea.WithAltScreen())
}
