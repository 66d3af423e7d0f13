// Package hostwindow renders the emulated handset's screen in a
// terminal and turns keystrokes into phone key events, standing in for
// the "window/screen presentation" and "keyboard event polling"
// external collaborator named by spec §1. It is glue around C11's
// back-buffer and C6's event queue, built on Bubble Tea the way the
// teacher's go.mod already declared but never wired.
package hostwindow

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zboralski/wie/internal/config"
	"github.com/zboralski/wie/internal/event"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/system"
)

const frameInterval = 33 * time.Millisecond // ~30fps

// tickMsg drives the render loop; it carries no data beyond "time to
// repaint and tick the executor again".
type tickMsg time.Time

// Model is the Bubble Tea program rendering one running emulator's
// screen and forwarding terminal key events into its event queue.
type Model struct {
	facade *system.Facade
	keys   *keymap
	cols   int
	rows   int
	status string
	done   bool
}

// New builds a Model bound to facade, sized and key-mapped from cfg.
func New(facade *system.Facade, cfg config.Config) *Model {
	cols := cfg.Window.Width
	rows := cfg.Window.Height / 2
	if cols <= 0 {
		cols = 120
	}
	if rows <= 0 {
		rows = 80
	}
	return &Model{
		facade: facade,
		keys:   newKeymap(cfg.KeyRemap),
		cols:   cols,
		rows:   rows,
	}
}

// Run starts the terminal program and blocks until the user quits.
func (m *Model) Run() error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.done = true
			return m, tea.Quit
		}
		if code, ok := m.keys.resolve(msg); ok {
			m.facade.Events().Push(event.KeyDownEvent(code))
			m.facade.Events().Push(event.KeyUpEvent(code))
		}
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		if err := m.facade.Tick(now); err != nil && log.L != nil {
			log.L.Warn("hostwindow: tick failed: " + err.Error())
		}
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) View() string {
	if m.done {
		return ""
	}
	fb := m.facade.Screen().Primary()
	pixels, w, h, ok := m.facade.Screen().Snapshot(fb)
	if !ok {
		return "waiting for the application to create its first framebuffer...\n"
	}
	return renderFramebuffer(pixels, w, h, m.cols, m.rows)
}
