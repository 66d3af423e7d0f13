package hostwindow

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zboralski/wie/internal/event"
)

// defaultRemap maps a terminal key name (bubbletea's tea.KeyMsg.String())
// to the feature-phone key name event.ParseKeyCode understands. A
// config.Config's KeyRemap overrides entries of this table by host key
// name, letting a keyboard layout swap bindings without touching code.
var defaultRemap = map[string]string{
	"up":    "UP",
	"down":  "DOWN",
	"left":  "LEFT",
	"right": "RIGHT",
	"enter": "OK",
	"esc":   "CLR",
	"f1":    "CALL",
	"f2":    "HANGUP",
	"0":     "0",
	"1":     "1",
	"2":     "2",
	"3":     "3",
	"4":     "4",
	"5":     "5",
	"6":     "6",
	"7":     "7",
	"8":     "8",
	"9":     "9",
	"#":     "#",
	"*":     "*",
}

// keymap resolves terminal key events to event.KeyCodes, layering a
// user-supplied override table on top of defaultRemap.
type keymap struct {
	remap map[string]string
	quit  key.Binding
}

func newKeymap(override map[string]string) *keymap {
	remap := make(map[string]string, len(defaultRemap)+len(override))
	for k, v := range defaultRemap {
		remap[k] = v
	}
	for k, v := range override {
		remap[k] = v
	}
	return &keymap{
		remap: remap,
		quit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// resolve translates a bubbletea key event into a phone key code, if the
// remap table covers it.
func (k *keymap) resolve(msg tea.KeyMsg) (event.KeyCode, bool) {
	name, ok := k.remap[msg.String()]
	if !ok {
		return 0, false
	}
	return event.ParseKeyCode(name)
}
