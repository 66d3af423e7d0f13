package hostwindow

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zboralski/wie/internal/event"
)

func TestKeymapDefaultsResolve(t *testing.T) {
	km := newKeymap(nil)

	code, ok := km.resolve(tea.KeyMsg{Type: tea.KeyUp})
	if !ok || code != event.KeyUp {
		t.Fatalf("resolve(up) = %v, %v, want KeyUp, true", code, ok)
	}

	code, ok = km.resolve(tea.KeyMsg{Type: tea.KeyEnter})
	if !ok || code != event.KeyOK {
		t.Fatalf("resolve(enter) = %v, %v, want KeyOK, true", code, ok)
	}
}

func TestKeymapOverrideWins(t *testing.T) {
	km := newKeymap(map[string]string{"up": "DOWN"})

	code, ok := km.resolve(tea.KeyMsg{Type: tea.KeyUp})
	if !ok || code != event.KeyDown {
		t.Fatalf("resolve(up) with override = %v, %v, want KeyDown, true", code, ok)
	}
}

func TestKeymapUnknownKeyMisses(t *testing.T) {
	km := newKeymap(nil)
	if _, ok := km.resolve(tea.KeyMsg{Type: tea.KeyTab}); ok {
		t.Fatalf("resolve(tab) should not match any phone key")
	}
}

func TestColorToRGBExtractsChannels(t *testing.T) {
	r, g, b := colorToRGB(0xFF112233)
	if r != 0x11 || g != 0x22 || b != 0x33 {
		t.Fatalf("colorToRGB = %02x %02x %02x, want 11 22 33", r, g, b)
	}
}

func TestRenderFramebufferProducesOneLinePerRow(t *testing.T) {
	width, height := 4, 4
	pixels := make([]uint32, width*height)
	for i := range pixels {
		pixels[i] = 0x00FF00 // solid green
	}

	out := renderFramebuffer(pixels, width, height, 2, 2)
	lines := 0
	for _, c := range out {
		if c == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("renderFramebuffer produced %d lines, want 2", lines)
	}
}

func TestRenderFramebufferEmptyOnMismatchedBuffer(t *testing.T) {
	if out := renderFramebuffer(nil, 10, 10, 4, 4); out != "" {
		t.Fatalf("renderFramebuffer with no pixels = %q, want empty", out)
	}
}
