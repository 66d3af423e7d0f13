package system

import (
	"sync"

	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/wipic"
)

type framebuffer struct {
	width, height, bpp int
	pixels              []uint32 // one entry per pixel, regardless of bpp
}

func newFramebuffer(width, height, bpp int) *framebuffer {
	return &framebuffer{width: width, height: height, bpp: bpp, pixels: make([]uint32, width*height)}
}

func (f *framebuffer) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.width && y < f.height
}

func (f *framebuffer) at(x, y int) int { return y*f.width + x }

// Screen owns every framebuffer the running application has created and
// implements wipic.GraphicsContext, standing in for "a back-buffer
// exposed by the system facade to the host screen" (spec §2 data flow).
type Screen struct {
	mem mem.ByteReadWriter

	mu      sync.Mutex
	buffers map[wipic.FramebufferHandle]*framebuffer
	nextH   wipic.FramebufferHandle
	primary wipic.FramebufferHandle
}

var _ wipic.GraphicsContext = (*Screen)(nil)

// NewScreen creates a screen with no framebuffers yet.
func NewScreen(rw mem.ByteReadWriter) *Screen {
	return &Screen{mem: rw, buffers: make(map[wipic.FramebufferHandle]*framebuffer)}
}

func (s *Screen) ReadBytes(addr uint32, buf []byte) error  { return s.mem.ReadBytes(addr, buf) }
func (s *Screen) WriteBytes(addr uint32, data []byte) error { return s.mem.WriteBytes(addr, data) }

// CreateFramebuffer allocates a new back-buffer; the first one created
// becomes the primary surface mirrored to the host window.
func (s *Screen) CreateFramebuffer(width, height, bpp int) (wipic.FramebufferHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextH++
	h := s.nextH
	s.buffers[h] = newFramebuffer(width, height, bpp)
	if s.primary == 0 {
		s.primary = h
	}
	return h, nil
}

// FramebufferInfo reports a framebuffer's dimensions and bit depth.
func (s *Screen) FramebufferInfo(h wipic.FramebufferHandle) (int, int, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.buffers[h]
	if !ok {
		return 0, 0, 0, false
	}
	return fb.width, fb.height, fb.bpp, true
}

// PutPixel sets a single pixel, clipped silently to the buffer bounds.
func (s *Screen) PutPixel(h wipic.FramebufferHandle, x, y int, color uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.buffers[h]
	if !ok || !fb.inBounds(x, y) {
		return nil
	}
	fb.pixels[fb.at(x, y)] = color
	return nil
}

// FillRect paints a solid rectangle, clipped to the buffer bounds.
func (s *Screen) FillRect(h wipic.FramebufferHandle, x, y, w, height int, color uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.buffers[h]
	if !ok {
		return nil
	}
	for py := y; py < y+height; py++ {
		for px := x; px < x+w; px++ {
			if fb.inBounds(px, py) {
				fb.pixels[fb.at(px, py)] = color
			}
		}
	}
	return nil
}

// Blit copies a rectangular region from src to dst.
func (s *Screen) Blit(dst, src wipic.FramebufferHandle, dx, dy, w, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dstFB, ok := s.buffers[dst]
	if !ok {
		return nil
	}
	srcFB, ok := s.buffers[src]
	if !ok {
		return nil
	}
	for row := 0; row < height; row++ {
		for col := 0; col < w; col++ {
			sx, sy := col, row
			tx, ty := dx+col, dy+row
			if srcFB.inBounds(sx, sy) && dstFB.inBounds(tx, ty) {
				dstFB.pixels[dstFB.at(tx, ty)] = srcFB.pixels[srcFB.at(sx, sy)]
			}
		}
	}
	return nil
}

// DrawText marks one pixel per character of text, at (x + i*6, y),
// since the emulator carries no vendor bitmap fonts; this
// gives downstream rendering (internal/hostwindow) a non-empty bounding
// box to downsample without decoding vendor font resources.
func (s *Screen) DrawText(h wipic.FramebufferHandle, x, y int, text string, color uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.buffers[h]
	if !ok {
		return nil
	}
	const cellWidth = 6
	for i := range text {
		cx := x + i*cellWidth
		if fb.inBounds(cx, y) {
			fb.pixels[fb.at(cx, y)] = color
		}
	}
	return nil
}

// Primary returns the handle of the first framebuffer created, or 0 if
// none has been created yet.
func (s *Screen) Primary() wipic.FramebufferHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primary
}

// Snapshot copies out a framebuffer's current pixels for rendering.
func (s *Screen) Snapshot(h wipic.FramebufferHandle) (pixels []uint32, width, height int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, exists := s.buffers[h]
	if !exists {
		return nil, 0, 0, false
	}
	return append([]uint32(nil), fb.pixels...), fb.width, fb.height, true
}
