package ktf

import "github.com/zboralski/wie/internal/mem"

// fakeMem is a flat in-host-memory ByteReadWriter covering a single
// contiguous region, enough to exercise class/instance layout logic
// without an ARM engine.
type fakeMem struct {
	base    uint32
	backing []byte
}

func newFakeMem(base, size uint32) *fakeMem {
	return &fakeMem{base: base, backing: make([]byte, size)}
}

func (f *fakeMem) ReadBytes(addr uint32, buf []byte) error {
	off := addr - f.base
	copy(buf, f.backing[off:])
	return nil
}

func (f *fakeMem) WriteBytes(addr uint32, data []byte) error {
	off := addr - f.base
	copy(f.backing[off:], data)
	return nil
}

var _ mem.ByteReadWriter = (*fakeMem)(nil)

// arena is a simple bump allocator over a fakeMem, standing in for
// mem.Allocator in tests that only ever grow (no Free/reuse needed).
type arena struct {
	m    *fakeMem
	next uint32
}

func (a *arena) alloc(n uint32) uint32 {
	addr := a.next
	a.next += (n + 3) &^ 3
	return addr
}
