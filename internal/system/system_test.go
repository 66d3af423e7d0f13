package system

import (
	"testing"
	"time"

	"github.com/zboralski/wie/internal/event"
	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/wipic"
)

func mustAllocator(t *testing.T, eng *fakeEngine) *mem.Allocator {
	t.Helper()
	a, err := mem.NewAllocator(eng, eng.base, uint32(len(eng.mem)))
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	return a
}

func pushableTimerEvent(due time.Time, cb event.TimerCallback) event.Event {
	return event.TimerEvent(due, cb)
}

type fakeEngine struct {
	base uint32
	mem  []byte
}

func newFakeEngine(size uint32) *fakeEngine {
	return &fakeEngine{base: 0x1000, mem: make([]byte, size)}
}

func (f *fakeEngine) ReadBytes(addr uint32, buf []byte) error {
	off := addr - f.base
	copy(buf, f.mem[off:])
	return nil
}

func (f *fakeEngine) WriteBytes(addr uint32, data []byte) error {
	off := addr - f.base
	copy(f.mem[off:], data)
	return nil
}

func (f *fakeEngine) RunFunction(addr uint32, args []uint32) (uint32, uint32, error) {
	return addr, uint32(len(args)), nil
}

func TestRecordStoreSingleRecordReplacesContents(t *testing.T) {
	rs := NewRecordStore()
	h, err := rs.OpenStore("savegame")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	if _, err := rs.AddRecord(h, []byte("old-a")); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if _, err := rs.AddRecord(h, []byte("old-b")); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if got := rs.Count(h); got != 2 {
		t.Fatalf("Count before single-record write = %d, want 2", got)
	}

	if err := rs.WriteSingleRecord(h, []byte("slot-1")); err != nil {
		t.Fatalf("WriteSingleRecord: %v", err)
	}
	if got := rs.Count(h); got != 1 {
		t.Fatalf("Count after single-record write = %d, want 1", got)
	}
	data, ok := rs.ReadSingleRecord(h)
	if !ok || string(data) != "slot-1" {
		t.Fatalf("ReadSingleRecord = %q, %v, want slot-1, true", data, ok)
	}
}

func TestRecordStoreCRUD(t *testing.T) {
	rs := NewRecordStore()
	h, _ := rs.OpenStore("scores")

	id1, err := rs.AddRecord(h, []byte("a"))
	if err != nil || id1 != 1 {
		t.Fatalf("AddRecord = %d, %v, want 1, nil", id1, err)
	}
	id2, _ := rs.AddRecord(h, []byte("b"))
	if id2 != 2 {
		t.Fatalf("second AddRecord id = %d, want 2", id2)
	}

	ids := rs.ListRecords(h)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ListRecords = %v, want [1 2]", ids)
	}

	if err := rs.DeleteRecord(h, id1); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if _, ok := rs.ReadRecord(h, id1); ok {
		t.Fatalf("ReadRecord after delete still found")
	}
}

func TestScreenFillRectAndBlit(t *testing.T) {
	eng := newFakeEngine(16)
	screen := NewScreen(eng)

	src, err := screen.CreateFramebuffer(4, 4, 16)
	if err != nil {
		t.Fatalf("CreateFramebuffer: %v", err)
	}
	dst, err := screen.CreateFramebuffer(4, 4, 16)
	if err != nil {
		t.Fatalf("CreateFramebuffer: %v", err)
	}

	if err := screen.FillRect(src, 0, 0, 2, 2, 0xffff); err != nil {
		t.Fatalf("FillRect: %v", err)
	}
	if err := screen.Blit(dst, src, 1, 1, 2, 2); err != nil {
		t.Fatalf("Blit: %v", err)
	}

	pixels, w, h, ok := screen.Snapshot(dst)
	if !ok || w != 4 || h != 4 {
		t.Fatalf("Snapshot = %v, %d, %d, %v", pixels, w, h, ok)
	}
	if pixels[1*4+1] != 0xffff {
		t.Fatalf("blitted pixel = %#x, want 0xffff", pixels[1*4+1])
	}
	if pixels[0] != 0 {
		t.Fatalf("untouched pixel = %#x, want 0", pixels[0])
	}
}

func TestResourceTableAssignsStableIDs(t *testing.T) {
	fs := NewFilesystem()
	fs.Put("/icon.png", []byte{1, 2, 3})
	rt := NewResourceTable(fs)

	id1, ok := rt.ID("/icon.png")
	if !ok {
		t.Fatalf("ID(icon.png) not found")
	}
	id2, _ := rt.ID("/icon.png")
	if id1 != id2 {
		t.Fatalf("ID not stable across lookups: %d != %d", id1, id2)
	}
	if _, ok := rt.ID("/missing.png"); ok {
		t.Fatalf("ID(missing.png) unexpectedly found")
	}

	size, ok := rt.Size(id1)
	if !ok || size != 3 {
		t.Fatalf("Size = %d, %v, want 3, true", size, ok)
	}
}

func TestFacadeTickFiresDueTimer(t *testing.T) {
	eng := newFakeEngine(64)
	f := New(eng, mustAllocator(t, eng), Identity{AppID: "test"})

	fired := make(chan struct{}, 1)
	f.Events().Push(pushableTimerEvent(time.Now().Add(-time.Millisecond), func() error {
		fired <- struct{}{}
		return nil
	}))

	if err := f.Tick(time.Now()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	select {
	case <-fired:
	default:
		t.Fatalf("timer callback did not fire")
	}
}

func TestFacadeSatisfiesWipicContexts(t *testing.T) {
	eng := newFakeEngine(64)
	f := New(eng, mustAllocator(t, eng), Identity{})

	var _ wipic.KernelContext = f
	var _ wipic.GraphicsContext = f
	var _ wipic.DatabaseContext = f
	var _ wipic.MediaContext = f
}
