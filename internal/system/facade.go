// Package system aggregates the executor, platform callbacks (screen,
// audio sink, database repository, clock), the virtual filesystem, the
// event queue, and the running application's identity behind one handle
// (spec §4.10 "System facade (C11)").
package system

import (
	"time"

	"github.com/zboralski/wie/internal/event"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/vm"
	"github.com/zboralski/wie/internal/wipic"
)

// Engine is the slice of *arm.Engine the facade needs: the emulated
// address space plus the reentrant call path. Expressed as an interface
// so the facade can be exercised against a fake in tests without
// bringing up a real ARM core.
type Engine interface {
	mem.ByteReadWriter
	RunFunction(addr uint32, args []uint32) (r0, r1 uint32, err error)
}

// Facade is the concrete system handle every other component — WIPI-C
// host calls, KTF class resolution callbacks, the JVM native class
// library — is built against. It implements wipic.KernelContext,
// wipic.GraphicsContext, wipic.DatabaseContext, and wipic.MediaContext
// in one type so a single value can back all four interface tables.
type Facade struct {
	engine Engine
	alloc  *mem.Allocator
	exec   *vm.Executor
	queue  *event.Queue

	screen    *Screen
	records   *RecordStore
	resources *ResourceTable
	fs        *Filesystem
	audio     AudioSink
	codec     *Codec
	identity  Identity
}

var (
	_ wipic.KernelContext   = (*Facade)(nil)
	_ wipic.GraphicsContext = (*Facade)(nil)
	_ wipic.MediaContext    = (*Facade)(nil)
)

// New builds a facade around an ARM engine whose address space backs
// every byte-level read/write, a heap allocator carved out of that
// space, and an application identity. The audio sink defaults to
// NullAudioSink; call SetAudioSink to wire a real one.
func New(engine Engine, alloc *mem.Allocator, identity Identity) *Facade {
	fs := NewFilesystem()
	f := &Facade{
		engine:    engine,
		alloc:     alloc,
		exec:      vm.New(),
		queue:     event.NewQueue(),
		records:   NewRecordStore(),
		resources: NewResourceTable(fs),
		fs:        fs,
		audio:     NullAudioSink{},
		codec:     NewCodec(),
		identity:  identity,
	}
	f.screen = NewScreen(engine)
	return f
}

// SetAudioSink replaces the playback backend.
func (f *Facade) SetAudioSink(sink AudioSink) { f.audio = sink }

// Identity returns the running application's manifest-derived identity.
func (f *Facade) Identity() Identity { return f.identity }

// Filesystem returns the in-memory virtual filesystem.
func (f *Facade) Filesystem() *Filesystem { return f.fs }

// Screen returns the back-buffer owner, for the host window to render
// from.
func (f *Facade) Screen() *Screen { return f.screen }

// Codec returns the EUC-KR/UTF-8 text codec.
func (f *Facade) Codec() *Codec { return f.codec }

// Executor returns the cooperative task scheduler.
func (f *Facade) Executor() *vm.Executor { return f.exec }

// Events returns the event queue.
func (f *Facade) Events() *event.Queue { return f.queue }

// --- mem.ByteReadWriter ---

// ReadBytes reads from the emulated address space.
func (f *Facade) ReadBytes(addr uint32, buf []byte) error { return f.engine.ReadBytes(addr, buf) }

// WriteBytes writes to the emulated address space.
func (f *Facade) WriteBytes(addr uint32, data []byte) error { return f.engine.WriteBytes(addr, data) }

// --- wipic.KernelContext ---

// Alloc reserves size bytes from the heap.
func (f *Facade) Alloc(size uint32) (uint32, error) { return f.alloc.Alloc(size) }

// Free releases a block previously returned by Alloc.
func (f *Facade) Free(ptr uint32) error { return f.alloc.Free(ptr) }

// Now returns the current wall-clock time.
func (f *Facade) Now() time.Time { return time.Now() }

// Spawn adds a task to the executor.
func (f *Facade) Spawn(poll vm.PollFunc) vm.TaskID { return f.exec.Spawn(poll) }

// Sleep records the current task's wake deadline.
func (f *Facade) Sleep(until time.Time) { f.exec.Sleep(until) }

// CallARM re-enters emulated code, the reentrant call path WIPI-C timer
// firing and KTF callbacks use.
func (f *Facade) CallARM(addr uint32, args []uint32) (uint32, uint32, error) {
	return f.engine.RunFunction(addr, args)
}

// ResourceID resolves a packaged resource's name to its small integer
// handle.
func (f *Facade) ResourceID(name string) (int32, bool) { return f.resources.ID(name) }

// ResourceSize reports a resource's byte length.
func (f *Facade) ResourceSize(id int32) (uint32, bool) { return f.resources.Size(id) }

// ResourceData returns a resource's raw bytes.
func (f *Facade) ResourceData(id int32) ([]byte, bool) { return f.resources.Data(id) }

// --- wipic.GraphicsContext ---

// CreateFramebuffer allocates a new back-buffer.
func (f *Facade) CreateFramebuffer(width, height, bpp int) (wipic.FramebufferHandle, error) {
	return f.screen.CreateFramebuffer(width, height, bpp)
}

// FramebufferInfo reports a framebuffer's dimensions and bit depth.
func (f *Facade) FramebufferInfo(h wipic.FramebufferHandle) (int, int, int, bool) {
	return f.screen.FramebufferInfo(h)
}

// PutPixel sets a single pixel.
func (f *Facade) PutPixel(h wipic.FramebufferHandle, x, y int, color uint32) error {
	return f.screen.PutPixel(h, x, y, color)
}

// FillRect paints a solid rectangle.
func (f *Facade) FillRect(h wipic.FramebufferHandle, x, y, w, height int, color uint32) error {
	return f.screen.FillRect(h, x, y, w, height, color)
}

// Blit copies a rectangular region between framebuffers.
func (f *Facade) Blit(dst, src wipic.FramebufferHandle, dx, dy, w, height int) error {
	return f.screen.Blit(dst, src, dx, dy, w, height)
}

// DrawText paints text into a framebuffer.
func (f *Facade) DrawText(h wipic.FramebufferHandle, x, y int, text string, color uint32) error {
	return f.screen.DrawText(h, x, y, text, color)
}

// --- wipic.DatabaseContext ---

// OpenStore opens (creating if necessary) a named record store.
func (f *Facade) OpenStore(name string) (wipic.StoreHandle, error) { return f.records.OpenStore(name) }

// CloseStore closes a previously opened store.
func (f *Facade) CloseStore(h wipic.StoreHandle) error { return f.records.CloseStore(h) }

// ReadRecord returns the bytes stored at id.
func (f *Facade) ReadRecord(h wipic.StoreHandle, id int32) ([]byte, bool) {
	return f.records.ReadRecord(h, id)
}

// WriteRecord writes (inserting or overwriting) a record.
func (f *Facade) WriteRecord(h wipic.StoreHandle, id int32, data []byte) (int32, error) {
	return f.records.WriteRecord(h, id, data)
}

// DeleteRecord removes a record.
func (f *Facade) DeleteRecord(h wipic.StoreHandle, id int32) error {
	return f.records.DeleteRecord(h, id)
}

// ListRecords lists every record id in a store.
func (f *Facade) ListRecords(h wipic.StoreHandle) []int32 { return f.records.ListRecords(h) }

// ReadSingleRecord returns a store's sole record, save-slot style.
func (f *Facade) ReadSingleRecord(h wipic.StoreHandle) ([]byte, bool) {
	return f.records.ReadSingleRecord(h)
}

// WriteSingleRecord replaces a store's entire contents with one record.
func (f *Facade) WriteSingleRecord(h wipic.StoreHandle, data []byte) error {
	return f.records.WriteSingleRecord(h, data)
}

// --- wipic.MediaContext ---

// PlaySMAF plays a compressed audio payload through the host sink.
func (f *Facade) PlaySMAF(data []byte) error { return f.audio.Play(data) }

// Tick drains due timer events into spawned tasks and advances the
// executor by one scheduling pass (spec §4.10 "system.tick() drains the
// event queue (converting due timer events into spawned tasks) and
// ticks the executor").
func (f *Facade) Tick(now time.Time) error {
	for _, ev := range f.queue.DrainDueTimers(now) {
		cb := ev.Callback
		f.exec.Spawn(func() (bool, error) {
			if cb == nil {
				return true, nil
			}
			return true, cb()
		})
	}
	if err := f.exec.Tick(now); err != nil {
		if log.L != nil {
			log.L.Warn("task failed: " + err.Error())
		}
	}
	return nil
}
