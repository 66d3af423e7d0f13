package wipic

import (
	"time"

	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/vm"
)

// KernelContext is the slice of the system facade the kernel interface
// needs: memory (C2/C5), the executor (C1), a callback into ARM code
// (C3+C4, for timer firing), the clock, and named resource lookup (spec
// §4.8 "Kernel").
type KernelContext interface {
	mem.ByteReadWriter
	Alloc(size uint32) (uint32, error)
	Free(ptr uint32) error
	Now() time.Time
	Spawn(poll vm.PollFunc) vm.TaskID
	Sleep(until time.Time)
	CallARM(addr uint32, args []uint32) (r0, r1 uint32, err error)
	ResourceID(name string) (id int32, ok bool)
	ResourceSize(id int32) (uint32, bool)
	ResourceData(id int32) ([]byte, bool)
}

// FramebufferHandle identifies a created framebuffer.
type FramebufferHandle uint32

// GraphicsContext is the facade slice the graphics interface needs:
// memory plus a framebuffer/canvas surface (spec §4.8 "Graphics").
type GraphicsContext interface {
	mem.ByteReadWriter
	CreateFramebuffer(width, height, bpp int) (FramebufferHandle, error)
	FramebufferInfo(h FramebufferHandle) (width, height, bpp int, ok bool)
	PutPixel(h FramebufferHandle, x, y int, color uint32) error
	FillRect(h FramebufferHandle, x, y, w, height int, color uint32) error
	Blit(dst, src FramebufferHandle, dx, dy, w, height int) error
	DrawText(h FramebufferHandle, x, y int, text string, color uint32) error
}

// StoreHandle identifies an open record store.
type StoreHandle uint32

// DatabaseContext is the facade slice the database interface needs: the
// platform's record-store repository plus memory access for record
// payloads (spec §4.8 "Database").
type DatabaseContext interface {
	mem.ByteReadWriter
	OpenStore(name string) (StoreHandle, error)
	CloseStore(h StoreHandle) error
	ReadRecord(h StoreHandle, id int32) ([]byte, bool)
	WriteRecord(h StoreHandle, id int32, data []byte) (int32, error)
	DeleteRecord(h StoreHandle, id int32) error
	ListRecords(h StoreHandle) []int32
	ReadSingleRecord(h StoreHandle) ([]byte, bool)
	WriteSingleRecord(h StoreHandle, data []byte) error
}

// MediaContext is the facade slice the media interface needs: a sink to
// play decoded audio through (spec §4.8 "Media").
type MediaContext interface {
	PlaySMAF(data []byte) error
}
