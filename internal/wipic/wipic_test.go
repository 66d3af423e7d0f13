package wipic

import (
	"testing"
	"time"

	"github.com/zboralski/wie/internal/vm"
	"github.com/zboralski/wie/internal/wieerr"
)

type nopKernelContext struct{}

func (nopKernelContext) ReadBytes(addr uint32, buf []byte) error  { return nil }
func (nopKernelContext) WriteBytes(addr uint32, data []byte) error { return nil }
func (nopKernelContext) Alloc(size uint32) (uint32, error)        { return 0, nil }
func (nopKernelContext) Free(ptr uint32) error                    { return nil }
func (nopKernelContext) Now() time.Time                           { return time.Time{} }
func (nopKernelContext) Spawn(poll vm.PollFunc) vm.TaskID          { return 0 }
func (nopKernelContext) Sleep(until time.Time)                    {}
func (nopKernelContext) CallARM(addr uint32, args []uint32) (uint32, uint32, error) {
	return 0, 0, nil
}
func (nopKernelContext) ResourceID(name string) (int32, bool)        { return 0, false }
func (nopKernelContext) ResourceSize(id int32) (uint32, bool)        { return 0, false }
func (nopKernelContext) ResourceData(id int32) ([]byte, bool)        { return nil, false }

type nopGraphicsContext struct{}

func (nopGraphicsContext) ReadBytes(addr uint32, buf []byte) error  { return nil }
func (nopGraphicsContext) WriteBytes(addr uint32, data []byte) error { return nil }
func (nopGraphicsContext) CreateFramebuffer(w, h, bpp int) (FramebufferHandle, error) {
	return 1, nil
}
func (nopGraphicsContext) FramebufferInfo(h FramebufferHandle) (int, int, int, bool) {
	return 0, 0, 0, false
}
func (nopGraphicsContext) PutPixel(h FramebufferHandle, x, y int, color uint32) error { return nil }
func (nopGraphicsContext) FillRect(h FramebufferHandle, x, y, w, height int, color uint32) error {
	return nil
}
func (nopGraphicsContext) Blit(dst, src FramebufferHandle, dx, dy, w, height int) error { return nil }
func (nopGraphicsContext) DrawText(h FramebufferHandle, x, y int, text string, color uint32) error {
	return nil
}

type nopDatabaseContext struct{}

func (nopDatabaseContext) ReadBytes(addr uint32, buf []byte) error  { return nil }
func (nopDatabaseContext) WriteBytes(addr uint32, data []byte) error { return nil }
func (nopDatabaseContext) OpenStore(name string) (StoreHandle, error) { return 0, nil }
func (nopDatabaseContext) CloseStore(h StoreHandle) error              { return nil }
func (nopDatabaseContext) ReadRecord(h StoreHandle, id int32) ([]byte, bool) { return nil, false }
func (nopDatabaseContext) WriteRecord(h StoreHandle, id int32, data []byte) (int32, error) {
	return 0, nil
}
func (nopDatabaseContext) DeleteRecord(h StoreHandle, id int32) error { return nil }
func (nopDatabaseContext) ListRecords(h StoreHandle) []int32          { return nil }
func (nopDatabaseContext) ReadSingleRecord(h StoreHandle) ([]byte, bool) { return nil, false }
func (nopDatabaseContext) WriteSingleRecord(h StoreHandle, data []byte) error { return nil }

type nopMediaContext struct{}

func (nopMediaContext) PlaySMAF(data []byte) error { return nil }

func TestGetInterfaceKnownAndUnknown(t *testing.T) {
	reg := NewInterfaces(nopKernelContext{}, nopGraphicsContext{}, nopDatabaseContext{}, nopMediaContext{})

	for _, name := range []string{"kernel", "graphics", "database", "media", "network", "misc", "util", "uic"} {
		if _, ok := reg.GetInterface(name); !ok {
			t.Fatalf("GetInterface(%q) not found", name)
		}
	}

	if _, ok := reg.GetInterface("nonexistent"); ok {
		t.Fatalf("GetInterface(nonexistent) unexpectedly found")
	}
}

func TestKernelUnusedSlotsAreDiagnosableStubs(t *testing.T) {
	reg := NewInterfaces(nopKernelContext{}, nopGraphicsContext{}, nopDatabaseContext{}, nopMediaContext{})
	table, ok := reg.GetInterface("kernel")
	if !ok {
		t.Fatalf("kernel interface not found")
	}
	if len(table.Funcs) != 34 {
		t.Fatalf("kernel table has %d slots, want 34", len(table.Funcs))
	}

	_, err := table.Funcs[0](nil)
	if !wieerr.Is(err, wieerr.KindUnimplemented) {
		t.Fatalf("slot 0 error = %v, want Unimplemented", err)
	}
}

func TestNetworkMiscUtilUicAreLoggingStubs(t *testing.T) {
	reg := NewInterfaces(nopKernelContext{}, nopGraphicsContext{}, nopDatabaseContext{}, nopMediaContext{})
	for _, name := range []string{"network", "misc", "util", "uic"} {
		table, _ := reg.GetInterface(name)
		result, err := table.Funcs[0](nil)
		if err != nil {
			t.Fatalf("%s slot 0 returned error %v, want success stub", name, err)
		}
		if result == nil {
			t.Fatalf("%s slot 0 returned nil result", name)
		}
	}
}
