package mem

import (
	"fmt"

	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/wieerr"
	"go.uber.org/zap"
)

const headerSize = 4 // one uint32 header

// Allocator is a first-fit heap carved out of an emulated address space
// (spec C2). Each block is preceded by a 32-bit header: bit 31 is the
// in-use flag, bits 0-30 are the total block size including the header,
// rounded up to 4. Free blocks are not coalesced eagerly — free-free
// fragmentation is permitted by design (spec §4.2, §9 open question a).
type Allocator struct {
	rw   ByteReadWriter
	base uint32
	size uint32
}

// NewAllocator initializes a single free header spanning [base, base+size)
// and returns the ready-to-use allocator.
func NewAllocator(rw ByteReadWriter, base, size uint32) (*Allocator, error) {
	a := &Allocator{rw: rw, base: base, size: size}
	if err := writeHeader(rw, base, size, false); err != nil {
		return nil, err
	}
	return a, nil
}

// header packs size|inUse<<31 into a single uint32, matching the vendor
// ABI's allocation header layout (spec §3.3).
func header(size uint32, inUse bool) uint32 {
	v := size & 0x7FFFFFFF
	if inUse {
		v |= 0x80000000
	}
	return v
}

func headerSizeOf(h uint32) uint32  { return h & 0x7FFFFFFF }
func headerInUse(h uint32) bool     { return h&0x80000000 != 0 }

func writeHeader(w ByteWriter, addr, size uint32, inUse bool) error {
	return WriteU32(w, addr, header(size, inUse))
}

func roundUp4(v uint32) uint32 {
	return (v + 3) &^ 3
}

// Alloc rounds size+header up to a multiple of 4 and returns the first
// free block whose size is >= that, splitting the remainder into a new
// free header when the block is larger than requested. Returns a user
// pointer past the header.
func (a *Allocator) Alloc(size uint32) (uint32, error) {
	allocSize := roundUp4(size + headerSize)

	addr, err := a.findFree(allocSize)
	if err != nil {
		return 0, err
	}

	prevHeader, err := ReadU32(a.rw, addr)
	if err != nil {
		return 0, err
	}
	prevSize := headerSizeOf(prevHeader)

	if err := writeHeader(a.rw, addr, allocSize, true); err != nil {
		return 0, err
	}

	if prevSize > allocSize {
		if err := writeHeader(a.rw, addr+allocSize, prevSize-allocSize, false); err != nil {
			return 0, err
		}
	}

	if log.L != nil {
		log.L.Debug("alloc", zap.Uint32("size", size), log.Addr(uint64(addr+headerSize)))
	}

	return addr + headerSize, nil
}

// Free clears the in-use bit of the header immediately before ptr.
// Asserts the block was in use; double-free is a fatal error.
func (a *Allocator) Free(ptr uint32) error {
	if ptr < headerSize {
		return wieerr.Fatal(fmt.Sprintf("free: invalid pointer 0x%x", ptr))
	}
	base := ptr - headerSize

	h, err := ReadU32(a.rw, base)
	if err != nil {
		return err
	}
	if !headerInUse(h) {
		return wieerr.Fatal(fmt.Sprintf("double free at 0x%x", ptr))
	}

	if log.L != nil {
		log.L.Debug("free", log.Addr(uint64(ptr)))
	}

	return writeHeader(a.rw, base, headerSizeOf(h), false)
}

// findFree walks the heap from base on every call (spec §4.2: "The
// allocator walks the region from base on each allocation"), returning the
// first free block whose recorded size is >= requestSize.
func (a *Allocator) findFree(requestSize uint32) (uint32, error) {
	cursor := a.base
	end := a.base + a.size

	for cursor < end {
		h, err := ReadU32(a.rw, cursor)
		if err != nil {
			return 0, err
		}
		blockSize := headerSizeOf(h)
		if blockSize == 0 {
			return 0, wieerr.Fatal(fmt.Sprintf("corrupt allocator header at 0x%x (zero size)", cursor))
		}
		if !headerInUse(h) && blockSize >= requestSize {
			return cursor, nil
		}
		cursor += blockSize
	}

	return 0, wieerr.AllocationFailure(fmt.Sprintf("no free block >= %d bytes in heap [0x%x, 0x%x)", requestSize, a.base, end))
}
