package ktf

import (
	"context"
	"testing"

	"github.com/zboralski/wie/internal/mem"
)

func newTestHeap(t *testing.T) (*fakeMem, *mem.Allocator) {
	t.Helper()
	const base = 0x40000000
	const size = 0x10000
	fm := newFakeMem(base, size)
	alloc, err := mem.NewAllocator(fm, base, size)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	return fm, alloc
}

func TestNewInstanceFieldReadWrite(t *testing.T) {
	cb := newClassBuilder(t)
	fm, alloc := newTestHeap(t)
	// class metadata lives in cb.m; instances live in a separate heap,
	// both reachable through the same Bridge since both are fakeMems
	// addressed by absolute uint32 — route the bridge's rw through a
	// combined reader that knows which region an address falls in.
	combined := &splitMem{low: cb.m, high: fm}
	cb.b.rw = combined

	objectClass := cb.class("java/lang/Object", 0, nil)
	classAddr := cb.class("Point", objectClass, nil)

	// Give the descriptor a non-zero instance size and one instance
	// field "x" at offset 0.
	raw, err := readRawClass(cb.m, classAddr)
	if err != nil {
		t.Fatalf("readRawClass: %v", err)
	}
	desc, err := readRawDescriptor(cb.m, raw.PtrDescriptor)
	if err != nil {
		t.Fatalf("readRawDescriptor: %v", err)
	}
	desc.FieldSize = 4
	xField := cb.a.alloc(rawFieldWords * 4)
	nameAddr := cb.str("F:x:I")
	if err := writeRawField(cb.m, xField, RawField{PtrFullName: nameAddr, OffsetOrValue: 0}); err != nil {
		t.Fatalf("writeRawField: %v", err)
	}
	fieldTable := cb.methodTable(xField)
	desc.PtrFieldOrElement = fieldTable
	if err := writeRawDescriptor(cb.m, raw.PtrDescriptor, desc); err != nil {
		t.Fatalf("writeRawDescriptor: %v", err)
	}

	class := cb.b.FromRaw(classAddr)
	inst, err := NewInstance(alloc, cb.b, class)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}

	fields, err := class.Fields()
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 1 {
		t.Fatalf("len(fields) = %d, want 1", len(fields))
	}
	xf := fields[0]

	ctx := context.Background()
	if err := inst.PutField(ctx, xf, 42); err != nil {
		t.Fatalf("PutField: %v", err)
	}
	v, err := inst.GetField(ctx, xf)
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	if v != 42 {
		t.Fatalf("GetField = %d, want 42", v)
	}

	if !inst.Equals(inst) {
		t.Fatalf("instance does not equal itself")
	}
}

// splitMem routes low addresses to one backing store and high addresses
// to another, letting a test keep class metadata and heap-allocated
// instances in separate fakeMems while sharing one Bridge.
type splitMem struct {
	low, high mem.ByteReadWriter
}

func (s *splitMem) pick(addr uint32) mem.ByteReadWriter {
	if addr >= 0x40000000 {
		return s.high
	}
	return s.low
}

func (s *splitMem) ReadBytes(addr uint32, buf []byte) error {
	return s.pick(addr).ReadBytes(addr, buf)
}

func (s *splitMem) WriteBytes(addr uint32, data []byte) error {
	return s.pick(addr).WriteBytes(addr, data)
}
