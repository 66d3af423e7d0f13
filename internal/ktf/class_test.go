package ktf

import (
	"testing"

	"github.com/zboralski/wie/internal/mem"
)

// classBuilder constructs a RawClass/RawDescriptor/RawMethod graph in a
// fakeMem, matching the vendor ABI byte-for-byte, so BuildVtable can be
// exercised without a real ARM image.
type classBuilder struct {
	t   *testing.T
	m   *fakeMem
	a   *arena
	b   *Bridge
}

func newClassBuilder(t *testing.T) *classBuilder {
	fm := newFakeMem(0x1000, 0x10000)
	return &classBuilder{
		t: t,
		m: fm,
		a: &arena{m: fm, next: 0x1000},
		b: &Bridge{rw: fm, vtables: NewVtableRegistry(), classCache: make(map[string]uint32)},
	}
}

func (cb *classBuilder) str(s string) uint32 {
	addr := cb.a.alloc(uint32(len(s) + 1))
	if err := mem.WriteCString(cb.m, addr, s); err != nil {
		cb.t.Fatalf("WriteCString: %v", err)
	}
	return addr
}

// method allocates a RawMethod with full name "M:<name>:<descriptor>".
func (cb *classBuilder) method(implAddr uint32, ownerClass uint32, name, descriptor string) uint32 {
	nameAddr := cb.str("M:" + name + ":" + descriptor)
	addr := cb.a.alloc(rawMethodWords * 4)
	if err := writeRawMethod(cb.m, addr, RawMethod{
		ImplAddr:      implAddr,
		PtrOwnerClass: ownerClass,
		PtrFullName:   nameAddr,
	}); err != nil {
		cb.t.Fatalf("writeRawMethod: %v", err)
	}
	return addr
}

func (cb *classBuilder) methodTable(methodPtrs ...uint32) uint32 {
	addr := cb.a.alloc(uint32(len(methodPtrs)+1) * 4)
	if err := mem.WriteNullTerminatedTable(cb.m, addr, methodPtrs); err != nil {
		cb.t.Fatalf("WriteNullTerminatedTable: %v", err)
	}
	return addr
}

// class allocates a RawClass+RawDescriptor pair. methodPtrs may be empty.
func (cb *classBuilder) class(name string, parent uint32, methodPtrs []uint32) uint32 {
	nameAddr := cb.str(name)
	methodTable := uint32(0)
	if len(methodPtrs) > 0 {
		methodTable = cb.methodTable(methodPtrs...)
	}

	descAddr := cb.a.alloc(rawDescriptorWords * 4)
	if err := writeRawDescriptor(cb.m, descAddr, RawDescriptor{
		PtrName:        nameAddr,
		PtrParent:      parent,
		PtrMethodTable: methodTable,
		MethodCount:    uint32(len(methodPtrs)),
	}); err != nil {
		cb.t.Fatalf("writeRawDescriptor: %v", err)
	}

	classAddr := cb.a.alloc(rawClassWords * 4)
	if err := writeRawClass(cb.m, classAddr, RawClass{PtrDescriptor: descAddr, PtrVtable: classAddr}); err != nil {
		cb.t.Fatalf("writeRawClass: %v", err)
	}
	return classAddr
}

func TestBuildVtableInheritsAndOverrides(t *testing.T) {
	cb := newClassBuilder(t)

	objectClass := cb.class("java/lang/Object", 0, nil)

	baseFoo := cb.method(0x100, 0, "foo", "()V")
	baseClass := cb.class("Base", objectClass, []uint32{baseFoo})

	derivedFoo := cb.method(0x200, 0, "foo", "()V") // overrides Base.foo
	derivedBar := cb.method(0x300, 0, "bar", "()V") // new method
	derivedClass := cb.class("Derived", baseClass, []uint32{derivedFoo, derivedBar})

	vtable, err := cb.b.FromRaw(derivedClass).BuildVtable()
	if err != nil {
		t.Fatalf("BuildVtable: %v", err)
	}
	if len(vtable) != 2 {
		t.Fatalf("vtable len = %d, want 2", len(vtable))
	}
	if vtable[0] != derivedFoo {
		t.Fatalf("vtable[0] = 0x%x, want derived foo override 0x%x", vtable[0], derivedFoo)
	}
	if vtable[1] != derivedBar {
		t.Fatalf("vtable[1] = 0x%x, want bar 0x%x", vtable[1], derivedBar)
	}

	// foo keeps Base's slot index (0) even though Derived overrides it.
	fooRaw, err := readRawMethod(cb.m, derivedFoo)
	if err != nil {
		t.Fatalf("readRawMethod: %v", err)
	}
	if fooRaw.VtableIndex != 0 {
		t.Fatalf("overridden foo vtable index = %d, want 0", fooRaw.VtableIndex)
	}
}

func TestClassNameAndParentName(t *testing.T) {
	cb := newClassBuilder(t)
	parent := cb.class("Base", 0, nil)
	child := cb.class("Derived", parent, nil)

	c := cb.b.FromRaw(child)
	if c.Name() != "Derived" {
		t.Fatalf("Name() = %q, want Derived", c.Name())
	}
	parentName, ok := c.ParentName()
	if !ok || parentName != "Base" {
		t.Fatalf("ParentName() = (%q, %v), want (Base, true)", parentName, ok)
	}

	root := cb.b.FromRaw(parent)
	if _, ok := root.ParentName(); ok {
		t.Fatalf("root class reported a parent")
	}
}
