package ktf

import (
	"context"
	"fmt"
	"strings"

	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/wieerr"
)

// instanceHeaderSize is the field block's own header word, holding the
// class's vtable-registry index shifted into the high bits (spec §3.6,
// §4.7: "a 32-bit vtable index left-shifted by 5").
const instanceHeaderSize = 4

// Instance is a jvm.ClassInstance backed by a RawInstance record and its
// field block (spec §3.5, §4.7).
type Instance struct {
	bridge *Bridge
	ptr    uint32
}

var _ jvm.ClassInstance = (*Instance)(nil)

// InstanceFromRaw wraps an already-allocated instance pointer, the
// counterpart to FromRaw for objects crossing back from emulated code
// (e.g. the java_check_type host callback's receiver argument).
func (b *Bridge) InstanceFromRaw(ptr uint32) *Instance {
	return &Instance{bridge: b, ptr: ptr}
}

func (i *Instance) raw() (RawInstance, error) { return readRawInstance(i.bridge.rw, i.ptr) }

// ClassDefinition implements jvm.ClassInstance.
func (i *Instance) ClassDefinition() jvm.ClassDefinition {
	raw, err := i.raw()
	if err != nil {
		return nil
	}
	return i.bridge.FromRaw(raw.PtrClass)
}

// Equals implements jvm.ClassInstance by reference identity, matching
// vendor object semantics unless a class overrides equals() at the
// bytecode level (outside this bridge's scope).
func (i *Instance) Equals(other jvm.ClassInstance) bool {
	o, ok := other.(*Instance)
	return ok && o.ptr == i.ptr
}

// HashCode implements jvm.ClassInstance using the instance's own address,
// matching the vendor's default Object.hashCode() behavior.
func (i *Instance) HashCode() int32 { return int32(i.ptr) }

// GetField implements jvm.ClassInstance.
func (i *Instance) GetField(ctx context.Context, f jvm.Field) (jvm.Value, error) {
	kf, ok := f.(*Field)
	if !ok {
		return 0, fmt.Errorf("ktf: field is not a ktf.Field")
	}
	if kf.IsStatic() {
		raw, err := kf.raw()
		if err != nil {
			return 0, err
		}
		return jvm.Value(raw.OffsetOrValue), nil
	}

	addr, err := i.fieldAddr(kf)
	if err != nil {
		return 0, err
	}
	v, err := mem.ReadU32(i.bridge.rw, addr)
	if err != nil {
		return 0, err
	}
	return jvm.Value(v), nil
}

// PutField implements jvm.ClassInstance.
func (i *Instance) PutField(ctx context.Context, f jvm.Field, v jvm.Value) error {
	kf, ok := f.(*Field)
	if !ok {
		return fmt.Errorf("ktf: field is not a ktf.Field")
	}
	if kf.IsStatic() {
		raw, err := kf.raw()
		if err != nil {
			return err
		}
		raw.OffsetOrValue = uint32(v)
		return writeRawField(i.bridge.rw, kf.ptr, raw)
	}

	addr, err := i.fieldAddr(kf)
	if err != nil {
		return err
	}
	return mem.WriteU32(i.bridge.rw, addr, uint32(v))
}

// fieldAddr resolves an instance field's storage address: the field
// block starts instanceHeaderSize bytes past ptr_fields, followed by
// each field at its assigned offset (spec §4.7).
func (i *Instance) fieldAddr(f *Field) (uint32, error) {
	raw, err := i.raw()
	if err != nil {
		return 0, err
	}
	off, err := f.offset()
	if err != nil {
		return 0, err
	}
	return raw.PtrFields + instanceHeaderSize + off, nil
}

func writeRawField(w mem.ByteWriter, addr uint32, f RawField) error {
	return writeWords(w, addr, []uint32{f.AccessFlags, f.PtrOwnerClass, f.PtrFullName, f.OffsetOrValue})
}

// NewInstance allocates and initializes a new object of class, writing
// the field block's vtable-index header and the instance's ptr_class
// (spec §4.7).
func NewInstance(alloc *mem.Allocator, bridge *Bridge, class *Class) (*Instance, error) {
	fieldSize, err := class.InstanceFieldSize()
	if err != nil {
		return nil, err
	}

	raw, err := class.raw()
	if err != nil {
		return nil, err
	}
	vtableIndex := bridge.vtables.IndexFor(raw.PtrVtable)

	fieldsPtr, err := alloc.Alloc(instanceHeaderSize + fieldSize)
	if err != nil {
		return nil, err
	}
	if err := zeroRange(bridge.rw, fieldsPtr, instanceHeaderSize+fieldSize); err != nil {
		return nil, err
	}
	if err := mem.WriteU32(bridge.rw, fieldsPtr, uint32(vtableIndex)<<fieldVtableIndexShift); err != nil {
		return nil, err
	}

	instPtr, err := alloc.Alloc(rawInstanceWords * 4)
	if err != nil {
		return nil, err
	}
	if err := writeRawInstance(bridge.rw, instPtr, RawInstance{PtrFields: fieldsPtr, PtrClass: class.ptr}); err != nil {
		return nil, err
	}

	return &Instance{bridge: bridge, ptr: instPtr}, nil
}

func zeroRange(w mem.ByteWriter, addr, size uint32) error {
	const chunk = 64
	buf := make([]byte, chunk)
	for written := uint32(0); written < size; written += chunk {
		n := chunk
		if remaining := size - written; remaining < chunk {
			n = int(remaining)
		}
		if err := w.WriteBytes(addr+written, buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

// primitive element-type tags recognized in an array class's element
// slot (spec §3.5 "Array classes").
const (
	elemBoolean = 1
	elemByte    = 2
	elemChar    = 3
	elemShort   = 4
	elemInt     = 5
	elemLong    = 6
	elemFloat   = 7
	elemDouble  = 8
)

var primitiveElementSizes = map[uint32]uint32{
	elemBoolean: 1,
	elemByte:    1,
	elemChar:    2,
	elemShort:   2,
	elemInt:     4,
	elemLong:    8,
	elemFloat:   4,
	elemDouble:  8,
}

// ArrayClass is a jvm.ArrayClassDefinition wrapping a Class whose name
// has the JVM array prefix ("[").
type ArrayClass struct {
	*Class
}

var _ jvm.ArrayClassDefinition = (*ArrayClass)(nil)

// IsArrayClassName reports whether name denotes an array type under JVM
// naming conventions.
func IsArrayClassName(name string) bool { return strings.HasPrefix(name, "[") }

// AsArrayClass wraps c as an ArrayClass if its name marks it as one.
func (c *Class) AsArrayClass() (*ArrayClass, bool) {
	if !IsArrayClassName(c.Name()) {
		return nil, false
	}
	return &ArrayClass{Class: c}, true
}

func (c *ArrayClass) elementSlot() (uint32, error) {
	d, err := c.descriptor()
	if err != nil {
		return 0, err
	}
	return d.PtrFieldOrElement, nil
}

// ElementIsPrimitive implements jvm.ArrayClassDefinition. Values below
// 0x100 are a primitive tag; larger values are a pointer to the element
// class's RawClass record (spec §3.5, §9).
func (c *ArrayClass) ElementIsPrimitive() bool {
	slot, err := c.elementSlot()
	if err != nil {
		return false
	}
	return slot != 0 && slot < 0x100
}

// ElementSize implements jvm.ArrayClassDefinition.
func (c *ArrayClass) ElementSize() uint32 {
	slot, err := c.elementSlot()
	if err != nil {
		return 0
	}
	if size, ok := primitiveElementSizes[slot]; ok {
		return size
	}
	return 4 // reference element
}

// ElementClassName implements jvm.ArrayClassDefinition.
func (c *ArrayClass) ElementClassName() (string, bool) {
	slot, err := c.elementSlot()
	if err != nil || slot == 0 || slot < 0x100 {
		return "", false
	}
	return c.bridge.FromRaw(slot).Name(), true
}

// ArrayInstance is a jvm.ArrayClassInstance: length at offset 0 of the
// field block (past the vtable-index header), elements packed
// contiguously starting at offset 4 (spec §3.5 "Array classes").
type ArrayInstance struct {
	*Instance
}

var _ jvm.ArrayClassInstance = (*ArrayInstance)(nil)

// AsArrayInstance wraps inst as an ArrayInstance if its class is an
// array class.
func (i *Instance) AsArrayInstance() (*ArrayInstance, bool) {
	def := i.ClassDefinition()
	if def == nil {
		return nil, false
	}
	if !IsArrayClassName(def.Name()) {
		return nil, false
	}
	return &ArrayInstance{Instance: i}, true
}

func (a *ArrayInstance) arrayClass() (*ArrayClass, error) {
	raw, err := a.raw()
	if err != nil {
		return nil, err
	}
	class := a.bridge.FromRaw(raw.PtrClass)
	ac, ok := class.AsArrayClass()
	if !ok {
		return nil, wieerr.Fatal(fmt.Sprintf("ktf: instance at 0x%x is not an array instance", a.ptr))
	}
	return ac, nil
}

// Length implements jvm.ArrayClassInstance.
func (a *ArrayInstance) Length() (int, error) {
	raw, err := a.raw()
	if err != nil {
		return 0, err
	}
	v, err := mem.ReadU32(a.bridge.rw, raw.PtrFields+instanceHeaderSize)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func (a *ArrayInstance) elementAddr(index int) (uint32, uint32, error) {
	raw, err := a.raw()
	if err != nil {
		return 0, 0, err
	}
	length, err := a.Length()
	if err != nil {
		return 0, 0, err
	}
	if index < 0 || index >= length {
		return 0, 0, wieerr.Fatal(fmt.Sprintf("ktf: array index %d out of bounds [0,%d)", index, length))
	}
	class, err := a.arrayClass()
	if err != nil {
		return 0, 0, err
	}
	elemSize := class.ElementSize()
	base := raw.PtrFields + instanceHeaderSize + 4
	return base + uint32(index)*elemSize, elemSize, nil
}

// GetElement implements jvm.ArrayClassInstance.
func (a *ArrayInstance) GetElement(ctx context.Context, index int) (jvm.Value, error) {
	addr, size, err := a.elementAddr(index)
	if err != nil {
		return 0, err
	}
	if size == 8 {
		v, err := mem.ReadU64(a.bridge.rw, addr)
		if err != nil {
			return 0, err
		}
		return jvm.Value(uint32(v)), nil
	}
	buf := make([]byte, size)
	if err := a.bridge.rw.ReadBytes(addr, buf); err != nil {
		return 0, err
	}
	return jvm.Value(binaryLEN(buf)), nil
}

// SetElement implements jvm.ArrayClassInstance.
func (a *ArrayInstance) SetElement(ctx context.Context, index int, v jvm.Value) error {
	addr, size, err := a.elementAddr(index)
	if err != nil {
		return err
	}
	if size == 8 {
		return mem.WriteU64(a.bridge.rw, addr, uint64(v))
	}
	buf := make([]byte, size)
	putLEN(buf, uint32(v))
	return a.bridge.rw.WriteBytes(addr, buf)
}

func binaryLEN(b []byte) uint32 {
	var v uint32
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return v
}

func putLEN(b []byte, v uint32) {
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
}
