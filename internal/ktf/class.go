package ktf

import (
	"context"
	"fmt"

	"github.com/zboralski/wie/internal/jvm"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/wieerr"
)

// Class is a jvm.ClassDefinition backed by a RawClass/RawDescriptor pair
// in emulated memory (spec §3.5, §4.7).
type Class struct {
	bridge *Bridge
	ptr    uint32
}

var _ jvm.ClassDefinition = (*Class)(nil)

// FromRaw wraps an already-loaded class pointer.
func (b *Bridge) FromRaw(ptr uint32) *Class {
	return &Class{bridge: b, ptr: ptr}
}

// Ptr returns the class's address in emulated memory, the form callers
// crossing back into ARM code (e.g. the java_class_load host callback)
// need instead of the jvm.ClassDefinition wrapper.
func (c *Class) Ptr() uint32 { return c.ptr }

func (c *Class) raw() (RawClass, error)      { return readRawClass(c.bridge.rw, c.ptr) }
func (c *Class) descriptor() (RawDescriptor, error) {
	raw, err := c.raw()
	if err != nil {
		return RawDescriptor{}, err
	}
	return readRawDescriptor(c.bridge.rw, raw.PtrDescriptor)
}

// Name implements jvm.ClassDefinition.
func (c *Class) Name() string {
	d, err := c.descriptor()
	if err != nil {
		return ""
	}
	name, err := mem.ReadCString(c.bridge.rw, d.PtrName)
	if err != nil {
		return ""
	}
	return name
}

// ParentName implements jvm.ClassDefinition by reading the name of the
// class the descriptor's parent pointer refers to. The get_class
// trampoline is not called.
func (c *Class) ParentName() (string, bool) {
	d, err := c.descriptor()
	if err != nil || d.PtrParent == 0 {
		return "", false
	}
	return c.bridge.FromRaw(d.PtrParent).Name(), true
}

// Parent returns the resolved parent class, or nil at the root of the
// hierarchy.
func (c *Class) Parent() (*Class, error) {
	d, err := c.descriptor()
	if err != nil {
		return nil, err
	}
	if d.PtrParent == 0 {
		return nil, nil
	}
	return c.bridge.FromRaw(d.PtrParent), nil
}

// AccessFlags implements jvm.ClassDefinition.
func (c *Class) AccessFlags() uint32 {
	d, err := c.descriptor()
	if err != nil {
		return 0
	}
	return d.AccessFlags
}

// InstanceFieldSize implements jvm.ClassDefinition.
func (c *Class) InstanceFieldSize() (uint32, error) {
	d, err := c.descriptor()
	if err != nil {
		return 0, err
	}
	return d.FieldSize, nil
}

// Methods implements jvm.ClassDefinition by walking the method table
// (a null-terminated table of pointers to RawMethod records).
func (c *Class) Methods() ([]jvm.Method, error) {
	d, err := c.descriptor()
	if err != nil {
		return nil, err
	}
	if d.PtrMethodTable == 0 {
		return nil, nil
	}
	ptrs, err := mem.ReadNullTerminatedTable(c.bridge.rw, d.PtrMethodTable)
	if err != nil {
		return nil, err
	}
	out := make([]jvm.Method, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, &Method{bridge: c.bridge, ptr: p})
	}
	return out, nil
}

// Fields implements jvm.ClassDefinition by walking the field table (a
// null-terminated table of pointers to RawField records).
func (c *Class) Fields() ([]jvm.Field, error) {
	d, err := c.descriptor()
	if err != nil {
		return nil, err
	}
	if d.PtrFieldOrElement == 0 {
		return nil, nil
	}
	ptrs, err := mem.ReadNullTerminatedTable(c.bridge.rw, d.PtrFieldOrElement)
	if err != nil {
		return nil, err
	}
	out := make([]jvm.Field, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, &Field{bridge: c.bridge, ptr: p})
	}
	return out, nil
}

// hierarchy returns the class and its ancestors, root-first (spec
// "vtable_builder.rs": `read_class_hierarchy().rev()`).
func (c *Class) hierarchy() ([]*Class, error) {
	var chain []*Class
	cur := c
	for cur != nil {
		chain = append(chain, cur)
		parent, err := cur.Parent()
		if err != nil {
			return nil, err
		}
		cur = parent
	}
	// reverse in place: chain was leaf-first, we want root-first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

type vtableMethod struct {
	ptr        uint32
	name       string
	descriptor string
}

// BuildVtable walks the class hierarchy root-first and produces the
// ordered method-dispatch table, later overrides replacing earlier
// entries by (name, descriptor) while keeping the original slot (spec
// §4.7, grounded on vtable_builder.rs).
func (c *Class) BuildVtable() ([]uint32, error) {
	chain, err := c.hierarchy()
	if err != nil {
		return nil, err
	}

	var vtable []vtableMethod
	index := func(name, descriptor string) int {
		for i, m := range vtable {
			if m.name == name && m.descriptor == descriptor {
				return i
			}
		}
		return -1
	}

	for _, class := range chain {
		methods, err := class.Methods()
		if err != nil {
			return nil, err
		}
		for _, m := range methods {
			km := m.(*Method)
			full, err := km.fullName()
			if err != nil {
				return nil, err
			}
			entry := vtableMethod{ptr: km.ptr, name: full.Name, descriptor: full.Descriptor}
			if i := index(full.Name, full.Descriptor); i >= 0 {
				vtable[i] = entry
			} else {
				vtable = append(vtable, entry)
			}
		}
	}

	ptrs := make([]uint32, len(vtable))
	for i, m := range vtable {
		ptrs[i] = m.ptr
		if err := setMethodVtableIndex(c.bridge.rw, m.ptr, uint32(i)); err != nil {
			return nil, err
		}
	}
	return ptrs, nil
}

func setMethodVtableIndex(rw mem.ByteReadWriter, methodPtr uint32, index uint32) error {
	raw, err := readRawMethod(rw, methodPtr)
	if err != nil {
		return err
	}
	raw.VtableIndex = index
	return writeRawMethod(rw, methodPtr, raw)
}

// ResolveClass implements jvm.Resolver: look up name in the bridge's
// cache, falling back to the vendor's get_class trampoline and caching
// the result (spec §4.7 "Class-loader bridge").
func (b *Bridge) ResolveClass(ctx context.Context, name string) (jvm.ClassDefinition, error) {
	b.cacheMu.Lock()
	if ptr, ok := b.classCache[name]; ok {
		b.cacheMu.Unlock()
		if log.L != nil {
			log.L.ClassResolve(name, uint64(ptr), true)
		}
		return b.FromRaw(ptr), nil
	}
	b.cacheMu.Unlock()

	if b.getClass == nil {
		return nil, wieerr.Fatal("ktf: get_class trampoline not configured")
	}
	ptr, err := b.getClass(name)
	if err != nil {
		return nil, fmt.Errorf("ktf: get_class(%q): %w", name, err)
	}
	if ptr == 0 {
		return nil, &jvm.ClassNotFoundError{Name: name}
	}

	b.cacheMu.Lock()
	b.classCache[name] = ptr
	b.cacheMu.Unlock()

	if log.L != nil {
		log.L.ClassResolve(name, uint64(ptr), false)
	}
	return b.FromRaw(ptr), nil
}
