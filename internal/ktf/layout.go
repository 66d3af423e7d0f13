// Package ktf adapts the KTF vendor binary's pre-built in-memory class
// metadata (spec §3.5) to the jvm package's ClassDefinition/ClassInstance
// contract (spec C8), including vtable index assignment, instance
// layout, and the class-loader bridge that resolves further classes by
// calling back into the vendor binary.
package ktf

import (
	"fmt"

	"github.com/zboralski/wie/internal/mem"
	"github.com/zboralski/wie/internal/wieerr"
)

// Raw record sizes, in 32-bit words, matching the vendor ABI (spec
// §3.5). Every field is a little-endian u32; there is no padding.
const (
	rawClassWords      = 5 // ptr_next, ptr_descriptor, ptr_vtable, vtable_count, unk_flag
	rawDescriptorWords = 8 // name, parent, methods, interfaces, field/element, method_count, field_size, access_flags
	rawMethodWords     = 5 // impl, owner_class, full_name, vtable_index, access_flags
	rawFieldWords      = 4 // access_flags, owner_class, full_name, offset_or_value
	rawInstanceWords   = 2 // ptr_fields, ptr_class

	fieldVtableIndexShift = 5
)

// RawClass is the vendor ABI's class header (spec §3.5).
type RawClass struct {
	PtrNext       uint32
	PtrDescriptor uint32
	PtrVtable     uint32
	VtableCount   uint32
	UnkFlag       uint32
}

func readRawClass(r mem.ByteReader, addr uint32) (RawClass, error) {
	words, err := readWords(r, addr, rawClassWords)
	if err != nil {
		return RawClass{}, err
	}
	return RawClass{
		PtrNext:       words[0],
		PtrDescriptor: words[1],
		PtrVtable:     words[2],
		VtableCount:   words[3],
		UnkFlag:       words[4],
	}, nil
}

func writeRawClass(w mem.ByteWriter, addr uint32, c RawClass) error {
	return writeWords(w, addr, []uint32{c.PtrNext, c.PtrDescriptor, c.PtrVtable, c.VtableCount, c.UnkFlag})
}

// RawDescriptor is the vendor ABI's class descriptor (spec §3.5).
type RawDescriptor struct {
	PtrName          uint32
	PtrParent        uint32
	PtrMethodTable   uint32
	PtrInterfaceTable uint32
	PtrFieldOrElement uint32 // field table ptr for classes; element-type slot for array classes
	MethodCount      uint32
	FieldSize        uint32
	AccessFlags      uint32
}

func readRawDescriptor(r mem.ByteReader, addr uint32) (RawDescriptor, error) {
	words, err := readWords(r, addr, rawDescriptorWords)
	if err != nil {
		return RawDescriptor{}, err
	}
	return RawDescriptor{
		PtrName:           words[0],
		PtrParent:         words[1],
		PtrMethodTable:    words[2],
		PtrInterfaceTable: words[3],
		PtrFieldOrElement: words[4],
		MethodCount:       words[5],
		FieldSize:         words[6],
		AccessFlags:       words[7],
	}, nil
}

func writeRawDescriptor(w mem.ByteWriter, addr uint32, d RawDescriptor) error {
	return writeWords(w, addr, []uint32{
		d.PtrName, d.PtrParent, d.PtrMethodTable, d.PtrInterfaceTable,
		d.PtrFieldOrElement, d.MethodCount, d.FieldSize, d.AccessFlags,
	})
}

// RawMethod is the vendor ABI's method table entry (spec §3.5).
type RawMethod struct {
	ImplAddr     uint32
	PtrOwnerClass uint32
	PtrFullName  uint32
	VtableIndex  uint32
	AccessFlags  uint32
}

func readRawMethod(r mem.ByteReader, addr uint32) (RawMethod, error) {
	words, err := readWords(r, addr, rawMethodWords)
	if err != nil {
		return RawMethod{}, err
	}
	return RawMethod{
		ImplAddr:      words[0],
		PtrOwnerClass: words[1],
		PtrFullName:   words[2],
		VtableIndex:   words[3],
		AccessFlags:   words[4],
	}, nil
}

func writeRawMethod(w mem.ByteWriter, addr uint32, m RawMethod) error {
	return writeWords(w, addr, []uint32{m.ImplAddr, m.PtrOwnerClass, m.PtrFullName, m.VtableIndex, m.AccessFlags})
}

// RawField is the vendor ABI's field table entry (spec §3.5).
type RawField struct {
	AccessFlags     uint32
	PtrOwnerClass   uint32
	PtrFullName     uint32
	OffsetOrValue   uint32
}

func readRawField(r mem.ByteReader, addr uint32) (RawField, error) {
	words, err := readWords(r, addr, rawFieldWords)
	if err != nil {
		return RawField{}, err
	}
	return RawField{
		AccessFlags:   words[0],
		PtrOwnerClass: words[1],
		PtrFullName:   words[2],
		OffsetOrValue: words[3],
	}, nil
}

// RawInstance is the vendor ABI's instance header (spec §3.5).
type RawInstance struct {
	PtrFields uint32
	PtrClass  uint32
}

func readRawInstance(r mem.ByteReader, addr uint32) (RawInstance, error) {
	words, err := readWords(r, addr, rawInstanceWords)
	if err != nil {
		return RawInstance{}, err
	}
	return RawInstance{PtrFields: words[0], PtrClass: words[1]}, nil
}

func writeRawInstance(w mem.ByteWriter, addr uint32, i RawInstance) error {
	return writeWords(w, addr, []uint32{i.PtrFields, i.PtrClass})
}

func readWords(r mem.ByteReader, addr uint32, n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		v, err := mem.ReadU32(r, addr+uint32(i)*4)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writeWords(w mem.ByteWriter, addr uint32, words []uint32) error {
	for i, v := range words {
		if err := mem.WriteU32(w, addr+uint32(i)*4, v); err != nil {
			return err
		}
	}
	return nil
}

// fullName is the vendor ABI's `tag:name:descriptor` encoding for a
// method or field's full-name pointer.
type fullName struct {
	Tag        byte
	Name       string
	Descriptor string
}

func readFullName(r mem.ByteReader, addr uint32) (fullName, error) {
	s, err := mem.ReadCString(r, addr)
	if err != nil {
		return fullName{}, err
	}
	parts := splitN(s, ':', 3)
	if len(parts) != 3 {
		return fullName{}, wieerr.Fatal(fmt.Sprintf("malformed full name %q at 0x%x", s, addr))
	}
	tag := byte(0)
	if len(parts[0]) > 0 {
		tag = parts[0][0]
	}
	return fullName{Tag: tag, Name: parts[1], Descriptor: parts[2]}, nil
}

func splitN(s string, sep byte, n int) []string {
	var out []string
	start := 0
	for i := 0; i < len(s) && len(out) < n-1; i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
