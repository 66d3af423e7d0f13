package ktf

import (
	"github.com/zboralski/wie/internal/jvm"
)

// staticFieldFlag marks a field as static in the vendor ABI's
// access-flags word (spec §3.5, matching the JVM ACC_STATIC bit).
const staticFieldFlag = 0x0008

// Field is a jvm.Field backed by a RawField record (spec §3.5).
type Field struct {
	bridge *Bridge
	ptr    uint32
}

var _ jvm.Field = (*Field)(nil)

func (f *Field) raw() (RawField, error) { return readRawField(f.bridge.rw, f.ptr) }

func (f *Field) fullName() (fullName, error) {
	raw, err := f.raw()
	if err != nil {
		return fullName{}, err
	}
	return readFullName(f.bridge.rw, raw.PtrFullName)
}

// Name implements jvm.Field.
func (f *Field) Name() string {
	fn, err := f.fullName()
	if err != nil {
		return ""
	}
	return fn.Name
}

// Descriptor implements jvm.Field.
func (f *Field) Descriptor() string {
	fn, err := f.fullName()
	if err != nil {
		return ""
	}
	return fn.Descriptor
}

// AccessFlags implements jvm.Field.
func (f *Field) AccessFlags() uint32 {
	raw, err := f.raw()
	if err != nil {
		return 0
	}
	return raw.AccessFlags
}

// IsStatic implements jvm.Field.
func (f *Field) IsStatic() bool {
	return f.AccessFlags()&staticFieldFlag != 0
}

// offset returns the instance field offset this field was assigned
// (meaningless for static fields, which store their value directly in
// OffsetOrValue).
func (f *Field) offset() (uint32, error) {
	raw, err := f.raw()
	if err != nil {
		return 0, err
	}
	return raw.OffsetOrValue, nil
}
