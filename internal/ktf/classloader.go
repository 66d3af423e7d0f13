package ktf

import (
	"fmt"

	"github.com/zboralski/wie/internal/arm"
	"github.com/zboralski/wie/internal/mem"
)

// VendorGetClass builds a GetClassFunc that calls the vendor binary's own
// get_class(name) entry point through the reentrant call bridge: the
// class name is written as a NUL-terminated string into scratch memory,
// passed as the sole argument, and the returned RawClass pointer is
// whatever the call leaves in R0 (spec §4.7 "resolved via get_class
// trampoline if not yet loaded").
func VendorGetClass(engine *arm.Engine, alloc *mem.Allocator, implAddr uint32) GetClassFunc {
	return func(name string) (uint32, error) {
		namePtr, err := alloc.Alloc(uint32(len(name) + 1))
		if err != nil {
			return 0, fmt.Errorf("ktf: get_class(%q): scratch alloc: %w", name, err)
		}
		defer alloc.Free(namePtr)

		if err := mem.WriteCString(engine, namePtr, name); err != nil {
			return 0, fmt.Errorf("ktf: get_class(%q): write name: %w", name, err)
		}

		r0, _, err := engine.RunFunction(implAddr, []uint32{namePtr})
		if err != nil {
			return 0, fmt.Errorf("ktf: get_class(%q): %w", name, err)
		}
		return r0, nil
	}
}
