package ktf

import "sync"

// VtableRegistry is the process-wide table of unique class-vtable
// pointers used for O(1) virtual dispatch (spec §3.6, §4.7 "Vtable
// index registry"). A class's slot, once assigned, never changes; it is
// written into every instance of that class.
type VtableRegistry struct {
	mu      sync.Mutex
	byAddr  map[uint32]int
	ordered []uint32
}

// NewVtableRegistry creates an empty registry.
func NewVtableRegistry() *VtableRegistry {
	return &VtableRegistry{byAddr: make(map[uint32]int)}
}

// IndexFor returns the slot for vtablePtr, assigning the next available
// slot the first time a given pointer is seen.
func (v *VtableRegistry) IndexFor(vtablePtr uint32) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	if idx, ok := v.byAddr[vtablePtr]; ok {
		return idx
	}
	idx := len(v.ordered)
	v.byAddr[vtablePtr] = idx
	v.ordered = append(v.ordered, vtablePtr)
	return idx
}

// Len reports how many distinct vtable pointers have been registered.
func (v *VtableRegistry) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.ordered)
}

// Table returns the registered pointers in assignment order, suitable
// for serializing as the PEB's null-terminated vtable-pointer table
// (spec §3.6).
func (v *VtableRegistry) Table() []uint32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]uint32(nil), v.ordered...)
}
