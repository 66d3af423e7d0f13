// Package bridge implements the function bridge (spec C4): registering
// host closures at emulated trampoline addresses, and the calling
// convention marshalling in both directions.
//
// The Rust original generates this for 0-4 argument arities via a
// declarative macro over a tuple of trait impls; Go has no variadic
// generics, so a HostFunc here decodes its own arguments from a Call
// cursor instead of receiving them as separate typed parameters. This
// keeps one registration path for every arity.
package bridge

import (
	"fmt"

	"github.com/zboralski/wie/internal/arm"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/mem"
)

// Call gives a HostFunc read access to the calling convention: the four
// register arguments and, beyond that, the emulated stack.
type Call struct {
	engine *arm.Engine
	index  int
}

// U32 decodes the next argument as a raw 32-bit value.
func (c *Call) U32() (uint32, error) {
	v, err := c.word(c.index)
	if err != nil {
		return 0, err
	}
	c.index++
	return v, nil
}

// String decodes the next argument as a pointer to a NUL-terminated
// string in emulated memory (spec §4.4 "Parameter decoders ... for
// integers and null-terminated strings").
func (c *Call) String() (string, error) {
	ptr, err := c.U32()
	if err != nil {
		return "", err
	}
	if ptr == 0 {
		return "", nil
	}
	return mem.ReadCString(c.engine, ptr)
}

// Engine exposes the underlying ARM engine for bodies that need direct
// memory or register access beyond simple argument decoding.
func (c *Call) Engine() *arm.Engine { return c.engine }

// word returns the i-th calling-convention argument: R0..R3 for i<4,
// otherwise a stack slot at SP+(i-4)*4 (AAPCS overflow args).
func (c *Call) word(i int) (uint32, error) {
	if i < 4 {
		return c.engine.R(i), nil
	}
	addr := c.engine.SP() + uint32(i-4)*4
	return mem.ReadU32(c.engine, addr)
}

// Result is the value a HostFunc returns; it knows how to encode itself
// into R0 (and R1 for 64-bit results, per spec §4.4).
type Result interface {
	encode() (r0, r1 uint32, wide bool)
}

// Unit is returned by host functions with no meaningful result.
type Unit struct{}

func (Unit) encode() (uint32, uint32, bool) { return 0, 0, false }

// U32Result wraps a 32-bit scalar result.
type U32Result uint32

func (v U32Result) encode() (uint32, uint32, bool) { return uint32(v), 0, false }

// U64Result wraps a 64-bit scalar result, split across R0 (low) and R1
// (high).
type U64Result uint64

func (v U64Result) encode() (uint32, uint32, bool) {
	return uint32(v), uint32(v >> 32), true
}

// HostFunc is a host-implemented function reachable from emulated code
// through a registered trampoline.
type HostFunc func(c *Call) (Result, error)

// thumbBxLR is the 2-byte Thumb encoding of `BX LR`.
var thumbBxLR = []byte{0x70, 0x47}

// Bridge owns trampoline address allocation on top of an ARM engine.
type Bridge struct {
	engine *arm.Engine
	next   uint32
}

// New creates a bridge over e, allocating trampolines starting at the
// base of the engine's trampoline region.
func New(e *arm.Engine) *Bridge {
	return &Bridge{engine: e, next: arm.TrampolineBase}
}

// RegisterFunction allocates a 2-byte `BX LR` trampoline slot, hooks
// entry into it to invoke fn, and returns the trampoline address with
// the Thumb bit set (spec §4.4).
func (b *Bridge) RegisterFunction(name string, fn HostFunc) (uint32, error) {
	if b.next+2 > arm.TrampolineBase+arm.TrampolineSize-4 {
		return 0, fmt.Errorf("bridge: trampoline region exhausted registering %q", name)
	}
	addr := b.next
	b.next += 2

	if err := b.engine.WriteBytes(addr, thumbBxLR); err != nil {
		return 0, err
	}

	b.engine.AddTrampoline(addr, func(e *arm.Engine) (uint32, error) {
		call := &Call{engine: e}
		result, err := fn(call)
		if err != nil {
			return 0, err
		}
		lo, hi, wide := result.encode()
		if wide {
			if err := e.SetR(1, hi); err != nil {
				return 0, err
			}
		}
		return lo, nil
	})

	if log.L != nil {
		log.L.StubInstall("bridge", name, uint64(addr))
	}

	return addr | 1, nil
}
