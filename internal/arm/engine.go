// Package arm provides ARMv5 (ARM + Thumb interworking) emulation using
// Unicorn Engine, and the reentrant host<->emulated call mechanism (spec
// C3) that the rest of the runtime is built on.
package arm

import (
	"encoding/binary"
	"fmt"
	"sync"

	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
	"go.uber.org/zap"

	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/wieerr"
)

// Default emulated address space layout.
const (
	ImageBase   = 0x00100000
	StackBase   = 0x70000000
	StackSize   = 0x00010000
	HeapBase    = 0x40000000
	HeapSize    = 0x01000000
	TrampolineBase = 0x80000000
	TrampolineSize = 0x00100000
	PEBBase     = 0x7FF00000
	PEBSize     = 0x00001000

	// RunFunctionLR is the sentinel return address written to LR before a
	// reentrant call; a BX LR landing here halts the run loop (spec §4.3).
	RunFunctionLR = TrampolineBase + TrampolineSize - 4

	thumbBit = 1
)

// CodeHookFunc is called for every executed instruction.
type CodeHookFunc func(e *Engine, addr uint32, size uint32)

// TrampolineFunc is the host closure bound to a trampoline address. It
// receives the engine (to read R0..R3 / stack / memory) and returns the
// raw 32-bit result placed in R0 by the caller (spec §4.4).
type TrampolineFunc func(e *Engine) (uint32, error)

// Engine wraps a Unicorn ARM context: register/memory access, a code
// hook used to intercept trampoline addresses, and thread-context
// save/restore for reentrant calls (spec C3).
type Engine struct {
	mu uc.Unicorn

	trampolinesMu sync.RWMutex
	trampolines   map[uint32]TrampolineFunc

	codeHooksMu sync.Mutex
	codeHooks   []CodeHookFunc

	threadsMu sync.Mutex
	threads   map[uint32]*ThreadContext
	nextThread uint32

	stopped bool
}

// ThreadContext is a saved ARM register file, used to suspend and later
// resume a reentrant call across a host await (spec §4.3 "Thread model").
type ThreadContext struct {
	ID  uint32
	Regs [16]uint32 // R0-R15 (R13=SP, R14=LR, R15=PC)
	CPSR uint32
}

// New creates an ARM32 engine with the default memory layout mapped.
func New() (*Engine, error) {
	mu, err := uc.NewUnicorn(uc.ARCH_ARM, uc.MODE_ARM)
	if err != nil {
		return nil, fmt.Errorf("create unicorn: %w", err)
	}

	e := &Engine{
		mu:          mu,
		trampolines: make(map[uint32]TrampolineFunc),
		threads:     make(map[uint32]*ThreadContext),
	}

	if err := e.mapMemory(); err != nil {
		mu.Close()
		return nil, err
	}
	if err := e.setupCodeHook(); err != nil {
		mu.Close()
		return nil, err
	}

	return e, nil
}

func (e *Engine) mapMemory() error {
	regions := []struct {
		base, size uint64
		name       string
	}{
		{ImageBase, 0x01000000, "image"},
		{StackBase, StackSize, "stack"},
		{HeapBase, HeapSize, "heap"},
		{TrampolineBase, TrampolineSize, "trampoline"},
		{PEBBase, PEBSize, "peb"},
	}
	for _, r := range regions {
		if err := e.mu.MemMap(r.base, r.size); err != nil {
			return fmt.Errorf("map %s (0x%x): %w", r.name, r.base, err)
		}
	}

	sp := uint64(StackBase + StackSize - 0x100)
	if err := e.mu.RegWrite(uc.ARM_REG_SP, sp); err != nil {
		return fmt.Errorf("set SP: %w", err)
	}
	return nil
}

// setupCodeHook installs the single Unicorn code hook that dispatches to
// registered trampolines and user code hooks.
func (e *Engine) setupCodeHook() error {
	_, err := e.mu.HookAdd(uc.HOOK_CODE, func(_ uc.Unicorn, addr uint64, size uint32) {
		if e.stopped {
			e.mu.Stop()
			return
		}

		target := uint32(addr) &^ thumbBit

		e.trampolinesMu.RLock()
		fn, ok := e.trampolines[target]
		e.trampolinesMu.RUnlock()

		if ok {
			result, err := fn(e)
			if err != nil {
				if log.L != nil {
					log.L.Error("trampoline failed", log.Addr(uint64(target)), zap.Error(err))
				}
				e.stopped = true
				e.mu.Stop()
				return
			}
			if err := e.SetReg(RegR0, result); err != nil {
				e.stopped = true
				e.mu.Stop()
				return
			}
		}

		e.codeHooksMu.Lock()
		hooks := append([]CodeHookFunc(nil), e.codeHooks...)
		e.codeHooksMu.Unlock()
		for _, h := range hooks {
			h(e, target, size)
		}
	}, 1, 0)
	return err
}

// AddTrampoline binds fn to addr; execution reaching addr invokes fn and
// writes its result to R0 before the trampoline's own BX LR instruction
// (written by the caller) returns control to the emulated caller.
func (e *Engine) AddTrampoline(addr uint32, fn TrampolineFunc) {
	e.trampolinesMu.Lock()
	defer e.trampolinesMu.Unlock()
	e.trampolines[addr] = fn
}

// HookCode registers fn to run before every instruction executes.
func (e *Engine) HookCode(fn CodeHookFunc) {
	e.codeHooksMu.Lock()
	defer e.codeHooksMu.Unlock()
	e.codeHooks = append(e.codeHooks, fn)
}

// Close releases the underlying Unicorn context.
func (e *Engine) Close() error {
	return e.mu.Close()
}

// --- memory access (mem.ByteReadWriter) ---

// ReadBytes implements mem.ByteReader.
func (e *Engine) ReadBytes(addr uint32, buf []byte) error {
	data, err := e.mu.MemRead(uint64(addr), uint64(len(buf)))
	if err != nil {
		return wieerr.InvalidMemoryAccess(uint64(addr))
	}
	copy(buf, data)
	return nil
}

// WriteBytes implements mem.ByteWriter.
func (e *Engine) WriteBytes(addr uint32, data []byte) error {
	if err := e.mu.MemWrite(uint64(addr), data); err != nil {
		return wieerr.InvalidMemoryAccess(uint64(addr))
	}
	return nil
}

// MapRegion maps additional memory with RWX permissions.
func (e *Engine) MapRegion(addr, size uint32) error {
	return e.mu.MemMap(uint64(addr), uint64(size))
}

// --- register access ---

// ARM32 general-purpose and special register indices (re-exported).
const (
	RegR0  = uc.ARM_REG_R0
	RegR1  = uc.ARM_REG_R1
	RegR2  = uc.ARM_REG_R2
	RegR3  = uc.ARM_REG_R3
	RegR4  = uc.ARM_REG_R4
	RegSP  = uc.ARM_REG_SP
	RegLR  = uc.ARM_REG_LR
	RegPC  = uc.ARM_REG_PC
	RegCPSR = uc.ARM_REG_CPSR
)

// Reg reads a general-purpose register by Unicorn constant.
func (e *Engine) Reg(reg int) uint32 {
	v, _ := e.mu.RegRead(reg)
	return uint32(v)
}

// SetReg writes a general-purpose register by Unicorn constant.
func (e *Engine) SetReg(reg int, val uint32) error {
	return e.mu.RegWrite(reg, uint64(val))
}

// R reads general-purpose register Rn (0-15).
func (e *Engine) R(n int) uint32 {
	if n < 0 || n > 15 {
		return 0
	}
	return e.Reg(uc.ARM_REG_R0 + n)
}

// SetR writes general-purpose register Rn (0-15).
func (e *Engine) SetR(n int, val uint32) error {
	if n < 0 || n > 15 {
		return fmt.Errorf("arm: invalid register R%d", n)
	}
	return e.SetReg(uc.ARM_REG_R0+n, val)
}

// PC returns the program counter with the Thumb bit cleared.
func (e *Engine) PC() uint32 { return e.Reg(RegPC) &^ thumbBit }

// SetPC sets the program counter, encoding Thumb mode via the low bit
// (spec §4.3: "selected by the low bit of the written PC").
func (e *Engine) SetPC(addr uint32, thumb bool) error {
	if thumb {
		addr |= thumbBit
	}
	return e.SetReg(RegPC, addr)
}

// SP returns the stack pointer.
func (e *Engine) SP() uint32 { return e.Reg(RegSP) }

// SetSP sets the stack pointer.
func (e *Engine) SetSP(val uint32) error { return e.SetReg(RegSP, val) }

// LR returns the link register.
func (e *Engine) LR() uint32 { return e.Reg(RegLR) }

// SetLR sets the link register.
func (e *Engine) SetLR(val uint32) error { return e.SetReg(RegLR, val) }

// snapshot captures all 16 registers plus CPSR.
func (e *Engine) snapshot() ThreadContext {
	var ctx ThreadContext
	for i := 0; i < 16; i++ {
		ctx.Regs[i] = e.Reg(uc.ARM_REG_R0 + i)
	}
	ctx.CPSR = e.Reg(RegCPSR)
	return ctx
}

func (e *Engine) restore(ctx ThreadContext) error {
	for i := 0; i < 16; i++ {
		if err := e.SetReg(uc.ARM_REG_R0+i, ctx.Regs[i]); err != nil {
			return err
		}
	}
	return e.SetReg(RegCPSR, ctx.CPSR)
}

// --- run loop ---

// Run executes instructions starting at the current PC until PC equals
// endAddress (spec §4.3 "run(end_address, hook_range)"; hook_range is
// realized by trampoline/address hooks registered via HookCode).
func (e *Engine) Run(endAddress uint32) error {
	e.stopped = false
	start := uint64(e.Reg(RegPC))
	// PC reads back without the Thumb bit; carry the CPSR T bit (bit 5)
	// into the start address so Unicorn resumes in the same mode.
	if e.Reg(RegCPSR)&0x20 != 0 {
		start |= thumbBit
	}
	err := e.mu.Start(start, uint64(endAddress))
	if err != nil {
		return fmt.Errorf("arm: run: %w", err)
	}
	return nil
}

// Stop halts the current Run call.
func (e *Engine) Stop() {
	e.stopped = true
	e.mu.Stop()
}

// --- thread table ---
//
// A "thread" here is not an OS thread: it is a register-file slot keyed
// by an id minted per top-level spawn (spec §4.3 "Thread model"), used
// by the JVM bridge to key per-thread JVM attachment across a host
// future that suspends mid reentrant-call.

// NewThread mints a thread id and snapshots the current register file
// into it.
func (e *Engine) NewThread() uint32 {
	e.threadsMu.Lock()
	defer e.threadsMu.Unlock()

	e.nextThread++
	id := e.nextThread
	ctx := e.snapshot()
	ctx.ID = id
	e.threads[id] = &ctx
	return id
}

// SaveThread overwrites the stored register file for id with the
// engine's current registers.
func (e *Engine) SaveThread(id uint32) {
	e.threadsMu.Lock()
	defer e.threadsMu.Unlock()

	ctx := e.snapshot()
	ctx.ID = id
	e.threads[id] = &ctx
}

// RestoreThread writes id's stored register file back into the engine,
// resuming a previously-suspended reentrant call.
func (e *Engine) RestoreThread(id uint32) error {
	e.threadsMu.Lock()
	ctx, ok := e.threads[id]
	e.threadsMu.Unlock()
	if !ok {
		return fmt.Errorf("arm: unknown thread id %d", id)
	}
	return e.restore(*ctx)
}

// DropThread removes id's saved register file once the top-level call
// it belongs to has completed.
func (e *Engine) DropThread(id uint32) {
	e.threadsMu.Lock()
	defer e.threadsMu.Unlock()
	delete(e.threads, id)
}

func roundUp4(v uint32) uint32 { return (v + 3) &^ 3 }

func le32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}
