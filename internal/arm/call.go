package arm

import (
	"fmt"

	"github.com/zboralski/wie/internal/wieerr"
)

// RunFunction performs a reentrant call into emulated code (spec §4.3).
// It saves the current register snapshot, places args into R0..R3 (extra
// args spill onto the emulated stack per AAPCS), sets LR to the sentinel
// RunFunctionLR so the callee's final BX LR halts the run loop at a
// known PC, writes PC (with the Thumb bit taken from address's low bit),
// and runs until the sentinel is reached. It returns R0 and R1 (for
// 64-bit results); the caller's register snapshot is restored before
// returning.
func (e *Engine) RunFunction(address uint32, args []uint32) (uint32, uint32, error) {
	saved := e.snapshot()
	defer e.restore(saved)

	thumb := address&thumbBit != 0
	entry := address &^ thumbBit

	sp := e.SP()
	const maxRegArgs = 4
	if len(args) > maxRegArgs {
		extra := args[maxRegArgs:]
		spill := roundUp4(uint32(len(extra)) * 4)
		sp -= spill
		for i, v := range extra {
			if err := e.WriteBytes(sp+uint32(i)*4, le32(v)); err != nil {
				return 0, 0, err
			}
		}
		if err := e.SetSP(sp); err != nil {
			return 0, 0, err
		}
	}

	for i := 0; i < maxRegArgs && i < len(args); i++ {
		if err := e.SetR(i, args[i]); err != nil {
			return 0, 0, err
		}
	}
	for i := len(args); i < maxRegArgs; i++ {
		if err := e.SetR(i, 0); err != nil {
			return 0, 0, err
		}
	}

	if err := e.SetLR(RunFunctionLR); err != nil {
		return 0, 0, err
	}
	if err := e.SetPC(entry, thumb); err != nil {
		return 0, 0, err
	}

	if err := e.Run(RunFunctionLR); err != nil {
		return 0, 0, fmt.Errorf("arm: run_function at 0x%x: %w", address, err)
	}

	if pc := e.PC(); pc != RunFunctionLR {
		return 0, 0, wieerr.Fatal(fmt.Sprintf("run_function: stopped at 0x%x, expected sentinel 0x%x", pc, RunFunctionLR))
	}

	return e.R(0), e.R(1), nil
}
