package main

import (
	"fmt"
	"os"

	"golang.org/x/arch/arm/armasm"

	"github.com/zboralski/wie/internal/arm"
	"github.com/zboralski/wie/internal/ui/colorize"
)

// cpsrThumbBit is the CPSR T bit (bit 5): set while the core is
// executing Thumb instructions, clear in ARM mode.
const cpsrThumbBit = 0x20

// installTrace wires a disassembly trace onto engine's code hook,
// printing one colorized line per executed instruction up to maxInsn.
func installTrace(engine *arm.Engine, maxInsn int) {
	count := 0
	engine.HookCode(func(e *arm.Engine, addr uint32, size uint32) {
		count++
		if maxInsn > 0 && count > maxInsn {
			return
		}

		code := make([]byte, 4)
		if err := e.ReadBytes(addr, code); err != nil {
			return
		}

		mode := armasm.ModeARM
		if e.Reg(arm.RegCPSR)&cpsrThumbBit != 0 {
			mode = armasm.ModeThumb
		}

		dis := "???"
		if inst, err := armasm.Decode(code, mode); err == nil {
			dis = inst.String()
		}

		fmt.Fprintf(os.Stdout, "%s  %s\n", colorize.Address(uint64(addr)), colorize.Instruction(dis))
	})
}
