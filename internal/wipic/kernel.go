package wipic

import (
	"fmt"
	"time"

	"github.com/zboralski/wie/internal/bridge"
	"github.com/zboralski/wie/internal/log"
	"github.com/zboralski/wie/internal/mem"
)

// timerRecordWords is the vendor ABI's packed WIPICTimer struct: three
// unknown u32s, a u64 time, a param, an unknown u32, then the callback
// pointer (wie_impl_wipi_c/src/impl/kernel.rs WIPICTimer, 32 bytes/8
// words total).
const timerRecordWords = 8
const timerCallbackOffset = 28 // byte offset of fn_callback within WIPICTimer

func kernelTable(ctx KernelContext) Table {
	funcs := make([]bridge.HostFunc, 34)
	for i := range funcs {
		funcs[i] = genStub("kernel", i)
	}

	funcs[20] = kernelAlloc(ctx)
	funcs[21] = kernelCalloc(ctx)
	funcs[22] = kernelFree(ctx)
	funcs[25] = kernelDefTimer(ctx)
	funcs[26] = kernelSetTimer(ctx)
	funcs[27] = kernelUnsetTimer(ctx)
	funcs[28] = kernelCurrentTime(ctx)
	funcs[31] = kernelGetResourceID(ctx)
	funcs[32] = kernelGetResource(ctx)

	return Table{Name: "kernel", Funcs: funcs}
}

func kernelAlloc(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		size, err := c.U32()
		if err != nil {
			return nil, err
		}
		ptr, err := ctx.Alloc(size)
		if err != nil {
			return nil, err
		}
		if log.L != nil {
			log.L.Debug(fmt.Sprintf("MC_knlAlloc(0x%x)", size))
		}
		return bridge.U32Result(ptr), nil
	}
}

func kernelCalloc(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		size, err := c.U32()
		if err != nil {
			return nil, err
		}
		ptr, err := ctx.Alloc(size)
		if err != nil {
			return nil, err
		}
		zero := make([]byte, size)
		if err := ctx.WriteBytes(ptr, zero); err != nil {
			return nil, err
		}
		return bridge.U32Result(ptr), nil
	}
}

func kernelFree(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		ptr, err := c.U32()
		if err != nil {
			return nil, err
		}
		if err := ctx.Free(ptr); err != nil {
			return nil, err
		}
		return bridge.U32Result(ptr), nil
	}
}

func kernelDefTimer(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		ptrTimer, err := c.U32()
		if err != nil {
			return nil, err
		}
		fnCallback, err := c.U32()
		if err != nil {
			return nil, err
		}
		if log.L != nil {
			log.L.Debug(fmt.Sprintf("MC_knlDefTimer(0x%x, 0x%x)", ptrTimer, fnCallback))
		}
		words := make([]uint32, timerRecordWords)
		words[7] = fnCallback
		if err := writeTimerWords(ctx, ptrTimer, words); err != nil {
			return nil, err
		}
		return bridge.Unit{}, nil
	}
}

func kernelSetTimer(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		ptrTimer, err := c.U32()
		if err != nil {
			return nil, err
		}
		timeoutLow, err := c.U32()
		if err != nil {
			return nil, err
		}
		timeoutHigh, err := c.U32()
		if err != nil {
			return nil, err
		}
		param, err := c.U32()
		if err != nil {
			return nil, err
		}

		fnCallback, err := mem.ReadU32(ctx, ptrTimer+timerCallbackOffset)
		if err != nil {
			return nil, err
		}
		timeoutMs := (uint64(timeoutHigh) << 32) | uint64(timeoutLow)
		due := ctx.Now().Add(time.Duration(timeoutMs) * time.Millisecond)

		started := false
		ctx.Spawn(func() (bool, error) {
			if !started {
				started = true
				ctx.Sleep(due)
				return false, nil
			}
			if _, _, err := ctx.CallARM(fnCallback, []uint32{param}); err != nil {
				return true, err
			}
			return true, nil
		})

		return bridge.Unit{}, nil
	}
}

func kernelUnsetTimer(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		ptrTimer, err := c.U32()
		if err != nil {
			return nil, err
		}
		if log.L != nil {
			log.L.Warn(fmt.Sprintf("stub MC_knlUnsetTimer(0x%x)", ptrTimer))
		}
		return bridge.Unit{}, nil
	}
}

func kernelCurrentTime(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		return bridge.U32Result(uint32(ctx.Now().UnixMilli())), nil
	}
}

func kernelGetResourceID(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		name, err := c.String()
		if err != nil {
			return nil, err
		}
		ptrSize, err := c.U32()
		if err != nil {
			return nil, err
		}
		id, ok := ctx.ResourceID(name)
		if !ok {
			return bridge.U32Result(uint32(int32(-1))), nil
		}
		size, _ := ctx.ResourceSize(id)
		if err := mem.WriteU32(ctx, ptrSize, size); err != nil {
			return nil, err
		}
		return bridge.U32Result(uint32(id)), nil
	}
}

func kernelGetResource(ctx KernelContext) bridge.HostFunc {
	return func(c *bridge.Call) (bridge.Result, error) {
		id, err := c.U32()
		if err != nil {
			return nil, err
		}
		bufPtr, err := c.U32()
		if err != nil {
			return nil, err
		}
		bufSize, err := c.U32()
		if err != nil {
			return nil, err
		}

		data, ok := ctx.ResourceData(int32(id))
		if !ok || uint32(len(data)) > bufSize {
			return bridge.U32Result(uint32(int32(-1))), nil
		}
		if err := ctx.WriteBytes(bufPtr, data); err != nil {
			return nil, err
		}
		return bridge.U32Result(0), nil
	}
}

func writeTimerWords(w mem.ByteWriter, addr uint32, words []uint32) error {
	for i, v := range words {
		if err := mem.WriteU32(w, addr+uint32(i)*4, v); err != nil {
			return err
		}
	}
	return nil
}
