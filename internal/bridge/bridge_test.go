package bridge

import (
	"testing"

	"github.com/zboralski/wie/internal/arm"
	"github.com/zboralski/wie/internal/mem"
)

// TestAddTrampolineRoundTrip replicates the ARM call round-trip scenario:
// register a host function add(a, b) = a + b and invoke it through a
// reentrant call, expecting run_function(entry, [3, 4]) == 7.
func TestAddTrampolineRoundTrip(t *testing.T) {
	e, err := arm.New()
	if err != nil {
		t.Fatalf("arm.New: %v", err)
	}
	defer e.Close()

	b := New(e)
	addr, err := b.RegisterFunction("add", func(c *Call) (Result, error) {
		a, err := c.U32()
		if err != nil {
			return nil, err
		}
		bb, err := c.U32()
		if err != nil {
			return nil, err
		}
		return U32Result(a + bb), nil
	})
	if err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}

	result, _, err := e.RunFunction(addr, []uint32{3, 4})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if result != 7 {
		t.Fatalf("RunFunction result = %d, want 7", result)
	}
}

func TestStringParamDecoding(t *testing.T) {
	e, err := arm.New()
	if err != nil {
		t.Fatalf("arm.New: %v", err)
	}
	defer e.Close()

	const strAddr uint32 = arm.HeapBase
	if err := mem.WriteCString(e, strAddr, "hello"); err != nil {
		t.Fatalf("write string: %v", err)
	}

	b := New(e)
	var got string
	addr, err := b.RegisterFunction("strlen_probe", func(c *Call) (Result, error) {
		s, err := c.String()
		if err != nil {
			return nil, err
		}
		got = s
		return U32Result(uint32(len(s))), nil
	})
	if err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}

	result, _, err := e.RunFunction(addr, []uint32{strAddr})
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if got != "hello" {
		t.Fatalf("decoded string = %q, want %q", got, "hello")
	}
	if result != 5 {
		t.Fatalf("result = %d, want 5", result)
	}
}

func TestU64ResultSplitsAcrossR0R1(t *testing.T) {
	e, err := arm.New()
	if err != nil {
		t.Fatalf("arm.New: %v", err)
	}
	defer e.Close()

	b := New(e)
	addr, err := b.RegisterFunction("wide", func(c *Call) (Result, error) {
		return U64Result(0x1122334455667788), nil
	})
	if err != nil {
		t.Fatalf("RegisterFunction: %v", err)
	}

	lo, hi, err := e.RunFunction(addr, nil)
	if err != nil {
		t.Fatalf("RunFunction: %v", err)
	}
	if lo != 0x55667788 {
		t.Fatalf("lo = 0x%x, want 0x55667788", lo)
	}
	if hi != 0x11223344 {
		t.Fatalf("hi = 0x%x, want 0x11223344", hi)
	}
}
