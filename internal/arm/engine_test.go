package arm

import "testing"

// Thumb: MOVS r0,#5; MOVS r1,#3; ADDS r2,r0,r1; BX LR
var addTestCode = []byte{
	0x05, 0x20,
	0x03, 0x21,
	0x42, 0x18,
	0x70, 0x47,
}

func TestEngineBasicArithmetic(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if err := e.WriteBytes(ImageBase, addTestCode); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	sentinel := uint32(0xDEADBEEE)
	if err := e.SetLR(sentinel); err != nil {
		t.Fatalf("SetLR: %v", err)
	}
	if err := e.SetPC(ImageBase, true); err != nil {
		t.Fatalf("SetPC: %v", err)
	}

	if err := e.Run(sentinel); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := e.R(2); got != 8 {
		t.Errorf("R2 = %d, want 8", got)
	}
	if got := e.R(0); got != 5 {
		t.Errorf("R0 = %d, want 5", got)
	}
	if got := e.R(1); got != 3 {
		t.Errorf("R1 = %d, want 3", got)
	}
}

func TestReadWriteBytesRoundTrip(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := e.WriteBytes(HeapBase, want); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	got := make([]byte, len(want))
	if err := e.ReadBytes(HeapBase, got); err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = 0x%x, want 0x%x", i, got[i], want[i])
		}
	}
}

func TestReadBytesUnmappedIsInvalidMemoryAccess(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	buf := make([]byte, 4)
	if err := e.ReadBytes(0xCAFEBABE, buf); err == nil {
		t.Fatalf("expected error reading unmapped address")
	}
}

func TestThreadSaveRestore(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if err := e.SetR(0, 0x1234); err != nil {
		t.Fatalf("SetR: %v", err)
	}
	id := e.NewThread()

	if err := e.SetR(0, 0x9999); err != nil {
		t.Fatalf("SetR: %v", err)
	}

	if err := e.RestoreThread(id); err != nil {
		t.Fatalf("RestoreThread: %v", err)
	}
	if got := e.R(0); got != 0x1234 {
		t.Fatalf("R0 after restore = 0x%x, want 0x1234", got)
	}

	e.DropThread(id)
	if err := e.RestoreThread(id); err == nil {
		t.Fatalf("expected error restoring dropped thread")
	}
}
