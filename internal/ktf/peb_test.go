package ktf

import "testing"

func TestPEBRoundTrip(t *testing.T) {
	const base = 0x7FF00000
	m := newFakeMem(base, 0x1000)

	if err := WriteJavaContextData(m, base, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteJavaContextData: %v", err)
	}
	got, err := JavaContextData(m, base)
	if err != nil {
		t.Fatalf("JavaContextData: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("JavaContextData = %#x, want %#x", got, 0xDEADBEEF)
	}

	if err := SetCurrentJavaExceptionHandler(m, base, 0x00101234); err != nil {
		t.Fatalf("SetCurrentJavaExceptionHandler: %v", err)
	}
	handler, err := CurrentJavaExceptionHandler(m, base)
	if err != nil {
		t.Fatalf("CurrentJavaExceptionHandler: %v", err)
	}
	if handler != 0x00101234 {
		t.Fatalf("CurrentJavaExceptionHandler = %#x, want %#x", handler, 0x00101234)
	}

	ctxAfter, err := JavaContextData(m, base)
	if err != nil {
		t.Fatalf("JavaContextData after handler write: %v", err)
	}
	if ctxAfter != 0xDEADBEEF {
		t.Fatalf("writing the handler slot clobbered the context slot: got %#x", ctxAfter)
	}
}
