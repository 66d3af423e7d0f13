package ktf

import "testing"

func TestVtableRegistryAssignsStableIndices(t *testing.T) {
	r := NewVtableRegistry()

	a := r.IndexFor(0x1000)
	b := r.IndexFor(0x2000)
	aAgain := r.IndexFor(0x1000)

	if a != 0 {
		t.Fatalf("first index = %d, want 0", a)
	}
	if b != 1 {
		t.Fatalf("second index = %d, want 1", b)
	}
	if aAgain != a {
		t.Fatalf("re-registering 0x1000 gave %d, want %d", aAgain, a)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
}
