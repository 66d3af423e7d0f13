package archive

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"
)

// buildARMExec assembles a minimal 32-bit little-endian ARM EXEC ELF
// with a single PT_LOAD segment, enough for LoadELF to exercise its
// segment-flattening logic without a real toolchain.
func buildARMExec(t *testing.T, loadAddr uint32, code []byte, memSize uint32) []byte {
	t.Helper()

	const ehdrSize = 52
	const phdrSize = 32
	dataOff := uint32(ehdrSize + phdrSize)

	var buf bytes.Buffer

	ehdr := make([]byte, ehdrSize)
	copy(ehdr[0:4], "\x7fELF")
	ehdr[4] = 1 // ELFCLASS32
	ehdr[5] = 1 // ELFDATA2LSB
	ehdr[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(ehdr[16:18], uint16(elf.ET_EXEC))
	binary.LittleEndian.PutUint16(ehdr[18:20], uint16(elf.EM_ARM))
	binary.LittleEndian.PutUint32(ehdr[20:24], 1) // e_version
	binary.LittleEndian.PutUint32(ehdr[24:28], loadAddr)
	binary.LittleEndian.PutUint32(ehdr[28:32], ehdrSize) // e_phoff
	binary.LittleEndian.PutUint16(ehdr[40:42], ehdrSize)
	binary.LittleEndian.PutUint16(ehdr[42:44], phdrSize)
	binary.LittleEndian.PutUint16(ehdr[44:46], 1) // e_phnum

	phdr := make([]byte, phdrSize)
	binary.LittleEndian.PutUint32(phdr[0:4], uint32(elf.PT_LOAD))
	binary.LittleEndian.PutUint32(phdr[4:8], dataOff)
	binary.LittleEndian.PutUint32(phdr[8:12], loadAddr)
	binary.LittleEndian.PutUint32(phdr[12:16], loadAddr)
	binary.LittleEndian.PutUint32(phdr[16:20], uint32(len(code)))
	binary.LittleEndian.PutUint32(phdr[20:24], memSize)
	binary.LittleEndian.PutUint32(phdr[24:28], 5) // PF_R|PF_X
	binary.LittleEndian.PutUint32(phdr[28:32], 4)

	buf.Write(ehdr)
	buf.Write(phdr)
	buf.Write(code)

	return buf.Bytes()
}

func TestLoadELFFlattensSegmentsAndZeroFillsBSS(t *testing.T) {
	code := []byte{0x01, 0x02, 0x03, 0x04}
	data := buildARMExec(t, 0x00100000, code, 16)

	img, err := LoadELF(data)
	if err != nil {
		t.Fatalf("LoadELF: %v", err)
	}
	if img.LoadBase != 0x00100000 {
		t.Fatalf("LoadBase = %#x", img.LoadBase)
	}
	if img.EntryPoint != 0x00100000 {
		t.Fatalf("EntryPoint = %#x", img.EntryPoint)
	}
	if len(img.Data) != 16 {
		t.Fatalf("image size = %d, want 16 (bss-extended)", len(img.Data))
	}
	if !bytes.Equal(img.Data[:4], code) {
		t.Fatalf("image prefix = %v, want %v", img.Data[:4], code)
	}
	for _, b := range img.Data[4:] {
		if b != 0 {
			t.Fatalf("expected zero-filled bss, found %#x", b)
		}
	}
}

func TestLoadELFRejectsNonARM(t *testing.T) {
	data := buildARMExec(t, 0x1000, []byte{0, 0, 0, 0}, 4)
	// Corrupt the machine field to something other than EM_ARM.
	binary.LittleEndian.PutUint16(data[18:20], uint16(elf.EM_X86_64))

	if _, err := LoadELF(data); err == nil {
		t.Fatalf("expected error for non-ARM ELF")
	}
}
