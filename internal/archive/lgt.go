package archive

import (
	"bytes"
	"debug/elf"
	"fmt"
)

// loadLGT unpacks an LGT archive: an app_info manifest naming the app
// id and main class, a binary.mod ARMv4T ELF executable, and a jar
// named <AID>.jar (spec §6 "LGT").
func loadLGT(files map[string][]byte) (*App, error) {
	rest := make(map[string][]byte, len(files))
	for name, data := range files {
		rest[name] = data
	}

	app := &App{Format: FormatLGT}

	appInfo, ok := files["app_info"]
	if !ok {
		return nil, fmt.Errorf("archive: lgt archive has no app_info manifest")
	}
	fields, err := manifestFields(appInfo)
	if err != nil {
		return nil, fmt.Errorf("archive: lgt manifest: %w", err)
	}
	app.ID = fields["AID"]
	app.MainClass = fields["MClass"]
	delete(rest, "app_info")

	mod, ok := files["binary.mod"]
	if !ok {
		return nil, fmt.Errorf("archive: lgt archive has no binary.mod payload")
	}
	app.VendorBinary = mod
	delete(rest, "binary.mod")

	jarName := app.ID + ".jar"
	jar, ok := files[jarName]
	if !ok {
		return nil, fmt.Errorf("archive: lgt archive has no %s payload", jarName)
	}
	app.JarData = jar
	delete(rest, jarName)

	app.Files = rest
	return app, nil
}

// ELFImage is a flattened, ready-to-map LGT vendor binary: PT_LOAD
// segments placed at their offsets from the lowest segment address
// within one contiguous byte slice, sized to cover the BSS the linker
// reserved.
type ELFImage struct {
	Data       []byte
	LoadBase   uint32
	EntryPoint uint32
	ImageSize  uint32
}

// LoadELF parses an LGT binary.mod payload. The format is a plain
// ARMv4T EXEC (non-relocatable, absolute addresses already resolved
// by the vendor linker), so loading is a matter of laying out each
// PT_LOAD segment at offset p.Vaddr-LoadBase (LoadBase being the lowest
// segment address) and zero-filling the gap up to MemSize for segments
// whose MemSize exceeds their FileSize (BSS).
func LoadELF(data []byte) (*ELFImage, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("archive: parse binary.mod: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("archive: binary.mod is not a 32-bit ELF")
	}
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("archive: binary.mod is not an ARM ELF")
	}
	if f.Type != elf.ET_EXEC {
		return nil, fmt.Errorf("archive: binary.mod is not an EXEC ELF (got %s)", f.Type)
	}

	var minAddr, maxAddr uint64
	first := true
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if first || p.Vaddr < minAddr {
			minAddr = p.Vaddr
		}
		end := p.Vaddr + p.Memsz
		if first || end > maxAddr {
			maxAddr = end
		}
		first = false
	}
	if first {
		return nil, fmt.Errorf("archive: binary.mod has no PT_LOAD segments")
	}

	img := make([]byte, maxAddr-minAddr)
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		buf := make([]byte, p.Filesz)
		if _, err := p.ReadAt(buf, 0); err != nil {
			return nil, fmt.Errorf("archive: read segment at %#x: %w", p.Vaddr, err)
		}
		copy(img[p.Vaddr-minAddr:], buf)
	}

	return &ELFImage{
		Data:       img,
		LoadBase:   uint32(minAddr),
		EntryPoint: uint32(f.Entry),
		ImageSize:  uint32(len(img)),
	}, nil
}
