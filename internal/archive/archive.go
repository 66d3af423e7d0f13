// Package archive detects and unpacks the four distribution formats a
// feature-phone app ships in (spec §6 "Archive formats"): KTF and LGT
// each wrap a vendor ARM binary and a manifest in a zip; SKT ships a
// manifest alongside a plain MIDP jar; and a bare MIDP jar with no
// vendor wrapper at all is accepted directly, detected by sniffing its
// own contents rather than a top-level manifest file.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zboralski/wie/internal/system"
)

// Format identifies which vendor platform an archive targets.
type Format int

const (
	FormatUnknown Format = iota
	FormatKTF
	FormatLGT
	FormatSKT
	FormatPlainJAR
)

func (f Format) String() string {
	switch f {
	case FormatKTF:
		return "ktf"
	case FormatLGT:
		return "lgt"
	case FormatSKT:
		return "skt"
	case FormatPlainJAR:
		return "jar"
	default:
		return "unknown"
	}
}

// ktfBinarySniff is the first 8 bytes of a KTF client.bin vendor
// binary, used to recognize a KTF payload that arrived as a bare jar
// with no __adf__ manifest alongside it.
var ktfBinarySniff = []byte{0x20, 0, 0, 0, 0, 0, 0, 0}

// App is a loaded archive reduced to what the runtime needs to start
// an app: its identity, the class bytes to run against, and whatever
// vendor binary must be loaded into the ARM address space first.
type App struct {
	Format    Format
	ID        string
	MainClass string
	JarData   []byte

	// VendorBinary is the KTF/LGT native payload, nil for SKT and
	// plain-jar archives which run pure bytecode.
	VendorBinary []byte
	// BSSSize is the KTF client.bin.<N> filename-encoded BSS
	// allocation size, required before the binary is mapped.
	BSSSize uint32

	// Files is every other file the archive carried (icons,
	// resources), mounted into the virtual filesystem as-is. The KTF,
	// LGT and SKT loaders leave out the vendor manifest, the vendor
	// binary and the jar; a plain jar keeps every entry.
	Files map[string][]byte
}

// Detect unzips data and identifies which format it is, trying the
// manifest-bearing formats first (an __adf__, app_info, or *.msd file
// at the top level) and falling back to content-sniffing a bare jar
// when none of those markers are present.
func Detect(data []byte) (Format, map[string][]byte, error) {
	files, err := unzip(data)
	if err != nil {
		return FormatUnknown, nil, fmt.Errorf("archive: unzip: %w", err)
	}

	if _, ok := files["__adf__"]; ok {
		return FormatKTF, files, nil
	}
	if _, ok := files["app_info"]; ok {
		return FormatLGT, files, nil
	}
	if findMsd(files) != "" {
		return FormatSKT, files, nil
	}

	// No vendor manifest: the zip itself may just be a MIDP jar, or a
	// KTF/LGT payload delivered without its wrapper. Sniff contents.
	if hasKTFBinary(files) {
		return FormatKTF, files, nil
	}
	if _, ok := files["binary.mod"]; ok {
		return FormatLGT, files, nil
	}
	return FormatPlainJAR, files, nil
}

// Load detects the format of data and fully unpacks it into an App.
func Load(data []byte) (*App, error) {
	format, files, err := Detect(data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatKTF:
		return loadKTF(files)
	case FormatLGT:
		return loadLGT(files)
	case FormatSKT:
		return loadSKT(files)
	case FormatPlainJAR:
		return loadPlainJAR(data, files)
	default:
		return nil, fmt.Errorf("archive: unrecognized format")
	}
}

// Mount copies every remaining file in an App into a virtual
// filesystem, with the jar and vendor binary already consumed by the
// loader excluded.
func Mount(fs *system.Filesystem, app *App) {
	for name, data := range app.Files {
		fs.Put(name, data)
	}
}

func unzip(data []byte) (map[string][]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	files := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		files[f.Name] = b
	}
	return files, nil
}

func findMsd(files map[string][]byte) string {
	for name := range files {
		if strings.HasSuffix(name, ".msd") {
			return name
		}
	}
	return ""
}

func hasKTFBinary(files map[string][]byte) bool {
	for name, data := range files {
		if strings.HasPrefix(name, "client.bin") {
			return true
		}
		if len(data) >= len(ktfBinarySniff) && bytes.Equal(data[:len(ktfBinarySniff)], ktfBinarySniff) {
			return true
		}
	}
	return false
}

// parseBSSSize extracts the decimal BSS size suffix from a KTF
// client.bin.<N> filename.
func parseBSSSize(filename string) (uint32, error) {
	idx := strings.Index(filename, "client.bin")
	if idx < 0 {
		return 0, fmt.Errorf("archive: %q is not a client.bin filename", filename)
	}
	suffix := strings.TrimPrefix(filename[idx+len("client.bin"):], ".")
	if suffix == "" {
		return 0, fmt.Errorf("archive: %q has no bss size suffix", filename)
	}
	n, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("archive: parse bss size from %q: %w", filename, err)
	}
	return uint32(n), nil
}
