package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/zboralski/wie/internal/system"
)

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("Write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestDetectKTF(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"__adf__":         []byte("AID:TESTAPP\nMClass:TestMIDlet\n"),
		"client.bin.8192": {1, 2, 3},
		"TESTAPP.jar":     {4, 5, 6},
	})

	format, _, err := Detect(data)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if format != FormatKTF {
		t.Fatalf("format = %v, want ktf", format)
	}

	app, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if app.ID != "TESTAPP" || app.MainClass != "TestMIDlet" {
		t.Fatalf("app = %+v, want AID TESTAPP, MClass TestMIDlet", app)
	}
	if app.BSSSize != 8192 {
		t.Fatalf("BSSSize = %d, want 8192", app.BSSSize)
	}
	if !bytes.Equal(app.JarData, []byte{4, 5, 6}) {
		t.Fatalf("JarData = %v", app.JarData)
	}
}

func TestDetectLGT(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"app_info":     []byte("AID:OTHERAPP\nMClass:OtherMIDlet\n"),
		"binary.mod":   {9, 9, 9},
		"OTHERAPP.jar": {1},
	})

	format, _, err := Detect(data)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if format != FormatLGT {
		t.Fatalf("format = %v, want lgt", format)
	}

	app, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if app.ID != "OTHERAPP" || app.MainClass != "OtherMIDlet" {
		t.Fatalf("app = %+v", app)
	}
}

func TestDetectSKT(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"game.msd": []byte("MIDlet-1: Game, icon.png, com.example.Game\nDD-ProgName: game\n"),
		"game.jar": {7, 7},
	})

	app, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if app.Format != FormatSKT {
		t.Fatalf("format = %v, want skt", app.Format)
	}
	if app.MainClass != "com.example.Game" {
		t.Fatalf("MainClass = %q", app.MainClass)
	}
	if app.ID != "game" {
		t.Fatalf("ID = %q, want game", app.ID)
	}
}

func TestDetectPlainJAR(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"com/example/Hello.class": {0xca, 0xfe},
		"META-INF/MANIFEST.MF":    []byte("MIDlet-1: Hello, , com.example.Hello\n"),
	})

	app, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if app.Format != FormatPlainJAR {
		t.Fatalf("format = %v, want jar", app.Format)
	}
	if app.MainClass != "com.example.Hello" {
		t.Fatalf("MainClass = %q", app.MainClass)
	}
}

func TestDetectKTFBySniffWhenManifestMissing(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"a.class": append(append([]byte{}, ktfBinarySniff...), 0x10, 0x20),
	})

	format, _, err := Detect(data)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if format != FormatKTF {
		t.Fatalf("format = %v, want ktf (content-sniffed)", format)
	}
}

func TestParseBSSSize(t *testing.T) {
	n, err := parseBSSSize("client.bin.4096")
	if err != nil || n != 4096 {
		t.Fatalf("parseBSSSize = %d, %v, want 4096, nil", n, err)
	}
	if _, err := parseBSSSize("not-a-client-bin"); err == nil {
		t.Fatalf("expected error for non-matching filename")
	}
}

func TestMountCopiesFilesIntoFilesystem(t *testing.T) {
	fs := system.NewFilesystem()
	app := &App{Files: map[string][]byte{"icon.png": {1, 2, 3}}}
	Mount(fs, app)

	data, ok := fs.Get("icon.png")
	if !ok || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Fatalf("Get icon.png = %v, %v", data, ok)
	}
}
