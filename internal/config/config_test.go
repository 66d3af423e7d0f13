package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wie.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\napp_properties:\n  foo: bar\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.AppProperties["foo"] != "bar" {
		t.Fatalf("AppProperties[foo] = %q, want bar", cfg.AppProperties["foo"])
	}
	if cfg.Window.Width != 240 || cfg.Window.Height != 320 {
		t.Fatalf("Window = %+v, want defaults 240x320", cfg.Window)
	}
}

func TestLoadOptionalMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.Window.Width != Default().Window.Width {
		t.Fatalf("LoadOptional with missing file = %+v, want default", cfg)
	}
}

func TestPropertyKey(t *testing.T) {
	if got := PropertyKey("MIDlet-Version"); got != "wie.appProperty.MIDlet-Version" {
		t.Fatalf("PropertyKey = %q", got)
	}
}
