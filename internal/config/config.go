// Package config loads the optional YAML configuration file that
// overrides the emulator's defaults: log level, app property overrides,
// and host window sizing. None of its fields are required — every value
// has a sensible zero-value default so the CLI runs with no config file
// at all (spec §6 "CLI").
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of a wie config file, typically named
// wie.yaml and passed via the CLI's --config flag.
type Config struct {
	// LogLevel is parsed from the file ("debug", "info", "warn", "error")
	// but not applied; the log level comes from WIE_LOG and --debug.
	LogLevel string `yaml:"log_level"`

	// AppProperties seeds wie.appProperty.<key> overrides applied on top
	// of whatever properties the MIDlet manifest declares (spec §6
	// "Environment").
	AppProperties map[string]string `yaml:"app_properties"`

	// Window controls the terminal host window's rendered size.
	Window WindowConfig `yaml:"window"`

	// KeyRemap maps a host key name (as internal/hostwindow reports it)
	// to the feature-phone key name event.ParseKeyCode understands,
	// letting a keyboard layout override the built-in mapping.
	KeyRemap map[string]string `yaml:"key_remap"`

	// DebugRPCAddr, when non-empty, is the listen address for the
	// introspection service in internal/debugrpc (spec §1.6).
	DebugRPCAddr string `yaml:"debug_rpc_addr"`
}

// WindowConfig sizes the host window (internal/hostwindow).
type WindowConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns the zero-config baseline: no property overrides, and a
// window sized for the hard-coded vendor default screen (240x320; vendor
// archives never declare their own screen size).
func Default() Config {
	return Config{
		Window: WindowConfig{Width: 240, Height: 320},
	}
}

// Load reads and parses a YAML config file at path, filling in defaults
// for anything the file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Window.Width <= 0 {
		cfg.Window.Width = Default().Window.Width
	}
	if cfg.Window.Height <= 0 {
		cfg.Window.Height = Default().Window.Height
	}
	return cfg, nil
}

// LoadOptional behaves like Load, but returns the default config (no
// error) when path is empty or the file does not exist — a config file
// is an optional override, not a requirement to run.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// PropertyKey builds the wie.appProperty.<key> system property name an
// override in AppProperties corresponds to (spec §6 "Environment").
func PropertyKey(key string) string {
	return "wie.appProperty." + key
}
