// Package config loads bytedoc configuration files.
//
// Configuration lives in a single file, TOML by default with YAML accepted
// for users who prefer it. A missing file yields the defaults; a malformed
// or out of range file is an error, never a silent fallback.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bytedoc/bytedoc/internal/palette"
)

// Errors returned by the loaders.
var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid configuration")

	// ErrUnknownFormat is returned for file extensions the loaders do not
	// recognise.
	ErrUnknownFormat = errors.New("unknown configuration format")
)

// Variant names accepted for the palette setting.
const (
	PaletteLight = "light"
	PaletteDark  = "dark"
)

// Config holds every user-tunable setting.
type Config struct {
	// MaxUndoEntries bounds the undo stack. Zero keeps the engine default.
	MaxUndoEntries int `toml:"max_undo_entries" yaml:"max_undo_entries"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// MetaSuffix is appended to a data file's name to form its metadata
	// side-car path. Empty keeps the default suffix.
	MetaSuffix string `toml:"meta_suffix" yaml:"meta_suffix"`

	// Palette selects the light or dark highlight colour variants.
	Palette string `toml:"palette" yaml:"palette"`

	// ScriptTimeoutSec bounds each Lua script run in seconds. Zero keeps
	// the runner default; negative disables the limit.
	ScriptTimeoutSec int `toml:"script_timeout_sec" yaml:"script_timeout_sec"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		Palette:  PaletteDark,
	}
}

// Validate checks every setting, wrapping ErrInvalid on failure.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: %w", c.LogLevel, ErrInvalid)
	}

	switch c.Palette {
	case PaletteLight, PaletteDark:
	default:
		return fmt.Errorf("palette %q (want %q or %q): %w", c.Palette, PaletteLight, PaletteDark, ErrInvalid)
	}

	if c.MaxUndoEntries < 0 {
		return fmt.Errorf("max_undo_entries %d: %w", c.MaxUndoEntries, ErrInvalid)
	}

	if c.MetaSuffix != "" && !strings.HasPrefix(c.MetaSuffix, ".") {
		return fmt.Errorf("meta_suffix %q must start with a dot: %w", c.MetaSuffix, ErrInvalid)
	}

	return nil
}

// DarkPalette returns true if the dark colour variants are selected.
func (c *Config) DarkPalette() bool {
	return c.Palette != PaletteLight
}

// HighlightColour returns the configured variant of a palette slot.
func (c *Config) HighlightColour(idx int) (colorful.Color, error) {
	col, err := palette.Default().Colour(idx)
	if err != nil {
		return colorful.Color{}, err
	}
	if c.DarkPalette() {
		return col.Dark, nil
	}
	return col.Light, nil
}

// Load reads a configuration file, dispatching on its extension. A missing
// file returns the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		cfg, err = ParseTOML(data)
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	default:
		return Config{}, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseTOML decodes TOML on top of the defaults, so absent keys keep their
// default values.
func ParseTOML(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseYAML decodes YAML on top of the defaults.
func ParseYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
