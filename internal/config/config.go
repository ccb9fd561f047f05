package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"blotch/app"
	"blotch/hal"
	"blotch/sparkos/tasks/watchface"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config path is given.
const DefaultPath = "blotch.yaml"

type Config struct {
	Display  DisplayConfig  `yaml:"display"`
	Flash    FlashConfig    `yaml:"flash"`
	Clock    ClockConfig    `yaml:"clock"`
	Face     FaceConfig     `yaml:"face"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type DisplayConfig struct {
	Width         int `yaml:"width"`
	Height        int `yaml:"height"`
	OverlayHeight int `yaml:"overlay_height"`
}

type FlashConfig struct {
	// Path is the flash image; "none" disables persistence and ":memory:"
	// keeps it for the session only.
	Path   string `yaml:"path"`
	Offset uint32 `yaml:"offset"`
}

type ClockConfig struct {
	Use24h bool    `yaml:"use_24h"`
	Speed  float64 `yaml:"speed"`
	// Pad is "space", "zero" or "none".
	Pad string `yaml:"pad"`
}

type FaceConfig struct {
	SplitDate bool `yaml:"split_date"`
}

// DefaultsConfig overrides the factory settings. Colors are hex strings
// ("#RRGGBB" or "0xRRGGBB"); empty keeps the built-in value.
type DefaultsConfig struct {
	Background string `yaml:"background"`
	Primary    string `yaml:"primary"`
	Secondary  string `yaml:"secondary"`
	Highlight  string `yaml:"highlight"`
	TimeFont   string `yaml:"time_font"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{Width: 180, Height: 180, OverlayHeight: 51},
		Clock:   ClockConfig{Speed: 1, Pad: "space"},
	}
}

// Load reads path over the defaults. An empty path tries DefaultPath and
// tolerates its absence; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and the defaults overrides.
func (c *Config) Validate() error {
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return fmt.Errorf("display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Clock.Speed < 0 {
		return fmt.Errorf("clock speed %v", c.Clock.Speed)
	}
	if _, err := c.pad(); err != nil {
		return err
	}
	_, err := c.settingsDefaults()
	return err
}

// Host returns the emulated watch description.
func (c *Config) Host() hal.HostConfig {
	return hal.HostConfig{
		Width:         c.Display.Width,
		Height:        c.Display.Height,
		FlashPath:     c.Flash.Path,
		Use24Hour:     c.Clock.Use24h,
		ClockSpeed:    c.Clock.Speed,
		OverlayHeight: c.Display.OverlayHeight,
	}
}

// App returns the system configuration.
func (c *Config) App() (app.Config, error) {
	out := app.DefaultConfig()
	out.Persist.Offset = c.Flash.Offset

	pad, err := c.pad()
	if err != nil {
		return app.Config{}, err
	}
	out.Watchface.Pad = pad
	out.Watchface.SplitDate = c.Face.SplitDate

	defaults, err := c.settingsDefaults()
	if err != nil {
		return app.Config{}, err
	}
	out.Watchface.Store.Defaults = &defaults
	return out, nil
}

// SettingsDefaults returns the factory settings with the overrides applied.
func (c *Config) SettingsDefaults() (watchface.DisplaySettings, error) {
	return c.settingsDefaults()
}

func (c *Config) pad() (byte, error) {
	switch strings.ToLower(c.Clock.Pad) {
	case "", "space":
		return ' ', nil
	case "zero":
		return '0', nil
	case "none":
		return 0, nil
	default:
		return 0, fmt.Errorf("clock pad %q (want space, zero or none)", c.Clock.Pad)
	}
}

func (c *Config) settingsDefaults() (watchface.DisplaySettings, error) {
	s := watchface.DefaultSettings()
	colors := []struct {
		name string
		val  string
		dst  *color.RGBA
	}{
		{"background", c.Defaults.Background, &s.Background},
		{"primary", c.Defaults.Primary, &s.Primary},
		{"secondary", c.Defaults.Secondary, &s.Secondary},
		{"highlight", c.Defaults.Highlight, &s.Highlight},
	}
	for _, col := range colors {
		if col.val == "" {
			continue
		}
		v, err := ParseHex(col.val)
		if err != nil {
			return s, fmt.Errorf("defaults.%s: %w", col.name, err)
		}
		*col.dst = watchface.ColorFromHex(v)
	}
	if c.Defaults.TimeFont != "" {
		f, err := ParseFont(c.Defaults.TimeFont)
		if err != nil {
			return s, fmt.Errorf("defaults.time_font: %w", err)
		}
		s.TimeFont = f
	}
	return s, nil
}

// ParseHex parses "#RRGGBB", "0xRRGGBB" or "RRGGBB".
func ParseHex(s string) (int32, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(t, "#")
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	if len(t) != 6 {
		return 0, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(t, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return int32(v), nil
}

// ParseFont accepts a font name (default, alt1, alt2) or its index.
func ParseFont(s string) (watchface.FontChoice, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for f := watchface.FontDefault; f <= watchface.FontAlt2; f++ {
		if t == f.String() || t == strconv.Itoa(int(f)) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("font %q (want default, alt1 or alt2)", s)
}

// ParseOption parses value for the named settings option: a font for
// timeFontChoice, a hex color otherwise.
func ParseOption(name, value string) (int32, error) {
	if name == watchface.OptTimeFontChoice {
		f, err := ParseFont(value)
		return int32(f), err
	}
	if _, ok := watchface.DefaultOptionKeys()[name]; !ok {
		return 0, fmt.Errorf("unknown option %q", name)
	}
	return ParseHex(value)
}
