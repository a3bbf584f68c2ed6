package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DisplayConfig describes the screen the clock draws on.
type DisplayConfig struct {
	// Driver selects the output sink:
	//   - "fbdev" (default): Linux framebuffer, e.g. a PiTFT on /dev/fb1
	//   - "png": write every frame to PreviewPath, no hardware needed
	Driver string `yaml:"driver" json:"driver"`

	// Device is the framebuffer device path for the fbdev driver.
	Device string `yaml:"device" json:"device"`

	// Width, Height are the frame size in pixels. Bottom is the y offset
	// where the message strip starts; the clock face fills [0, Bottom).
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
	Bottom int `yaml:"bottom" json:"bottom"`

	// InitTimeout bounds how long opening the display may take. Something
	// else holding the screen can make the open hang forever.
	InitTimeout time.Duration `yaml:"init_timeout" json:"init_timeout"`

	// PreviewPath is where the last frame is written as PNG.
	PreviewPath string `yaml:"preview_path" json:"preview_path"`

	// Background, Foreground are "#rrggbb" colours.
	Background string `yaml:"background" json:"background"`
	Foreground string `yaml:"foreground" json:"foreground"`

	ClockFontSize   float64 `yaml:"clock_font_size" json:"clock_font_size"`
	MessageFontSize float64 `yaml:"message_font_size" json:"message_font_size"`

	// BacklightGPIO is the periph pin name driving the backlight
	// (e.g. "GPIO18" on the PiTFT). Empty disables backlight control.
	BacklightGPIO string `yaml:"backlight_gpio" json:"backlight_gpio"`
}

// BatteryConfig enables the optional I2C battery gauge.
type BatteryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Bus     string `yaml:"bus" json:"bus"`
	Addr    uint16 `yaml:"addr" json:"addr"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API. Empty disables it.
	Listen string `yaml:"listen" json:"listen"`

	// RefreshCron is a cron spec (e.g. "* * * * *") for redrawing the frame.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Display DisplayConfig `yaml:"display" json:"display"`
	Battery BatteryConfig `yaml:"battery" json:"battery"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	DefaultRefreshCron = "* * * * *"
	DefaultDevice      = "/dev/fb1"
	DefaultPreviewPath = "/var/lib/toddlerclock/preview.png"
	DefaultBatteryAddr = 0x57

	defaultDriver      = "fbdev"
	defaultInitTimeout = 2 * time.Second
	defaultWidth       = 320
	defaultHeight      = 240
	defaultBackground  = "#051472"
	defaultForeground  = "#ffffff"
	defaultClockSize   = 90
	defaultMessageSize = 18
)

// DefaultConfig returns an in-memory default configuration for a 320x240
// PiTFT.
func DefaultConfig() *Config {
	c := &Config{
		Listen:   "127.0.0.1:8080",
		LogLevel: "info",
	}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	d := &c.Display
	switch d.Driver {
	case "fbdev", "png":
	default:
		// Unknown value; the framebuffer is what the hardware has.
		d.Driver = defaultDriver
	}
	if d.Device == "" {
		d.Device = DefaultDevice
	}
	if d.Width <= 0 {
		d.Width = defaultWidth
	}
	if d.Height <= 0 {
		d.Height = defaultHeight
	}
	if d.Bottom <= 0 || d.Bottom >= d.Height {
		d.Bottom = d.Height * 5 / 6
	}
	if d.InitTimeout <= 0 {
		d.InitTimeout = defaultInitTimeout
	}
	if d.PreviewPath == "" {
		d.PreviewPath = DefaultPreviewPath
	}
	if d.Background == "" {
		d.Background = defaultBackground
	}
	if d.Foreground == "" {
		d.Foreground = defaultForeground
	}
	if d.ClockFontSize <= 0 {
		d.ClockFontSize = defaultClockSize
	}
	if d.MessageFontSize <= 0 {
		d.MessageFontSize = defaultMessageSize
	}

	if c.Battery.Addr == 0 {
		c.Battery.Addr = DefaultBatteryAddr
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to path atomically (temp file +
// rename) with 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".toddlerclock-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
