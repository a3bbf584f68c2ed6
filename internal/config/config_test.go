package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.Width != 320 || cfg.Display.Height != 240 || cfg.Display.Bottom != 200 {
		t.Fatalf("unexpected default geometry: %+v", cfg.Display)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("config perms = %o; want 600", st.Mode().Perm())
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Display.InitTimeout != 2*time.Second || again.RefreshCron != DefaultRefreshCron {
		t.Fatalf("reloaded config lost defaults: %+v", again)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
listen: ""
refresh: "@every 30s"
display:
  driver: png
  width: 800
  height: 480
  init_timeout: 5s
battery:
  enabled: true
  addr: 0x75
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "" {
		t.Fatalf("Listen = %q; want empty (API disabled)", cfg.Listen)
	}
	if cfg.RefreshCron != "@every 30s" {
		t.Fatalf("RefreshCron = %q", cfg.RefreshCron)
	}
	d := cfg.Display
	if d.Driver != "png" || d.Width != 800 || d.Height != 480 || d.Bottom != 400 {
		t.Fatalf("display = %+v", d)
	}
	if d.InitTimeout != 5*time.Second {
		t.Fatalf("InitTimeout = %v", d.InitTimeout)
	}
	if d.Background != "#051472" || d.ClockFontSize != 90 {
		t.Fatalf("display defaults not applied: %+v", d)
	}
	if !cfg.Battery.Enabled || cfg.Battery.Addr != 0x75 {
		t.Fatalf("battery = %+v", cfg.Battery)
	}
}

func TestNormalizeUnknownDriver(t *testing.T) {
	c := &Config{Display: DisplayConfig{Driver: "crt"}}
	c.Normalize()
	if c.Display.Driver != "fbdev" {
		t.Fatalf("Driver = %q; want fbdev", c.Display.Driver)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
