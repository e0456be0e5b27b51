package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Identifiers.NextPage) != 2 || cfg.Identifiers.NextPage[1] != "Go to the next page." {
		t.Errorf("next_page defaults = %v", cfg.Identifiers.NextPage)
	}
	if cfg.Capture.SettleDelay != 5*time.Second {
		t.Errorf("settle_delay = %s, want 5s", cfg.Capture.SettleDelay)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewcap.yaml")
	data := `
browser:
  name: firefox
  profile_dir: /tmp/ff
identifiers:
  next_page: ["Página siguiente"]
capture:
  settle_delay: 1500ms
  surface: scan
  crop:
    enabled: true
output:
  keep_images: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Browser.Name != "firefox" || cfg.Browser.ProfileDir != "/tmp/ff" {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if len(cfg.Identifiers.NextPage) != 1 || cfg.Identifiers.NextPage[0] != "Página siguiente" {
		t.Errorf("next_page = %v, want the file's list only", cfg.Identifiers.NextPage)
	}
	if len(cfg.Identifiers.TotalPages) != 1 {
		t.Errorf("total_pages default lost: %v", cfg.Identifiers.TotalPages)
	}
	if cfg.Capture.SettleDelay != 1500*time.Millisecond {
		t.Errorf("settle_delay = %s", cfg.Capture.SettleDelay)
	}
	if !cfg.Capture.HideToolbar {
		t.Error("hide_toolbar default lost")
	}
	if !cfg.Capture.Crop.Enabled || cfg.Capture.Crop.Tolerance != 8 {
		t.Errorf("crop = %+v", cfg.Capture.Crop)
	}
	if !cfg.Output.KeepImages {
		t.Error("keep_images not read")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.Name != "chrome" {
		t.Errorf("browser = %q", cfg.Browser.Name)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("capture: [unclosed"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"browser":      func(c *Config) { c.Browser.Name = "safari" },
		"profile name": func(c *Config) { c.Browser.ProfileName = "Default" },
		"next page":    func(c *Config) { c.Identifiers.NextPage = nil },
		"surface":      func(c *Config) { c.Capture.Surface = "all" },
		"delay":        func(c *Config) { c.Capture.SettleDelay = -time.Second },
		"tolerance":    func(c *Config) { c.Capture.Crop.Tolerance = 300 },
		"log format":   func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VIEWCAP_BROWSER", "firefox")
	t.Setenv("VIEWCAP_SETTLE_DELAY", "250ms")
	t.Setenv("VIEWCAP_KEEP_IMAGES", "true")
	t.Setenv("VIEWCAP_JOURNAL", "/tmp/runs.db")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Browser.Name != "firefox" || cfg.Capture.SettleDelay != 250*time.Millisecond ||
		!cfg.Output.KeepImages || cfg.Journal.Path != "/tmp/runs.db" {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("VIEWCAP_SETTLE_DELAY", "soon")
	if err := Default().ApplyEnv(); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("VIEWCAP_PROFILE_DIR=/home/op/.ff\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VIEWCAP_PROFILE_DIR", "")
	os.Unsetenv("VIEWCAP_PROFILE_DIR")

	if err := LoadDotEnv(path, filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.Browser.ProfileDir != "/home/op/.ff" {
		t.Errorf("profile_dir = %q", cfg.Browser.ProfileDir)
	}
}

func TestMarshal_LoadsBack(t *testing.T) {
	// WHAT: Marshal output is a valid config file.
	// WHY: viewcap config output is meant to be saved and edited.
	cfg := Default()
	cfg.Capture.SettleDelay = 1500 * time.Millisecond
	cfg.Identifiers.NextPage = []string{"Next"}
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "dump.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load dump: %v", err)
	}
	if got.Capture.SettleDelay != cfg.Capture.SettleDelay || len(got.Identifiers.NextPage) != 1 {
		t.Errorf("round trip = %+v / %v", got.Capture, got.Identifiers.NextPage)
	}
}
