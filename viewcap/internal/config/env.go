package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env files into the process environment without
// overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from VIEWCAP_* variables.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	str("VIEWCAP_BROWSER", &c.Browser.Name)
	str("VIEWCAP_PROFILE_DIR", &c.Browser.ProfileDir)
	str("VIEWCAP_PROFILE_NAME", &c.Browser.ProfileName)
	str("VIEWCAP_REMOTE", &c.Browser.Remote)
	str("VIEWCAP_BROWSER_BIN", &c.Browser.Bin)
	str("VIEWCAP_XVFB_DISPLAY", &c.Browser.XvfbDisplay)
	str("VIEWCAP_JOURNAL", &c.Journal.Path)
	str("VIEWCAP_LOG_FILE", &c.Log.File)

	if v := os.Getenv("VIEWCAP_SETTLE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: VIEWCAP_SETTLE_DELAY: %w", err)
		}
		c.Capture.SettleDelay = d
	}
	if v := os.Getenv("VIEWCAP_KEEP_IMAGES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: VIEWCAP_KEEP_IMAGES: %w", err)
		}
		c.Output.KeepImages = b
	}
	return nil
}
