package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv pulls a .env file from the working directory into the process
// environment. Missing files are fine; explicit environment always wins over
// .env values.
func LoadDotenv() {
	_ = godotenv.Load()
}

// OverlayEnv applies HARVEST_* environment overrides on top of the loaded
// file. Only a handful of knobs are overridable this way; everything else
// belongs in config.yml.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("HARVEST_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("HARVEST_USER_AGENT"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := os.Getenv("HARVEST_VENDOR_DOMAIN"); v != "" {
		cfg.Discovery.VendorDomain = v
	}
}

// Debug reports whether debug logging was requested via the environment.
// Read here so .env files can switch it on too.
func Debug() bool {
	return os.Getenv("HARVEST_DEBUG") != ""
}
