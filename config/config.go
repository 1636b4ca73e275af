// Package config loads server settings from defaults, an optional .env file
// and ROLLCALL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backend names
const (
	BackendExcel  = "excel"
	BackendGoogle = "google"
)

type Config struct {
	Mode       string // development | production
	Addr       string
	StaticDir  string
	ClientDir  string
	BundlerURL string

	Backend               string
	WorkbookPath          string
	GoogleSpreadsheetID   string
	GoogleCredentialsFile string

	RedisAddr     string // empty disables Redis; an in-memory cache is used instead
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	SeedOnStart bool
}

// Dev reports whether the server runs in development mode
func (c *Config) Dev() bool {
	return c.Mode == "development"
}

// New returns a viper instance with every default set and env binding enabled
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("mode", "production")
	v.SetDefault("addr", ":8080")
	v.SetDefault("static_dir", "dist/public")
	v.SetDefault("client_dir", "client")
	v.SetDefault("bundler_url", "http://localhost:5173")
	v.SetDefault("backend", BackendExcel)
	v.SetDefault("workbook_path", "attendance.xlsx")
	v.SetDefault("google_spreadsheet_id", "")
	v.SetDefault("google_credentials_file", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", 30*time.Second)
	v.SetDefault("seed_on_start", false)

	v.SetEnvPrefix("ROLLCALL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads path into the environment if it exists (ignored if it does not)
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config.os.Stat(%s): %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config.godotenv(%s): %w", path, err)
	}
	log.Printf("Loaded environment from %s", path)
	return nil
}

// Load reads the settings out of v and validates them
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{
		Mode:                  strings.ToLower(v.GetString("mode")),
		Addr:                  v.GetString("addr"),
		StaticDir:             v.GetString("static_dir"),
		ClientDir:             v.GetString("client_dir"),
		BundlerURL:            v.GetString("bundler_url"),
		Backend:               strings.ToLower(v.GetString("backend")),
		WorkbookPath:          v.GetString("workbook_path"),
		GoogleSpreadsheetID:   v.GetString("google_spreadsheet_id"),
		GoogleCredentialsFile: v.GetString("google_credentials_file"),
		RedisAddr:             v.GetString("redis_addr"),
		RedisPassword:         v.GetString("redis_password"),
		RedisDB:               v.GetInt("redis_db"),
		CacheTTL:              v.GetDuration("cache_ttl"),
		SeedOnStart:           v.GetBool("seed_on_start"),
	}

	switch c.Mode {
	case "development", "production":
	default:
		return nil, fmt.Errorf("invalid mode %q (want development or production)", c.Mode)
	}
	switch c.Backend {
	case BackendExcel:
		if c.WorkbookPath == "" {
			return nil, errors.New("workbook_path is required for the excel backend")
		}
	case BackendGoogle:
		if c.GoogleSpreadsheetID == "" {
			return nil, errors.New("google_spreadsheet_id is required for the google backend")
		}
	default:
		return nil, fmt.Errorf("invalid backend %q (want %s or %s)", c.Backend, BackendExcel, BackendGoogle)
	}
	if c.CacheTTL < 0 {
		return nil, fmt.Errorf("cache_ttl cannot be negative: %s", c.CacheTTL)
	}
	return c, nil
}
