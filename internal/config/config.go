// Package config handles loading and resolving ecowise configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags (--climatiq-key, --weather-key, --directions-key, --listen, --db)
//  2. Environment variables (CLIMATIQ_API_KEY, OPENWEATHERMAP_API_KEY, ...)
//  3. config.json in the current working directory
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/derickschaefer/ecowise/internal/util"
)

const (
	DefaultConfigFile     = "config.json"
	DefaultFormat         = "table"
	DefaultListenAddr     = ":8000"
	DefaultRequestTimeout = 20 * time.Second
	DefaultRateLimit      = 60
	DefaultRateWindow     = 60 * time.Second
	DefaultProviderRate   = 10.0
	DefaultConcurrency    = 4

	EnvClimatiqKey    = "CLIMATIQ_API_KEY"
	EnvOpenWeatherKey = "OPENWEATHERMAP_API_KEY"
	EnvDirectionsKey  = "GOOGLE_DIRECTIONS_API_KEY"
	EnvMapsKey        = "GOOGLE_MAPS_API_KEY" // fallback for EnvDirectionsKey
	EnvDBPath         = "ECOWISE_DB_PATH"
	EnvListenAddr     = "ECOWISE_LISTEN_ADDR"
)

// Provider names accepted by Require.
const (
	ProviderClimatiq    = "climatiq"
	ProviderOpenWeather = "openweather"
	ProviderDirections  = "directions"
)

// File is the on-disk representation of config.json.
type File struct {
	ClimatiqAPIKey     string  `json:"climatiq_api_key"`
	OpenWeatherAPIKey  string  `json:"openweather_api_key"`
	DirectionsAPIKey   string  `json:"directions_api_key"`
	ClimatiqBaseURL    string  `json:"climatiq_base_url,omitempty"`
	OpenWeatherBaseURL string  `json:"openweather_base_url,omitempty"`
	DirectionsBaseURL  string  `json:"directions_base_url,omitempty"`
	ListenAddr         string  `json:"listen_addr"`
	RequestTimeout     string  `json:"request_timeout"`
	RateLimit          int     `json:"rate_limit"`
	RateWindow         string  `json:"rate_window"`
	ProviderRate       float64 `json:"provider_rate"`
	Concurrency        int     `json:"concurrency"`
	TrustProxy         bool    `json:"trust_proxy"`
	DBPath             string  `json:"db_path"`
	DefaultFormat      string  `json:"default_format"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	ClimatiqAPIKey    string
	OpenWeatherAPIKey string
	DirectionsAPIKey  string

	ClimatiqBaseURL    string
	OpenWeatherBaseURL string
	DirectionsBaseURL  string

	ListenAddr     string
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
	ProviderRate   float64
	Concurrency    int
	TrustProxy     bool

	Format     string
	DBPath     string
	ConfigPath string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Overrides carries CLI flag values. Empty fields do not override.
type Overrides struct {
	ClimatiqAPIKey    string
	OpenWeatherAPIKey string
	DirectionsAPIKey  string
	ListenAddr        string
	DBPath            string
}

// Load resolves configuration from all sources.
func Load(flags Overrides) (*Config, error) {
	cfg := &Config{
		ListenAddr:     DefaultListenAddr,
		RequestTimeout: DefaultRequestTimeout,
		RateLimit:      DefaultRateLimit,
		RateWindow:     DefaultRateWindow,
		ProviderRate:   DefaultProviderRate,
		Concurrency:    DefaultConcurrency,
		Format:         DefaultFormat,
	}

	// Layer 1: config.json (lowest priority)
	f, path, err := loadFile()
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: environment
	setIf(&cfg.ClimatiqAPIKey, os.Getenv(EnvClimatiqKey))
	setIf(&cfg.OpenWeatherAPIKey, os.Getenv(EnvOpenWeatherKey))
	if v := os.Getenv(EnvDirectionsKey); v != "" {
		cfg.DirectionsAPIKey = v
	} else if v := os.Getenv(EnvMapsKey); v != "" && cfg.DirectionsAPIKey == "" {
		cfg.DirectionsAPIKey = v
	}
	setIf(&cfg.DBPath, os.Getenv(EnvDBPath))
	setIf(&cfg.ListenAddr, os.Getenv(EnvListenAddr))

	// Layer 3: CLI flags (highest priority)
	setIf(&cfg.ClimatiqAPIKey, flags.ClimatiqAPIKey)
	setIf(&cfg.OpenWeatherAPIKey, flags.OpenWeatherAPIKey)
	setIf(&cfg.DirectionsAPIKey, flags.DirectionsAPIKey)
	setIf(&cfg.ListenAddr, flags.ListenAddr)
	setIf(&cfg.DBPath, flags.DBPath)

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".ecowise", "journal.db")
		}
	}

	return cfg, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Require returns an error naming every listed provider whose API key is
// missing. With no arguments all three providers are checked.
func (c *Config) Require(providers ...string) error {
	if len(providers) == 0 {
		providers = []string{ProviderClimatiq, ProviderOpenWeather, ProviderDirections}
	}
	var missing []string
	for _, p := range providers {
		switch p {
		case ProviderClimatiq:
			if c.ClimatiqAPIKey == "" {
				missing = append(missing, EnvClimatiqKey)
			}
		case ProviderOpenWeather:
			if c.OpenWeatherAPIKey == "" {
				missing = append(missing, EnvOpenWeatherKey)
			}
		case ProviderDirections:
			if c.DirectionsAPIKey == "" {
				missing = append(missing, EnvDirectionsKey)
			}
		default:
			return fmt.Errorf("unknown provider %q", p)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf(
		"missing API keys: %s\n\n"+
			"Set them one of these ways:\n"+
			"  1. CLI flags:       ecowise --climatiq-key K --weather-key K --directions-key K ...\n"+
			"  2. Environment:     export %s=YOUR_KEY\n"+
			"  3. config.json:     run `ecowise config init` and fill in the keys",
		strings.Join(missing, ", "), missing[0])
}

// Redacted returns the three API keys masked for display, keyed by the
// config.json field name.
func (c *Config) Redacted() map[string]string {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return util.Redact(s)
	}
	return map[string]string{
		"climatiq_api_key":    mask(c.ClimatiqAPIKey),
		"openweather_api_key": mask(c.OpenWeatherAPIKey),
		"directions_api_key":  mask(c.DirectionsAPIKey),
	}
}

// loadFile attempts to read config.json from the current working directory.
// A missing file is reported with an error wrapping os.ErrNotExist.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	setIf(&cfg.ClimatiqAPIKey, f.ClimatiqAPIKey)
	setIf(&cfg.OpenWeatherAPIKey, f.OpenWeatherAPIKey)
	setIf(&cfg.DirectionsAPIKey, f.DirectionsAPIKey)
	setIf(&cfg.ClimatiqBaseURL, f.ClimatiqBaseURL)
	setIf(&cfg.OpenWeatherBaseURL, f.OpenWeatherBaseURL)
	setIf(&cfg.DirectionsBaseURL, f.DirectionsBaseURL)
	setIf(&cfg.ListenAddr, f.ListenAddr)
	setIf(&cfg.DBPath, f.DBPath)
	setIf(&cfg.Format, f.DefaultFormat)
	if d, err := time.ParseDuration(f.RequestTimeout); err == nil && d > 0 {
		cfg.RequestTimeout = d
	}
	if d, err := time.ParseDuration(f.RateWindow); err == nil && d > 0 {
		cfg.RateWindow = d
	}
	if f.RateLimit > 0 {
		cfg.RateLimit = f.RateLimit
	}
	if f.ProviderRate > 0 {
		cfg.ProviderRate = f.ProviderRate
	}
	if f.Concurrency > 0 {
		cfg.Concurrency = f.Concurrency
	}
	cfg.TrustProxy = f.TrustProxy
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `ecowise config init`.
func Template() File {
	return File{
		ListenAddr:     DefaultListenAddr,
		RequestTimeout: DefaultRequestTimeout.String(),
		RateLimit:      DefaultRateLimit,
		RateWindow:     DefaultRateWindow.String(),
		ProviderRate:   DefaultProviderRate,
		Concurrency:    DefaultConcurrency,
		DefaultFormat:  DefaultFormat,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
