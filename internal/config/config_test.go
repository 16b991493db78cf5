package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/derickschaefer/ecowise/internal/config"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// chdir switches the working directory to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// writeConfig writes a config.json into dir and changes the working directory
// to dir so config.Load() finds it.
func writeConfig(t *testing.T, dir string, f config.File) {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
}

// clearEnv blanks every variable Load reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvClimatiqKey, config.EnvOpenWeatherKey, config.EnvDirectionsKey,
		config.EnvMapsKey, config.EnvDBPath, config.EnvListenAddr,
	} {
		t.Setenv(k, "")
	}
}

// ─── Defaults ─────────────────────────────────────────────────────────────────

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr: expected :8000, got %q", cfg.ListenAddr)
	}
	if cfg.RateLimit != 60 || cfg.RateWindow != time.Minute {
		t.Errorf("rate limit: expected 60/1m, got %d/%v", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.RequestTimeout != config.DefaultRequestTimeout {
		t.Errorf("RequestTimeout: expected %v, got %v", config.DefaultRequestTimeout, cfg.RequestTimeout)
	}
	if cfg.Concurrency != config.DefaultConcurrency {
		t.Errorf("Concurrency: expected %d, got %d", config.DefaultConcurrency, cfg.Concurrency)
	}
	if cfg.Format != config.DefaultFormat {
		t.Errorf("Format: expected %q, got %q", config.DefaultFormat, cfg.Format)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath should have a default (home dir based) value")
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath should be empty when no file found, got %q", cfg.ConfigPath)
	}
}

// ─── Config file loading ──────────────────────────────────────────────────────

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{
		ClimatiqAPIKey:    "cq-file",
		OpenWeatherAPIKey: "ow-file",
		DirectionsAPIKey:  "gd-file",
		ListenAddr:        "127.0.0.1:9000",
		RequestTimeout:    "5s",
		RateLimit:         10,
		RateWindow:        "30s",
		ProviderRate:      2.5,
		Concurrency:       2,
		TrustProxy:        true,
		DBPath:            "/tmp/eco.db",
		DefaultFormat:     "json",
	})

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ClimatiqAPIKey != "cq-file" || cfg.OpenWeatherAPIKey != "ow-file" || cfg.DirectionsAPIKey != "gd-file" {
		t.Errorf("keys not loaded from file: %+v", cfg.Redacted())
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr: got %q", cfg.ListenAddr)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout: expected 5s, got %v", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 10 || cfg.RateWindow != 30*time.Second {
		t.Errorf("rate limit: expected 10/30s, got %d/%v", cfg.RateLimit, cfg.RateWindow)
	}
	if cfg.ProviderRate != 2.5 {
		t.Errorf("ProviderRate: expected 2.5, got %g", cfg.ProviderRate)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency: expected 2, got %d", cfg.Concurrency)
	}
	if !cfg.TrustProxy {
		t.Error("TrustProxy should be true")
	}
	if cfg.DBPath != "/tmp/eco.db" {
		t.Errorf("DBPath: got %q", cfg.DBPath)
	}
	if !strings.Contains(cfg.ConfigPath, "config.json") {
		t.Errorf("ConfigPath should contain config.json, got %q", cfg.ConfigPath)
	}
}

func TestLoadInvalidDurationsIgnored(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{RequestTimeout: "soon", RateWindow: "-5s"})

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout != config.DefaultRequestTimeout {
		t.Errorf("invalid timeout should use default, got %v", cfg.RequestTimeout)
	}
	if cfg.RateWindow != config.DefaultRateWindow {
		t.Errorf("negative window should use default, got %v", cfg.RateWindow)
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	if _, err := config.Load(config.Overrides{}); err == nil {
		t.Error("malformed config.json should be reported")
	}
}

// ─── Environment variable priority ───────────────────────────────────────────

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{ClimatiqAPIKey: "filekey", ListenAddr: ":7000"})
	t.Setenv(config.EnvClimatiqKey, "envkey")
	t.Setenv(config.EnvListenAddr, ":7100")

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ClimatiqAPIKey != "envkey" {
		t.Errorf("env should override file: expected envkey, got %q", cfg.ClimatiqAPIKey)
	}
	if cfg.ListenAddr != ":7100" {
		t.Errorf("env listen addr should override file, got %q", cfg.ListenAddr)
	}
}

func TestLoadMapsKeyFallback(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv(config.EnvMapsKey, "maps-key")

	cfg, err := config.Load(config.Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DirectionsAPIKey != "maps-key" {
		t.Errorf("GOOGLE_MAPS_API_KEY should fill the directions key, got %q", cfg.DirectionsAPIKey)
	}

	t.Setenv(config.EnvDirectionsKey, "directions-key")
	cfg, _ = config.Load(config.Overrides{})
	if cfg.DirectionsAPIKey != "directions-key" {
		t.Errorf("GOOGLE_DIRECTIONS_API_KEY should win over the maps key, got %q", cfg.DirectionsAPIKey)
	}
}

// ─── CLI flag priority ────────────────────────────────────────────────────────

func TestLoadFlagsOverrideEnvAndFile(t *testing.T) {
	clearEnv(t)
	writeConfig(t, t.TempDir(), config.File{OpenWeatherAPIKey: "filekey"})
	t.Setenv(config.EnvOpenWeatherKey, "envkey")
	t.Setenv(config.EnvDBPath, "/env/path.db")

	cfg, err := config.Load(config.Overrides{OpenWeatherAPIKey: "flagkey", DBPath: "/flag/path.db"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenWeatherAPIKey != "flagkey" {
		t.Errorf("flag should override env and file: expected flagkey, got %q", cfg.OpenWeatherAPIKey)
	}
	if cfg.DBPath != "/flag/path.db" {
		t.Errorf("flag db path should win, got %q", cfg.DBPath)
	}
}

// ─── Require ──────────────────────────────────────────────────────────────────

func TestRequireAllPresent(t *testing.T) {
	cfg := &config.Config{ClimatiqAPIKey: "a", OpenWeatherAPIKey: "b", DirectionsAPIKey: "c"}
	if err := cfg.Require(); err != nil {
		t.Errorf("Require with all keys should not error: %v", err)
	}
}

func TestRequireListsEveryMissingKey(t *testing.T) {
	cfg := &config.Config{OpenWeatherAPIKey: "b"}
	err := cfg.Require()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{config.EnvClimatiqKey, config.EnvDirectionsKey} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
	if strings.Contains(err.Error(), config.EnvOpenWeatherKey) {
		t.Errorf("error should not mention the configured key: %v", err)
	}
}

func TestRequireSubset(t *testing.T) {
	cfg := &config.Config{OpenWeatherAPIKey: "b"}
	if err := cfg.Require(config.ProviderOpenWeather); err != nil {
		t.Errorf("weather-only check should pass: %v", err)
	}
	if err := cfg.Require("nope"); err == nil {
		t.Error("unknown provider should error")
	}
}

// ─── Redacted ─────────────────────────────────────────────────────────────────

func TestRedactedKeys(t *testing.T) {
	cfg := &config.Config{ClimatiqAPIKey: "abcdefghij", OpenWeatherAPIKey: "abc"}
	r := cfg.Redacted()
	if r["climatiq_api_key"] != "ab****ij" {
		t.Errorf("climatiq key: got %q", r["climatiq_api_key"])
	}
	if r["openweather_api_key"] != "****" {
		t.Errorf("short key should redact to ****, got %q", r["openweather_api_key"])
	}
	if r["directions_api_key"] != "" {
		t.Errorf("unset key should stay empty, got %q", r["directions_api_key"])
	}
}

// ─── WriteFile / Template ─────────────────────────────────────────────────────

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	f := config.Template()
	f.ClimatiqAPIKey = "testkey"

	if err := config.WriteFile(path, f); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got config.File
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("WriteFile produced invalid JSON: %v", err)
	}
	if got != f {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, f)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file permissions: expected 0600, got %04o", info.Mode().Perm())
	}
}

func TestTemplateDefaults(t *testing.T) {
	tmpl := config.Template()
	if tmpl.ListenAddr != config.DefaultListenAddr {
		t.Errorf("Template.ListenAddr: got %q", tmpl.ListenAddr)
	}
	if tmpl.RateWindow != "1m0s" {
		t.Errorf("Template.RateWindow: expected 1m0s, got %q", tmpl.RateWindow)
	}
	if tmpl.ClimatiqAPIKey != "" || tmpl.OpenWeatherAPIKey != "" || tmpl.DirectionsAPIKey != "" {
		t.Error("Template keys should be empty (user fills them in)")
	}
}
