package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/config"
	"github.com/derickschaefer/ecowise/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ecowise configuration",
	Long:  `Read and write ecowise configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created %s\n", path)
		fmt.Fprintln(out, "  Edit it and set your provider API keys to get started:")
		fmt.Fprintln(out, "    climatiq_api_key     https://www.climatiq.io/")
		fmt.Fprintln(out, "    openweather_api_key  https://openweathermap.org/api")
		fmt.Fprintln(out, "    directions_api_key   https://developers.google.com/maps/documentation/directions")
		return nil
	},
}

var configGetShowSecrets bool

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		cfg := deps.Config

		keys := cfg.Redacted()
		if configGetShowSecrets {
			keys = map[string]string{
				"climatiq_api_key":    cfg.ClimatiqAPIKey,
				"openweather_api_key": cfg.OpenWeatherAPIKey,
				"directions_api_key":  cfg.DirectionsAPIKey,
			}
		}
		for k, v := range keys {
			if v == "" {
				keys[k] = "(not set)"
			}
		}
		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}

		rows := [][]string{
			{"climatiq_api_key", keys["climatiq_api_key"]},
			{"openweather_api_key", keys["openweather_api_key"]},
			{"directions_api_key", keys["directions_api_key"]},
			{"listen_addr", cfg.ListenAddr},
			{"request_timeout", cfg.RequestTimeout.String()},
			{"rate_limit", strconv.Itoa(cfg.RateLimit)},
			{"rate_window", cfg.RateWindow.String()},
			{"provider_rate", fmt.Sprintf("%.1f req/s", cfg.ProviderRate)},
			{"concurrency", strconv.Itoa(cfg.Concurrency)},
			{"trust_proxy", strconv.FormatBool(cfg.TrustProxy)},
			{"default_format", cfg.Format},
			{"db_path", cfg.DBPath},
			{"config_file", src},
		}

		if resolveFormat(cfg.Format) == render.FormatJSON {
			obj := make(map[string]string, len(rows))
			for _, r := range rows {
				obj[r[0]] = r[1]
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(obj)
		}
		printKVTable(cmd.OutOrStdout(), rows)
		return nil
	},
}

// configKeys lists the keys accepted by `config set`.
var configKeys = []string{
	"climatiq_api_key", "openweather_api_key", "directions_api_key",
	"listen_addr", "request_timeout", "rate_limit", "rate_window",
	"provider_rate", "concurrency", "trust_proxy", "default_format", "db_path",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])

		// Load existing file or start from template
		f, path, err := loadConfigFile()
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			tmpl := config.Template()
			f, path = &tmpl, config.DefaultConfigFile
		}
		if err := setConfigKey(f, key, args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(path, *f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

// setConfigKey assigns val to the config.json field named key.
func setConfigKey(f *config.File, key, val string) error {
	switch key {
	case "climatiq_api_key":
		f.ClimatiqAPIKey = val
	case "openweather_api_key":
		f.OpenWeatherAPIKey = val
	case "directions_api_key":
		f.DirectionsAPIKey = val
	case "listen_addr":
		f.ListenAddr = val
	case "db_path":
		f.DBPath = val
	case "request_timeout", "rate_window":
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("%s must be a duration such as 20s or 1m", key)
		}
		if key == "request_timeout" {
			f.RequestTimeout = val
		} else {
			f.RateWindow = val
		}
	case "rate_limit", "concurrency":
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer", key)
		}
		if key == "rate_limit" {
			f.RateLimit = n
		} else {
			f.Concurrency = n
		}
	case "provider_rate":
		r, err := strconv.ParseFloat(val, 64)
		if err != nil || r < 0 {
			return fmt.Errorf("provider_rate must be a non-negative number")
		}
		f.ProviderRate = r
	case "trust_proxy":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("trust_proxy must be true or false")
		}
		f.TrustProxy = b
	case "default_format", "format":
		if !render.ValidFormat(val) {
			return fmt.Errorf("default_format must be one of %s", strings.Join(render.Formats, "|"))
		}
		f.DefaultFormat = val
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(configKeys, ", "))
	}
	return nil
}

// loadConfigFile reads config.json from cwd; used by configSetCmd.
func loadConfigFile() (*config.File, string, error) {
	path := config.DefaultConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, path, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configGetCmd.Flags().BoolVar(&configGetShowSecrets, "show-secrets", false, "show API keys in plain text")
}
