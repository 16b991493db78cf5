// Package cmd implements the ecowise CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/app"
	"github.com/derickschaefer/ecowise/internal/config"
	"github.com/derickschaefer/ecowise/internal/render"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	ClimatiqKey   string
	WeatherKey    string
	DirectionsKey string
	Listen        string
	DBPath        string
	Format        string
	Out           string
	Quiet         bool
	Verbose       bool
	Debug         bool
	LogFormat     string
}

// rootCmd is the base command. Running `ecowise` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "ecowise",
	Short: "ecowise — carbon, weather and low-emission route advice",
	Long: `ecowise estimates the carbon footprint of everyday activities, turns current
weather into practical advice, and compares travel modes between two places
to recommend the one that emits the least CO2.

It can run as a JSON HTTP API (ecowise serve) or answer one-off questions
from the command line.

Provider keys:
  Climatiq        https://www.climatiq.io/          CLIMATIQ_API_KEY
  OpenWeatherMap  https://openweathermap.org/api    OPENWEATHERMAP_API_KEY
  Google Maps     Directions API                    GOOGLE_DIRECTIONS_API_KEY

Quick start:
  ecowise config init                                   # create config.json
  ecowise carbon estimate transport_car 12 km           # CO2 for a 12 km drive
  ecowise weather get 51.5072 -0.1276                   # London advice
  ecowise route compare "King's Cross" "Camden Town"    # greenest mode
  ecowise serve                                         # start the HTTP API`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalFlags.Format != "" && !render.ValidFormat(globalFlags.Format) {
			return fmt.Errorf("unknown --format %q (valid: table|json|jsonl|csv|tsv|md)", globalFlags.Format)
		}
		return nil
	},
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config, installs the process logger and constructs the
// dependency container. Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	return buildDepsAt(slog.LevelWarn)
}

// buildDepsAt is buildDeps with an explicit default log level; serve logs
// every request at info.
func buildDepsAt(level slog.Level) (*app.Deps, error) {
	cfg, err := config.Load(config.Overrides{
		ClimatiqAPIKey:    globalFlags.ClimatiqKey,
		OpenWeatherAPIKey: globalFlags.WeatherKey,
		DirectionsAPIKey:  globalFlags.DirectionsKey,
		ListenAddr:        globalFlags.Listen,
		DBPath:            globalFlags.DBPath,
	})
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug
	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}

	logger := newLogger(os.Stderr, globalFlags.LogFormat, logLevel(level, cfg.Debug, cfg.Quiet))
	slog.SetDefault(logger)
	return app.New(cfg, logger), nil
}

// logLevel applies --debug and --quiet to a command's default level.
func logLevel(def slog.Level, debug, quiet bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	}
	return def
}

// newLogger builds the process logger. Logs go to stderr so rendered output
// on stdout stays pipeable.
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.ClimatiqKey, "climatiq-key", "",
		"Climatiq API key (overrides env CLIMATIQ_API_KEY and config.json)")
	pf.StringVar(&globalFlags.WeatherKey, "weather-key", "",
		"OpenWeatherMap API key (overrides env OPENWEATHERMAP_API_KEY and config.json)")
	pf.StringVar(&globalFlags.DirectionsKey, "directions-key", "",
		"Google Directions API key (overrides env GOOGLE_DIRECTIONS_API_KEY and config.json)")
	pf.StringVar(&globalFlags.Listen, "listen", "",
		"HTTP listen address for serve (default: :8000)")
	pf.StringVar(&globalFlags.DBPath, "db", "",
		"journal database path (default: ~/.ecowise/journal.db)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log provider requests and responses (API keys redacted)")
	pf.StringVar(&globalFlags.LogFormat, "log-format", "text",
		"log format on stderr: text|json")
}
