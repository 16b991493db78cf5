package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/config"
	"github.com/derickschaefer/ecowise/internal/model"
)

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Current weather and eco advice via OpenWeatherMap",
}

var weatherGetCmd = &cobra.Command{
	Use:   "get <LAT> <LON>",
	Short: "Show current conditions and advisories for a location",
	Long: `Show current conditions (metric units) for a latitude/longitude pair,
followed by practical advisories derived from temperature, conditions
and wind.

Negative coordinates need "--" so they are not read as flags.`,
	Example: `  ecowise weather get 51.5072 -- -0.1276
  ecowise weather get 38.7223 -- -9.1393 --format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := parseCoord(args[0], "latitude", 90)
		if err != nil {
			return err
		}
		lon, err := parseCoord(args[1], "longitude", 180)
		if err != nil {
			return err
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		if err := deps.Config.Require(config.ProviderOpenWeather); err != nil {
			return err
		}

		start := time.Now()
		report, err := deps.Service.Weather(commandContext(cmd), lat, lon)
		if err != nil {
			return err
		}
		result := newResult(model.KindWeatherReport,
			fmt.Sprintf("weather get %s %s", args[0], args[1]), &report, 1, start)
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// parseCoord parses a coordinate and checks it lies within ±limit.
func parseCoord(s, label string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a number", label, s)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("invalid %s %s: must be between -%g and %g", label, s, limit, limit)
	}
	return v, nil
}

func init() {
	rootCmd.AddCommand(weatherCmd)
	weatherCmd.AddCommand(weatherGetCmd)
}
