package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/model"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every provider once and report which are reachable",
	Long: `Send one small request to each provider concurrently:

  climatiq     transport_car, 1 km
  openweather  London (51.5074, -0.1278)
  directions   London, UK → Oxford, UK by car

A missing key is reported as "unauthorized" without a network call.
Exits non-zero when any provider fails.`,
	Example: `  ecowise health
  ecowise health --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}

		start := time.Now()
		h := deps.Service.ProbeProviders(commandContext(cmd))
		result := newResult(model.KindProviderHealth, "health", &h, len(h.Providers), start)
		if err := emit(cmd.OutOrStdout(), deps, result); err != nil {
			return err
		}
		if !h.Healthy() {
			return errors.New("one or more providers are unavailable")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
