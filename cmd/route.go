package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/chart"
	"github.com/derickschaefer/ecowise/internal/config"
	"github.com/derickschaefer/ecowise/internal/model"
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Compare travel modes via Google Directions",
}

var (
	routeModes []string
	routeSave  bool
	routeChart bool
)

var routeCompareCmd = &cobra.Command{
	Use:   "compare <ORIGIN> <DESTINATION>",
	Short: "Compare travel modes and recommend the lowest-emission one",
	Long: `Plan the trip once per travel mode, concurrently, and recommend the mode
with the least CO2. Modes that fail are reported as warnings; the
comparison only fails when no mode could be routed.

CO2 is estimated locally from distance (kg per km):
  driving 0.171   transit 0.089   walking 0   bicycling 0`,
	Example: `  ecowise route compare "King's Cross, London" "Camden Town, London"
  ecowise route compare Lisbon Sintra --modes driving,transit --chart
  ecowise route compare A B --save --format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.Config.Require(config.ProviderDirections); err != nil {
			return err
		}

		start := time.Now()
		cmp, err := deps.Service.CompareRoutes(commandContext(cmd), args[0], args[1], routeModes)
		if err != nil {
			return err
		}

		result := newResult(model.KindRouteComparison,
			fmt.Sprintf("route compare %q %q", args[0], args[1]), &cmp, len(cmp.Legs), start)
		result.Warnings = append(result.Warnings, cmp.Dropped...)

		if routeSave {
			rec, _ := cmp.Recommended()
			label := fmt.Sprintf("%s -> %s (%s)", cmp.Origin, cmp.Destination, cmp.RecommendedMode)
			detail := fmt.Sprintf("%.2f km, %.1f min, saves %.2f kg", rec.DistanceKm, rec.DurationMin, cmp.SavingsCO2Kg)
			if err := saveEntry(deps, result, model.EntryRoute, label, rec.CO2Kg, detail); err != nil {
				return err
			}
		}

		if err := emit(cmd.OutOrStdout(), deps, result); err != nil {
			return err
		}
		if routeChart && !deps.Config.Quiet {
			fmt.Fprintln(cmd.OutOrStdout())
			return chart.Render(cmd.OutOrStdout(), cmp.Origin+" → "+cmp.Destination, legBars(cmp), chart.Options{Unit: "kg CO2"})
		}
		return nil
	},
}

// legBars converts the comparison legs into chart bars, marking the
// recommended mode.
func legBars(cmp model.RouteComparison) []chart.Bar {
	bars := make([]chart.Bar, 0, len(cmp.Legs))
	for _, l := range cmp.Legs {
		bars = append(bars, chart.Bar{
			Label:  string(l.Mode),
			Value:  l.CO2Kg,
			Marked: l.Mode == cmp.RecommendedMode,
		})
	}
	return bars
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.AddCommand(routeCompareCmd)

	f := routeCompareCmd.Flags()
	f.StringSliceVar(&routeModes, "modes", nil, "travel modes to compare: driving,transit,walking,bicycling (default: all)")
	f.BoolVar(&routeSave, "save", false, "record the recommendation in the local journal")
	f.BoolVar(&routeChart, "chart", false, "draw a CO2 bar chart under the table")
}
