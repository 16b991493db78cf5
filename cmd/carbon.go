package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/app"
	"github.com/derickschaefer/ecowise/internal/config"
	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/pipeline"
	"github.com/derickschaefer/ecowise/internal/provider/climatiq"
	"github.com/derickschaefer/ecowise/internal/util"
)

var carbonCmd = &cobra.Command{
	Use:   "carbon",
	Short: "Estimate activity carbon footprints via Climatiq",
}

// ─── carbon estimate ──────────────────────────────────────────────────────────

var carbonSave bool

var carbonEstimateCmd = &cobra.Command{
	Use:   "estimate <ACTIVITY_TYPE> <VALUE> <UNIT>",
	Short: "Estimate the CO2 emitted by one activity",
	Long: `Estimate the CO2 emitted by one activity.

Supported activities and their units:
  transport_car        km
  transport_bus        km
  diet_meat            kg
  energy_electricity   kWh

Use --save to record the estimate in the local journal.`,
	Example: `  ecowise carbon estimate transport_car 12 km
  ecowise carbon estimate energy_electricity 250 kWh --save
  ecowise carbon estimate diet_meat 0.4 kg --format json`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: expected a number", args[1])
		}
		act := model.CarbonActivity{Kind: model.ActivityKind(args[0]), Magnitude: value, Unit: model.Unit(args[2])}
		if perr := climatiq.Validate(act); perr != nil {
			return perr
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.Config.Require(config.ProviderClimatiq); err != nil {
			return err
		}

		start := time.Now()
		est, err := deps.Service.EstimateCarbon(commandContext(cmd), args[0], value, args[2])
		if err != nil {
			return err
		}

		result := newResult(model.KindCarbonEstimate,
			fmt.Sprintf("carbon estimate %s %s %s", args[0], args[1], args[2]), &est, 1, start)
		if carbonSave {
			label := fmt.Sprintf("%s %s %s", args[0], util.FormatValue(value), args[2])
			if err := saveEntry(deps, result, model.EntryCarbon, label, est.CO2Kg, est.DataSource); err != nil {
				return err
			}
		}
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// ─── carbon batch ─────────────────────────────────────────────────────────────

var carbonBatchCmd = &cobra.Command{
	Use:   "batch [FILE]",
	Short: "Estimate many activities from JSONL (stdin or a file)",
	Long: `Estimate every activity in a JSONL stream, one object per line:

  {"activity_type":"transport_car","value":12,"unit":"km"}
  {"activity_type":"energy_electricity","value":250,"unit":"kWh"}

Lines starting with # or // are skipped. Activities are estimated
concurrently (config: concurrency); a failed line is reported in the
ERROR column and does not stop the rest. Exits non-zero only when every
line fails.`,
	Example: `  ecowise carbon batch week.jsonl
  cat week.jsonl | ecowise carbon batch --format csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		} else if f, ok := in.(*os.File); ok && pipeline.IsTTY(f) {
			return fmt.Errorf("no input: pass a JSONL file or pipe activities to stdin")
		}

		recs, err := pipeline.ReadActivities(in)
		if err != nil {
			return err
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.Config.Require(config.ProviderClimatiq); err != nil {
			return err
		}

		start := time.Now()
		acts, lines := pipeline.Split(recs)
		items := deps.Service.EstimateBatch(commandContext(cmd), acts, lines)
		result := newResult(model.KindCarbonBatch, "carbon batch", items, len(items), start)
		if err := emit(cmd.OutOrStdout(), deps, result); err != nil {
			return err
		}
		for _, it := range items {
			if it.Estimate != nil {
				return nil
			}
		}
		return fmt.Errorf("all %d activities failed", len(items))
	},
}

// ─── carbon activities ────────────────────────────────────────────────────────

var carbonActivitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List supported activity types and their emission factors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printSimpleTable(cmd.OutOrStdout(), []string{"ACTIVITY", "UNIT", "SOURCE", "REGION", "YEAR", "CLIMATIQ ACTIVITY ID"}, func(add func(...string)) {
			for _, k := range model.ActivityKinds {
				unit, _ := k.ExpectedUnit()
				f := climatiq.DefaultFactors.Lookup(k)
				add(string(k), string(unit), f.Source, f.Region, f.Year, f.ActivityID)
			}
		})
		return nil
	},
}

// saveEntry records result in the journal and adds the entry ID to the
// result warnings so it is shown under the output.
func saveEntry(deps *app.Deps, result *model.Result, kind, label string, co2 float64, detail string) error {
	st, err := deps.Store()
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	e, err := st.Append(model.JournalEntry{Kind: kind, Label: label, CO2Kg: co2, Detail: detail})
	if err != nil {
		return fmt.Errorf("saving to journal: %w", err)
	}
	deps.Logger.Debug("journal entry saved", "id", e.ID, "kind", kind)
	result.Warnings = append(result.Warnings, fmt.Sprintf("saved to journal as %s", e.ID))
	return nil
}

func init() {
	rootCmd.AddCommand(carbonCmd)
	carbonCmd.AddCommand(carbonEstimateCmd)
	carbonCmd.AddCommand(carbonBatchCmd)
	carbonCmd.AddCommand(carbonActivitiesCmd)

	carbonEstimateCmd.Flags().BoolVar(&carbonSave, "save", false, "record the estimate in the local journal")
}
