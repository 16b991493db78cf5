package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/ecowise/internal/chart"
	"github.com/derickschaefer/ecowise/internal/model"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and manage the local activity journal",
	Long: `Commands for the local activity journal, a bbolt database that records
results saved with 'carbon estimate --save' and 'route compare --save'.

Nothing is recorded unless --save is given, and the HTTP server never
writes to the journal.`,
}

// ─── journal list ─────────────────────────────────────────────────────────────

var (
	journalSince string
	journalKind  string
	journalChart bool
	journalYes   bool
)

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved entries, oldest first",
	Example: `  ecowise journal list
  ecowise journal list --since 7d --kind route
  ecowise journal list --since 2025-03-01 --format csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSince(journalSince, time.Now())
		if err != nil {
			return err
		}
		if journalKind != "" && journalKind != model.EntryCarbon && journalKind != model.EntryRoute {
			return fmt.Errorf("invalid --kind %q: use carbon or route", journalKind)
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		start := time.Now()
		entries, err := st.List(since, journalKind)
		if err != nil {
			return fmt.Errorf("reading journal: %w", err)
		}
		if entries == nil {
			entries = []model.JournalEntry{}
		}
		return emit(cmd.OutOrStdout(), deps,
			newResult(model.KindJournal, "journal list", entries, len(entries), start))
	},
}

// ─── journal summary ──────────────────────────────────────────────────────────

var journalSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Total saved CO2 per day and kind",
	Example: `  ecowise journal summary
  ecowise journal summary --since 30d --chart`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSince(journalSince, time.Now())
		if err != nil {
			return err
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		start := time.Now()
		rows, err := st.Summarize(since)
		if err != nil {
			return fmt.Errorf("summarizing journal: %w", err)
		}
		if rows == nil {
			rows = []model.DailySummary{}
		}
		if err := emit(cmd.OutOrStdout(), deps,
			newResult(model.KindJournalSummary, "journal summary", rows, len(rows), start)); err != nil {
			return err
		}
		if journalChart && len(rows) > 0 && !deps.Config.Quiet {
			fmt.Fprintln(cmd.OutOrStdout())
			return chart.Render(cmd.OutOrStdout(), "CO2 per day", dailyBars(rows), chart.Options{Unit: "kg CO2"})
		}
		return nil
	},
}

// dailyBars sums summary rows across kinds, one bar per day.
func dailyBars(rows []model.DailySummary) []chart.Bar {
	var bars []chart.Bar
	idx := map[string]int{}
	for _, r := range rows {
		i, ok := idx[r.Day]
		if !ok {
			i = len(bars)
			idx[r.Day] = i
			bars = append(bars, chart.Bar{Label: r.Day})
		}
		bars[i].Value += r.TotalCO2Kg
	}
	return bars
}

// ─── journal delete ───────────────────────────────────────────────────────────

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <ID...>",
	Short: "Delete entries by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		var missing []string
		for _, id := range args {
			found, err := st.Delete(id)
			if err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			if !found {
				missing = append(missing, id)
				continue
			}
			if !deps.Config.Quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", id)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("no journal entry with ID %v", missing)
		}
		return nil
	},
}

// ─── journal clear ────────────────────────────────────────────────────────────

var journalClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every journal entry",
	Long: `Delete every journal entry. Requires --yes.

bbolt does not shrink the database file after clearing; run
'ecowise journal compact' to reclaim disk space.`,
	Example: `  ecowise journal clear --yes`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !journalYes {
			return fmt.Errorf("refusing to clear the journal without --yes")
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}
		n, err := st.Clear()
		if err != nil {
			return fmt.Errorf("clearing journal: %w", err)
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d entries\n", n)
			fmt.Fprintln(cmd.OutOrStdout(), "  Run 'ecowise journal compact' to reclaim disk space.")
		}
		return nil
	},
}

// ─── journal stats ────────────────────────────────────────────────────────────

var journalStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show row counts and sizes for each bucket",
	Example: `  ecowise journal stats`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		stats, err := st.Stats()
		if err != nil {
			return fmt.Errorf("reading journal stats: %w", err)
		}
		sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", st.Path())
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ROWS", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, fmt.Sprintf("%d", s.Count), humanBytes(s.Bytes))
			}
		})
		return nil
	},
}

// ─── journal compact ──────────────────────────────────────────────────────────

var journalCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the database file to reclaim freed disk space",
	Long: `Compact copies every live entry into a fresh bbolt file and atomically
replaces the original. bbolt reuses freed pages internally but never
shrinks the file on its own.`,
	Example: `  ecowise journal compact`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Compacting %s ...\n", st.Path())
		before, after, err := st.Compact()
		if err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Compaction complete\n")
		fmt.Fprintf(cmd.OutOrStdout(), "  Before: %s\n", humanBytes(before))
		fmt.Fprintf(cmd.OutOrStdout(), "  After:  %s\n", humanBytes(after))
		if saved := before - after; saved > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "  Saved:  %s\n", humanBytes(saved))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "  No space reclaimed (database was already compact).")
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalSummaryCmd)
	journalCmd.AddCommand(journalDeleteCmd)
	journalCmd.AddCommand(journalClearCmd)
	journalCmd.AddCommand(journalStatsCmd)
	journalCmd.AddCommand(journalCompactCmd)

	for _, c := range []*cobra.Command{journalListCmd, journalSummaryCmd} {
		c.Flags().StringVar(&journalSince, "since", "", "only entries on or after: YYYY-MM-DD, 24h, 7d")
	}
	journalListCmd.Flags().StringVar(&journalKind, "kind", "", "filter by kind: carbon|route")
	journalSummaryCmd.Flags().BoolVar(&journalChart, "chart", false, "draw a CO2-per-day bar chart")
	journalClearCmd.Flags().BoolVar(&journalYes, "yes", false, "confirm deleting every entry")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func humanBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
