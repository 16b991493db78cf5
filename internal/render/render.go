// Package render converts Result values into human-readable or machine-parseable
// output. Every result kind is first flattened into a header plus rows; the
// table, CSV/TSV and Markdown writers all share that view, while JSON and
// JSONL encode the typed payload directly.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/ecowise/internal/model"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
)

// Formats lists every supported --format value.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD}

// ValidFormat reports whether f is a supported format.
func ValidFormat(f string) bool {
	for _, x := range Formats {
		if x == f {
			return true
		}
	}
	return false
}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── Tabular View ─────────────────────────────────────────────────────────────

// view is the flattened form of a result.
type view struct {
	header []string
	rows   [][]string
	// right lists column indexes holding numbers.
	right map[int]bool
	// note is printed under the table (table format only).
	note string
}

func tabular(result *model.Result) (view, bool) {
	switch d := result.Data.(type) {
	case *model.CarbonEstimate:
		return view{
			header: []string{"CO2 (KG)", "CONFIDENCE", "DATA SOURCE"},
			rows:   [][]string{{formatKg(d.CO2Kg), d.Confidence, d.DataSource}},
			right:  map[int]bool{0: true},
		}, true

	case []model.CarbonBatchItem:
		v := view{
			header: []string{"LINE", "ACTIVITY", "VALUE", "UNIT", "CO2 (KG)", "CONFIDENCE", "DATA SOURCE", "ERROR"},
			right:  map[int]bool{0: true, 2: true, 4: true},
		}
		total, ok := 0.0, 0
		for _, it := range d {
			row := []string{
				fmt.Sprintf("%d", it.Line), string(it.Activity.Kind),
				formatValue(it.Activity.Magnitude), string(it.Activity.Unit), "", "", "", it.Error,
			}
			if it.Estimate != nil {
				row[4], row[5], row[6] = formatKg(it.Estimate.CO2Kg), it.Estimate.Confidence, it.Estimate.DataSource
				total += it.Estimate.CO2Kg
				ok++
			}
			v.rows = append(v.rows, row)
		}
		v.note = fmt.Sprintf("Total: %s kg CO2 across %d of %d activities", formatKg(total), ok, len(d))
		return v, true

	case *model.WeatherReport:
		v := view{
			header: []string{"FIELD", "VALUE"},
			rows: [][]string{
				{"Temperature", formatValue(d.TemperatureC) + " °C"},
				{"Conditions", d.Condition},
				{"Description", d.Description},
				{"Humidity", formatValue(d.HumidityPct) + " %"},
				{"Wind Speed", formatValue(d.WindSpeed) + " m/s"},
			},
		}
		for i, a := range d.Advisories {
			label := ""
			if i == 0 {
				label = "Advisories"
			}
			v.rows = append(v.rows, []string{label, a})
		}
		return v, true

	case *model.RouteComparison:
		v := view{
			header: []string{"", "MODE", "DISTANCE (KM)", "DURATION (MIN)", "CO2 (KG)"},
			right:  map[int]bool{2: true, 3: true, 4: true},
		}
		for _, l := range d.Legs {
			mark := ""
			if l.Mode == d.RecommendedMode {
				mark = "*"
			}
			v.rows = append(v.rows, []string{
				mark, string(l.Mode), formatValue(l.DistanceKm), formatValue(l.DurationMin), formatKg(l.CO2Kg),
			})
		}
		v.note = fmt.Sprintf("%s → %s: recommended %s, saves %s kg CO2",
			d.Origin, d.Destination, d.RecommendedMode, formatValue(d.SavingsCO2Kg))
		return v, true

	case *model.ProviderHealth:
		v := view{
			header: []string{"PROVIDER", "STATUS", "KIND", "LATENCY (MS)", "MESSAGE"},
			right:  map[int]bool{3: true},
		}
		for _, p := range d.Providers {
			v.rows = append(v.rows, []string{p.Name, p.Status, p.Kind, fmt.Sprintf("%d", p.LatencyMs), p.Message})
		}
		return v, true

	case []model.JournalEntry:
		v := view{
			header: []string{"ID", "CREATED", "KIND", "LABEL", "CO2 (KG)"},
			right:  map[int]bool{4: true},
		}
		for _, e := range d {
			v.rows = append(v.rows, []string{
				e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Kind, e.Label, formatKg(e.CO2Kg),
			})
		}
		return v, true

	case []model.DailySummary:
		v := view{
			header: []string{"DAY", "KIND", "ENTRIES", "TOTAL CO2 (KG)"},
			right:  map[int]bool{2: true, 3: true},
		}
		for _, s := range d {
			v.rows = append(v.rows, []string{s.Day, s.Kind, fmt.Sprintf("%d", s.Entries), formatKg(s.TotalCO2Kg)})
		}
		return v, true
	}
	return view{}, false
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one record per line for list payloads and the whole
// payload for single-object results.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch d := result.Data.(type) {
	case *model.RouteComparison:
		for _, l := range d.Legs {
			if err := enc.Encode(l); err != nil {
				return err
			}
		}
		return nil
	case *model.ProviderHealth:
		for _, p := range d.Providers {
			if err := enc.Encode(p); err != nil {
				return err
			}
		}
		return nil
	case []model.JournalEntry:
		for _, e := range d {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	case []model.CarbonBatchItem:
		for _, it := range d {
			if err := enc.Encode(it); err != nil {
				return err
			}
		}
		return nil
	case []model.DailySummary:
		for _, s := range d {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	v, ok := tabular(result)
	if !ok {
		// Fallback: JSON
		return renderJSON(w, result)
	}
	if len(v.rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return nil
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(v.header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	align := make([]int, len(v.header))
	for i := range align {
		align[i] = tablewriter.ALIGN_LEFT
		if v.right[i] {
			align[i] = tablewriter.ALIGN_RIGHT
		}
	}
	tw.SetColumnAlignment(align)
	tw.AppendBulk(v.rows)
	tw.Render()

	if v.note != "" {
		fmt.Fprintln(w, v.note)
	}
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	if v, ok := tabular(result); ok {
		header := make([]string, len(v.header))
		for i, h := range v.header {
			header[i] = csvName(h, i)
		}
		_ = cw.Write(header)
		for _, r := range v.rows {
			_ = cw.Write(r)
		}
	} else {
		// Fallback: serialize as JSON on a single line
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

// csvName turns a display header such as "CO2 (KG)" into "co2_kg".
func csvName(h string, i int) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "" {
		if i == 0 {
			return "recommended"
		}
		return fmt.Sprintf("col%d", i)
	}
	r := strings.NewReplacer(" (", "_", ")", "", " ", "_")
	return r.Replace(h)
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	v, ok := tabular(result)
	if !ok {
		return renderJSON(w, result)
	}
	sep := make([]string, len(v.header))
	for i := range sep {
		sep[i] = "---"
		if v.right[i] {
			sep[i] = "---:"
		}
	}
	fmt.Fprintf(w, "| %s |\n|%s|\n", strings.Join(v.header, " | "), strings.Join(sep, "|"))
	for _, r := range v.rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = mdEscape(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	if v.note != "" {
		fmt.Fprintf(w, "\n%s\n", mdEscape(v.note))
	}
	return nil
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		fmt.Fprintf(w, "\n[%s • %d items • %dms]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatValue formats a number for display.
// Always shows at least one decimal place (e.g. 4.0, not 4).
// Trims unnecessary trailing zeros beyond the first (e.g. 3.400000 → 3.4).
func formatValue(v float64) string {
	s := strings.TrimRight(fmt.Sprintf("%.6f", v), "0")
	if strings.HasSuffix(s, ".") {
		s += "0" // "4." → "4.0"
	}
	return s
}

// formatKg formats a CO2 mass with three decimals.
func formatKg(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
