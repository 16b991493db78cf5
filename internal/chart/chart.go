// Package chart renders horizontal ASCII bar charts in the terminal.
//
// It is used by `route compare --chart` (CO2 per travel mode) and
// `journal summary --chart` (CO2 per day). Bars grow from a zero baseline, so
// a zero-emission mode shows an empty bar rather than a minimal one.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Bar is one labeled value.
type Bar struct {
	Label string
	Value float64
	// Marked bars get a "◀" suffix (the recommended mode, for example).
	Marked bool
}

// Options controls bar chart rendering.
type Options struct {
	// Width is the total character width available for the chart.
	// If 0, auto-detects from $COLUMNS, falls back to 80.
	Width int
	// Unit is appended to the title, e.g. "kg CO2".
	Unit string
}

// Render draws one row per bar under title.
//
// Output example:
//
//	London → Oxford  (kg CO2)
//	driving    15.29  ████████████████████████
//	transit     8.31  █████████████
//	walking      0.0                             ◀
func Render(w io.Writer, title string, bars []Bar, opts Options) error {
	if len(bars) == 0 {
		return fmt.Errorf("chart: nothing to render")
	}
	for _, b := range bars {
		if math.IsNaN(b.Value) || b.Value < 0 {
			return fmt.Errorf("chart: bar %q has invalid value %v", b.Label, b.Value)
		}
	}

	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}

	labelWidth, valWidth := 0, 0
	maxVal := 0.0
	for _, b := range bars {
		if l := len([]rune(b.Label)); l > labelWidth {
			labelWidth = l
		}
		if l := len(formatFloat(b.Value)); l > valWidth {
			valWidth = l
		}
		maxVal = math.Max(maxVal, b.Value)
	}

	// label  value  bar ◀
	barAreaWidth := totalWidth - labelWidth - valWidth - 6
	if barAreaWidth < 4 {
		barAreaWidth = 4
	}

	if opts.Unit != "" {
		fmt.Fprintf(w, "%s  (%s)\n", title, opts.Unit)
	} else {
		fmt.Fprintln(w, title)
	}

	for _, b := range bars {
		barLen := 0
		if maxVal > 0 {
			barLen = int(math.Round(b.Value / maxVal * float64(barAreaWidth)))
		}
		// Non-zero values always get at least one block.
		if barLen == 0 && b.Value > 0 {
			barLen = 1
		}
		bar := strings.Repeat("█", barLen)
		if b.Marked {
			bar += strings.Repeat(" ", barAreaWidth-barLen) + " ◀"
		}
		line := fmt.Sprintf("%-*s  %*s  %s", labelWidth, b.Label, valWidth, formatFloat(b.Value), bar)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	return nil
}

// ─── Utilities ────────────────────────────────────────────────────────────────

// formatFloat formats a value label: no unnecessary trailing zeros,
// at least one decimal place, compact notation for large numbers.
func formatFloat(v float64) string {
	abs := math.Abs(v)
	var s string
	switch {
	case abs == 0:
		return "0.0"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "K"
	case abs >= 100:
		s = strconv.FormatFloat(v, 'f', 1, 64)
	case abs >= 1:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	default:
		s = strconv.FormatFloat(v, 'f', 3, 64)
	}
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// termWidth returns the terminal width from $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
