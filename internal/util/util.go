// Package util provides shared utilities: fixed-precision rounding, date
// parsing, secret redaction, and value formatting.
package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Rounding ─────────────────────────────────────────────────────────────────

// Round rounds v to the given number of decimal places, half away from zero.
// The rounding is done on the shortest decimal representation of v, so
// Round(2.675, 2) is 2.68 rather than the binary-float artefact 2.67.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// ─── Date Parsing ─────────────────────────────────────────────────────────────

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a time.Time (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a time.Time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ─── Secrets ──────────────────────────────────────────────────────────────────

// Redact returns s with most characters replaced by asterisks.
// Safe for logging and display.
func Redact(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

// RedactIn replaces every occurrence of secret inside s with "REDACTED".
// An empty secret leaves s untouched.
func RedactIn(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "REDACTED")
}

// ─── Value Formatting ─────────────────────────────────────────────────────────

// FormatValue formats a float64 for display using the fewest digits needed.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
