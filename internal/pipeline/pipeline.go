// Package pipeline reads carbon activities streamed as JSONL, the format
// `ecowise carbon batch` accepts on stdin or from a file.
//
// One object per line:
//
//	{"activity_type":"transport_car","value":12,"unit":"km"}
//
// Blank lines and lines starting with "//" or "#" are skipped.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/derickschaefer/ecowise/internal/model"
)

// MaxLineBytes bounds a single JSONL record.
const MaxLineBytes = 64 * 1024

// Record is one parsed activity and the 1-based input line it came from.
type Record struct {
	Line     int
	Activity model.CarbonActivity
}

// ReadActivities reads JSONL activity records from r. Syntax errors and
// missing fields fail the whole read with the offending line number;
// semantic checks (known kind, matching unit) are left to the estimator.
func ReadActivities(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineBytes)

	type row struct {
		ActivityType *string  `json:"activity_type"`
		Value        *float64 `json:"value"`
		Unit         *string  `json:"unit"`
	}

	var out []Record
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		var rec row
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}
		switch {
		case rec.ActivityType == nil:
			return nil, fmt.Errorf("line %d: missing activity_type", lineNum)
		case rec.Value == nil:
			return nil, fmt.Errorf("line %d: missing value", lineNum)
		case rec.Unit == nil:
			return nil, fmt.Errorf("line %d: missing unit", lineNum)
		}
		out = append(out, Record{
			Line: lineNum,
			Activity: model.CarbonActivity{
				Kind:      model.ActivityKind(strings.TrimSpace(*rec.ActivityType)),
				Magnitude: *rec.Value,
				Unit:      model.Unit(strings.TrimSpace(*rec.Unit)),
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no activities read from input (is stdin empty?)")
	}
	return out, nil
}

// Split separates records into the activities and their line numbers.
func Split(recs []Record) ([]model.CarbonActivity, []int) {
	acts := make([]model.CarbonActivity, len(recs))
	lines := make([]int, len(recs))
	for i, r := range recs {
		acts[i] = r.Activity
		lines[i] = r.Line
	}
	return acts, lines
}

// IsTTY reports whether f is an interactive terminal rather than a pipe or
// file.
func IsTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
