package chart_test

import (
	"math"
	"strings"
	"testing"

	"github.com/derickschaefer/ecowise/internal/chart"
)

func render(t *testing.T, bars []chart.Bar, width int) []string {
	t.Helper()
	var sb strings.Builder
	if err := chart.Render(&sb, "A → B", bars, chart.Options{Width: width, Unit: "kg CO2"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
}

func TestRenderTitleAndRows(t *testing.T) {
	lines := render(t, []chart.Bar{
		{Label: "driving", Value: 2.111},
		{Label: "walking", Value: 0, Marked: true},
	}, 60)

	if len(lines) != 3 {
		t.Fatalf("expected title + 2 rows, got %d: %q", len(lines), lines)
	}
	if lines[0] != "A → B  (kg CO2)" {
		t.Errorf("title: got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "driving") || !strings.Contains(lines[1], "2.11") {
		t.Errorf("driving row: %q", lines[1])
	}
	if strings.Contains(lines[2], "█") {
		t.Errorf("zero value should have an empty bar: %q", lines[2])
	}
	if !strings.HasSuffix(lines[2], "◀") {
		t.Errorf("marked row should end with marker: %q", lines[2])
	}
}

func TestRenderScalesToLargest(t *testing.T) {
	lines := render(t, []chart.Bar{
		{Label: "a", Value: 10},
		{Label: "b", Value: 5},
		{Label: "c", Value: 0.0001},
	}, 40)

	a := strings.Count(lines[1], "█")
	b := strings.Count(lines[2], "█")
	c := strings.Count(lines[3], "█")
	if a <= b {
		t.Errorf("largest value should have the longest bar: a=%d b=%d", a, b)
	}
	if b < a/2-1 || b > a/2+1 {
		t.Errorf("half value should have about half the bar: a=%d b=%d", a, b)
	}
	if c != 1 {
		t.Errorf("tiny non-zero value should get one block, got %d", c)
	}
	for _, l := range lines {
		if len([]rune(l)) > 40 {
			t.Errorf("line exceeds width: %q", l)
		}
	}
}

func TestRenderAllZero(t *testing.T) {
	lines := render(t, []chart.Bar{{Label: "walking"}, {Label: "bicycling"}}, 50)
	for _, l := range lines[1:] {
		if strings.Contains(l, "█") {
			t.Errorf("all-zero chart should draw no bars: %q", l)
		}
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	var sb strings.Builder
	if err := chart.Render(&sb, "x", nil, chart.Options{}); err == nil {
		t.Error("empty chart should error")
	}
	if err := chart.Render(&sb, "x", []chart.Bar{{Label: "n", Value: math.NaN()}}, chart.Options{}); err == nil {
		t.Error("NaN value should error")
	}
	if err := chart.Render(&sb, "x", []chart.Bar{{Label: "n", Value: -1}}, chart.Options{}); err == nil {
		t.Error("negative value should error")
	}
}

func TestRenderDefaultWidthFromColumns(t *testing.T) {
	t.Setenv("COLUMNS", "30")
	var sb strings.Builder
	if err := chart.Render(&sb, "t", []chart.Bar{{Label: "x", Value: 1}}, chart.Options{}); err != nil {
		t.Fatal(err)
	}
	for _, l := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		if len([]rune(l)) > 30 {
			t.Errorf("line exceeds $COLUMNS width: %q", l)
		}
	}
}
