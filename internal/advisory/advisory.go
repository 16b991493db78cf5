// Package advisory turns a weather reading into energy-saving suggestions.
//
// Rules are applied in a fixed order (temperature, then condition, then
// wind) and each may add several lines, so the same reading always yields
// the same list.
package advisory

import (
	"strings"

	"github.com/derickschaefer/ecowise/internal/model"
)

const (
	hotAboveC  = 25.0
	coldBelowC = 10.0
	windyAbove = 5.0
)

var (
	hot = []string{
		"Use fans instead of air conditioning where possible",
		"Set your thermostat to 24°C or higher when cooling",
		"Close blinds during the hottest hours to keep heat out",
	}
	cold = []string{
		"Lower your thermostat by 1°C to cut heating energy",
		"Seal drafts around doors and windows",
		"Wear warm layers indoors before turning up the heat",
	}
	mild = []string{
		"Open windows for natural ventilation instead of running the AC",
		"Switch off heating and cooling while the weather is mild",
	}
	sunny = []string{
		"Run appliances during peak sunlight if you have solar panels",
		"Use natural daylight instead of electric lighting",
		"Walk or cycle for short trips in the clear weather",
	}
	rainy = []string{
		"Collect rainwater for watering plants",
		"Combine errands into one trip or take public transit",
	}
	cloudy = []string{
		"Work near windows to make the most of diffuse daylight",
	}
	windy = []string{
		"Dry laundry outside instead of using the dryer",
	}
)

// Generate returns the advisories for r, temperature rules first.
func Generate(r model.WeatherReading) []string {
	var out []string

	switch {
	case r.TemperatureC > hotAboveC:
		out = append(out, hot...)
	case r.TemperatureC < coldBelowC:
		out = append(out, cold...)
	default:
		out = append(out, mild...)
	}

	sky := strings.ToLower(r.Condition + " " + r.Description)
	if strings.Contains(sky, "clear") || strings.Contains(sky, "sun") {
		out = append(out, sunny...)
	}
	if strings.Contains(sky, "rain") {
		out = append(out, rainy...)
	}
	if strings.Contains(sky, "cloud") {
		out = append(out, cloudy...)
	}

	if r.WindSpeed > windyAbove {
		out = append(out, windy...)
	}
	return out
}
