package advisory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/ecowise/internal/advisory"
	"github.com/derickschaefer/ecowise/internal/model"
)

func TestGenerate_HotAndClear(t *testing.T) {
	got := advisory.Generate(model.WeatherReading{TemperatureC: 30, Condition: "Clear"})
	require.GreaterOrEqual(t, len(got), 6)
	assert.Contains(t, got[0], "fans", "temperature advice comes first")
	assert.Contains(t, got[3], "sunlight")
}

func TestGenerate_TemperatureBands(t *testing.T) {
	cases := []struct {
		temp float64
		n    int
	}{
		{25.01, 3},
		{25, 2},
		{10, 2},
		{9.99, 3},
		{-5, 3},
	}
	for _, tc := range cases {
		got := advisory.Generate(model.WeatherReading{TemperatureC: tc.temp, Condition: "Mist"})
		assert.Len(t, got, tc.n, "temp %v", tc.temp)
	}
}

func TestGenerate_ConditionBucketsStack(t *testing.T) {
	got := advisory.Generate(model.WeatherReading{
		TemperatureC: 18,
		Condition:    "Rain",
		Description:  "light rain, sun breaking through clouds",
	})
	// mild(2) + sunny(3) + rainy(2) + cloudy(1)
	assert.Len(t, got, 8)
}

func TestGenerate_CaseInsensitiveDescriptionMatch(t *testing.T) {
	a := advisory.Generate(model.WeatherReading{TemperatureC: 15, Condition: "Clouds", Description: "OVERCAST CLOUDS"})
	b := advisory.Generate(model.WeatherReading{TemperatureC: 15, Condition: "Atmosphere", Description: "broken Clouds"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 3)
}

func TestGenerate_Wind(t *testing.T) {
	calm := advisory.Generate(model.WeatherReading{TemperatureC: 15, WindSpeed: 5})
	breezy := advisory.Generate(model.WeatherReading{TemperatureC: 15, WindSpeed: 5.1})
	require.Len(t, breezy, len(calm)+1)
	assert.Contains(t, breezy[len(breezy)-1], "laundry", "wind advice comes last")
}

func TestGenerate_Deterministic(t *testing.T) {
	r := model.WeatherReading{TemperatureC: 4, Condition: "Rain", Description: "moderate rain", WindSpeed: 9}
	assert.Equal(t, advisory.Generate(r), advisory.Generate(r))
}
