package openweather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/provider"
	"github.com/derickschaefer/ecowise/internal/provider/openweather"
)

const sampleBody = `{
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky"}],
  "main": {"temp": 28.4, "humidity": 41, "pressure": 1012},
  "wind": {"speed": 6.2, "deg": 240},
  "name": "Lisbon"
}`

func TestCurrent_Success(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		q := r.URL.Query()
		query = map[string]string{
			"lat": q.Get("lat"), "lon": q.Get("lon"),
			"appid": q.Get("appid"), "units": q.Get("units"),
		}
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := openweather.NewClient(openweather.Options{APIKey: "k123", BaseURL: srv.URL})
	got, err := c.Current(context.Background(), 38.72, -9.14).Get()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"lat": "38.72", "lon": "-9.14", "appid": "k123", "units": "metric"}, query)
	assert.Equal(t, model.WeatherReading{
		TemperatureC: 28.4,
		Condition:    "Clear",
		Description:  "clear sky",
		HumidityPct:  41,
		WindSpeed:    6.2,
	}, got)
}

func TestCurrent_StatusMessages(t *testing.T) {
	cases := []struct {
		status  int
		kind    provider.ErrorKind
		message string
	}{
		{http.StatusUnauthorized, provider.KindUnauthorized, "Invalid API key"},
		{http.StatusNotFound, provider.KindNotFound, "Location not found"},
		{http.StatusTooManyRequests, provider.KindRateLimited, provider.MsgRateLimited},
		{http.StatusBadGateway, provider.KindProviderError, "API request failed with status 502"},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := openweather.NewClient(openweather.Options{APIKey: "k", BaseURL: srv.URL})
			out := c.Current(context.Background(), 0, 0)
			require.False(t, out.OK())
			assert.Equal(t, tc.kind, out.Err().Kind)
			assert.Equal(t, tc.message, out.Err().Message)
			assert.Equal(t, tc.status, out.Err().Status)
		})
	}
}

func TestCurrent_MissingFields(t *testing.T) {
	bodies := map[string]string{
		"no main":    `{"weather": [{"main": "Rain", "description": "light rain"}], "wind": {"speed": 1}}`,
		"no weather": `{"main": {"temp": 10, "humidity": 80}, "weather": [], "wind": {"speed": 1}}`,
		"no wind":    `{"main": {"temp": 10, "humidity": 80}, "weather": [{"main": "Rain"}]}`,
		"temp text":  `{"main": {"temp": "warm", "humidity": 80}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()
			c := openweather.NewClient(openweather.Options{APIKey: "k", BaseURL: srv.URL})
			out := c.Current(context.Background(), 1, 2)
			require.False(t, out.OK())
			assert.Equal(t, provider.KindMalformedResponse, out.Err().Kind)
		})
	}
}

func TestCurrent_MissingKey(t *testing.T) {
	c := openweather.NewClient(openweather.Options{BaseURL: "http://127.0.0.1:1"})
	out := c.Current(context.Background(), 1, 2)
	require.False(t, out.OK())
	assert.Equal(t, provider.KindUnauthorized, out.Err().Kind)
	assert.Equal(t, openweather.Name, out.Err().Provider)
}
