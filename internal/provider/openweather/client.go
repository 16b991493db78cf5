// Package openweather implements the current-conditions client for the
// OpenWeatherMap API. Readings are always requested in metric units.
package openweather

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/provider"
)

const (
	Name           = "openweather"
	DefaultBaseURL = "https://api.openweathermap.org/"
	currentPath    = "data/2.5/weather"
	Timeout        = 10 * time.Second
)

// StatusMessages overrides the default wording for specific HTTP statuses.
var StatusMessages = map[int]string{
	http.StatusUnauthorized: provider.MsgUnauthorized,
	http.StatusNotFound:     "Location not found",
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Rate       float64
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the OpenWeatherMap API client.
type Client struct {
	apiKey  string
	baseURL string
	caller  *provider.Caller
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: base,
		caller: provider.NewCaller(Name, provider.CallerOptions{
			Timeout:    Timeout,
			Rate:       opts.Rate,
			HTTPClient: opts.HTTPClient,
			Secret:     opts.APIKey,
			Logger:     opts.Logger,
		}),
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

type currentResponse struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches the current conditions at lat, lon. Coordinates are passed
// through without bounds checks.
func (c *Client) Current(ctx context.Context, lat, lon float64) provider.Outcome[model.WeatherReading] {
	if c.apiKey == "" {
		return provider.Failure[model.WeatherReading](
			c.caller.Fail(provider.Errorf(provider.KindUnauthorized, provider.MsgKeyMissing)))
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var raw currentResponse
	if perr := c.caller.Do(ctx, provider.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + currentPath + "?" + params.Encode(),
	}, &raw, StatusMessages); perr != nil {
		return provider.Failure[model.WeatherReading](perr)
	}

	switch {
	case raw.Main == nil || raw.Main.Temp == nil:
		return provider.Failure[model.WeatherReading](c.caller.Malformed("main.temp"))
	case raw.Main.Humidity == nil:
		return provider.Failure[model.WeatherReading](c.caller.Malformed("main.humidity"))
	case len(raw.Weather) == 0:
		return provider.Failure[model.WeatherReading](c.caller.Malformed("weather[0]"))
	case raw.Wind == nil || raw.Wind.Speed == nil:
		return provider.Failure[model.WeatherReading](c.caller.Malformed("wind.speed"))
	}

	return provider.Success(model.WeatherReading{
		TemperatureC: *raw.Main.Temp,
		Condition:    raw.Weather[0].Main,
		Description:  raw.Weather[0].Description,
		HumidityPct:  *raw.Main.Humidity,
		WindSpeed:    *raw.Wind.Speed,
	})
}
