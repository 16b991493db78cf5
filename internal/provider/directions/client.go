// Package directions implements the single-mode route client for the Google
// Directions API. Only the first route's first leg is used; its CO2 figure is
// derived locally from the distance and a per-mode emission factor.
package directions

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/provider"
	"github.com/derickschaefer/ecowise/internal/util"
)

const (
	Name           = "directions"
	DefaultBaseURL = "https://maps.googleapis.com/"
	directionsPath = "maps/api/directions/json"
	Timeout        = 15 * time.Second
)

// EmissionFactors is kg CO2 per km for each travel mode.
type EmissionFactors map[model.TravelMode]float64

// DefaultEmissionFactors holds the average-vehicle factors.
var DefaultEmissionFactors = EmissionFactors{
	model.ModeDriving:   0.171,
	model.ModeTransit:   0.089,
	model.ModeWalking:   0,
	model.ModeBicycling: 0,
}

// StatusMessages maps non-OK vendor statuses to caller-facing text.
var StatusMessages = map[string]string{
	"NOT_FOUND":              "One or more locations could not be found",
	"ZERO_RESULTS":           "No route could be found between the locations",
	"MAX_WAYPOINTS_EXCEEDED": "Too many waypoints provided",
	"INVALID_REQUEST":        "Invalid request parameters",
	"OVER_QUERY_LIMIT":       "API query limit exceeded",
	"REQUEST_DENIED":         "API request denied",
	"UNKNOWN_ERROR":          "Unknown error occurred",
}

// StatusMessage returns the caller-facing text for a vendor status.
func StatusMessage(status string) string {
	if m, ok := StatusMessages[status]; ok {
		return m
	}
	return "API error: " + status
}

// CO2For returns the rounded kg CO2 for travelling km by mode. Unknown modes
// count as zero-emission.
func (f *EmissionFactors) CO2For(mode model.TravelMode, km float64) float64 {
	return util.Round(km*(*f)[mode], 3)
}

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Rate       float64
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Factors overrides DefaultEmissionFactors.
	Factors *EmissionFactors
}

// Client is the Google Directions API client.
type Client struct {
	apiKey  string
	baseURL string
	factors *EmissionFactors
	caller  *provider.Caller
	logger  *slog.Logger
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
	factors := opts.Factors
	if factors == nil {
		factors = &DefaultEmissionFactors
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: base,
		factors: factors,
		logger:  logger,
		caller: provider.NewCaller(Name, provider.CallerOptions{
			Timeout:    Timeout,
			Rate:       opts.Rate,
			HTTPClient: opts.HTTPClient,
			Secret:     opts.APIKey,
			Logger:     logger,
		}),
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return Name }

type valueField struct {
	Value *float64 `json:"value"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance     *valueField `json:"distance"`
			Duration     *valueField `json:"duration"`
			StartAddress string      `json:"start_address"`
			EndAddress   string      `json:"end_address"`
		} `json:"legs"`
	} `json:"routes"`
}

// Plan requests a route from origin to destination by mode.
func (c *Client) Plan(ctx context.Context, origin, destination string, mode model.TravelMode) provider.Outcome[model.RouteLeg] {
	if !mode.Valid() {
		return provider.Failure[model.RouteLeg](c.caller.Fail(
			provider.InvalidArgument("invalid mode %q: must be one of driving, transit, walking, bicycling", mode)))
	}
	if c.apiKey == "" {
		return provider.Failure[model.RouteLeg](
			c.caller.Fail(provider.Errorf(provider.KindUnauthorized, provider.MsgKeyMissing)))
	}

	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("mode", string(mode))
	params.Set("key", c.apiKey)

	var raw directionsResponse
	if perr := c.caller.Do(ctx, provider.Request{
		Method: http.MethodGet,
		URL:    c.baseURL + directionsPath + "?" + params.Encode(),
	}, &raw, nil); perr != nil {
		return provider.Failure[model.RouteLeg](perr)
	}

	if raw.Status == "" {
		return provider.Failure[model.RouteLeg](c.caller.Malformed("status"))
	}
	if raw.Status != "OK" {
		c.logger.Warn("directions returned non-OK status",
			"status", raw.Status, "mode", mode, "detail", raw.ErrorMessage)
		return provider.Failure[model.RouteLeg](
			c.caller.Fail(provider.Errorf(provider.KindProviderError, "%s", StatusMessage(raw.Status))))
	}
	if len(raw.Routes) == 0 || len(raw.Routes[0].Legs) == 0 {
		return provider.Failure[model.RouteLeg](c.caller.Malformed("routes[0].legs[0]"))
	}
	route := raw.Routes[0]
	leg := route.Legs[0]
	if leg.Distance == nil || leg.Distance.Value == nil {
		return provider.Failure[model.RouteLeg](c.caller.Malformed("distance.value"))
	}
	if leg.Duration == nil || leg.Duration.Value == nil {
		return provider.Failure[model.RouteLeg](c.caller.Malformed("duration.value"))
	}

	km := *leg.Distance.Value / 1000
	minutes := *leg.Duration.Value / 60
	out := model.RouteLeg{
		Mode:         mode,
		DistanceKm:   util.Round(km, 2),
		DurationMin:  util.Round(minutes, 1),
		CO2Kg:        c.factors.CO2For(mode, km),
		StartAddress: leg.StartAddress,
		EndAddress:   leg.EndAddress,
		Polyline:     route.OverviewPolyline.Points,
	}
	c.logger.Debug("route planned",
		"mode", mode, "distance_km", out.DistanceKm, "duration_min", out.DurationMin, "co2_kg", out.CO2Kg)
	return provider.Success(out)
}
