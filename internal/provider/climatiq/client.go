// Package climatiq implements the carbon-estimate client for the Climatiq
// API. Activities are validated locally, mapped to an emission-factor
// identifier through a static table, and posted to /data/v1/estimate.
package climatiq

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/provider"
)

const (
	// Name identifies this provider in errors, logs and health reports.
	Name = "climatiq"

	DefaultBaseURL = "https://api.climatiq.io/"
	estimatePath   = "data/v1/estimate"

	// Timeout is the fixed per-call bound.
	Timeout = 10 * time.Second

	// defaultSource is reported when the response omits emission_factor.source.
	defaultSource = "Climatiq"
	// defaultConfidence is reported when co2e_calculation_origin is absent.
	defaultConfidence = "unknown"
)

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Rate       float64
	HTTPClient *http.Client
	Logger     *slog.Logger
	// Factors overrides DefaultFactors.
	Factors *FactorTable
}

// Client is the Climatiq API client.
type Client struct {
	apiKey  string
	baseURL string
	factors *FactorTable
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
	factors := opts.Factors
	if factors == nil {
		factors = &DefaultFactors
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: base,
		factors: factors,
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

// ─── Wire Types ───────────────────────────────────────────────────────────────

type estimateRequest struct {
	EmissionFactor Factor             `json:"emission_factor"`
	Parameters     map[string]float64 `json:"parameters"`
}

type factorEcho struct {
	Source string `json:"source"`
}

type estimateResponse struct {
	CO2e                  *float64    `json:"co2e"`
	CO2eCalculationOrigin string      `json:"co2e_calculation_origin"`
	EmissionFactor        *factorEcho `json:"emission_factor"`
}

// ─── Estimate ─────────────────────────────────────────────────────────────────

// Validate checks a on its own, before any network call.
func Validate(a model.CarbonActivity) *provider.Error {
	want, ok := a.Kind.ExpectedUnit()
	if !ok {
		return provider.InvalidArgument("invalid activity_type %q: must be one of %s", a.Kind, kindList())
	}
	if _, known := parameterSlot[a.Unit]; !known {
		return provider.InvalidArgument("invalid unit %q: must be one of km, kg, kWh", a.Unit)
	}
	if a.Unit != want {
		return provider.InvalidArgument("unit %q does not match activity %q (expected %s)", a.Unit, a.Kind, want)
	}
	if !(a.Magnitude > 0) {
		return provider.InvalidArgument("value must be greater than zero, got %g", a.Magnitude)
	}
	return nil
}

// BuildRequest returns the JSON body for a. It assumes a is valid.
func (c *Client) BuildRequest(a model.CarbonActivity) ([]byte, error) {
	body := estimateRequest{
		EmissionFactor: c.factors.Lookup(a.Kind),
		Parameters:     map[string]float64{parameterSlot[a.Unit]: a.Magnitude},
	}
	return json.Marshal(body)
}

// Estimate converts a into emitted CO2 through the Climatiq API.
func (c *Client) Estimate(ctx context.Context, a model.CarbonActivity) provider.Outcome[model.CarbonEstimate] {
	if err := Validate(a); err != nil {
		return provider.Failure[model.CarbonEstimate](c.caller.Fail(err))
	}
	if c.apiKey == "" {
		return provider.Failure[model.CarbonEstimate](
			c.caller.Fail(provider.Errorf(provider.KindUnauthorized, provider.MsgKeyMissing)))
	}
	if _, ok := c.factors.entries[a.Kind]; !ok {
		return provider.Failure[model.CarbonEstimate](
			c.caller.Fail(provider.InvalidArgument("no emission factor configured for %q", a.Kind)))
	}

	payload, err := c.BuildRequest(a)
	if err != nil {
		return provider.Failure[model.CarbonEstimate](
			c.caller.Fail(provider.Errorf(provider.KindUnknown, "encoding request: %v", err)))
	}

	var raw estimateResponse
	perr := c.caller.Do(ctx, provider.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + estimatePath,
		Header: http.Header{
			"Authorization": {"Bearer " + c.apiKey},
			"Content-Type":  {"application/json"},
		},
		Body: payload,
	}, &raw, nil)
	if perr != nil {
		return provider.Failure[model.CarbonEstimate](perr)
	}
	return normalize(c.caller, raw)
}

func normalize(caller *provider.Caller, raw estimateResponse) provider.Outcome[model.CarbonEstimate] {
	if raw.CO2e == nil || *raw.CO2e < 0 {
		return provider.Failure[model.CarbonEstimate](caller.Malformed("co2e"))
	}
	est := model.CarbonEstimate{
		CO2Kg:      *raw.CO2e,
		Confidence: raw.CO2eCalculationOrigin,
		DataSource: defaultSource,
	}
	if est.Confidence == "" {
		est.Confidence = defaultConfidence
	}
	if raw.EmissionFactor != nil && raw.EmissionFactor.Source != "" {
		est.DataSource = raw.EmissionFactor.Source
	}
	return provider.Success(est)
}

func kindList() string {
	names := make([]string, len(model.ActivityKinds))
	for i, k := range model.ActivityKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
