// Package service is the internal request surface consumed by the HTTP shell
// and the CLI. It validates raw inputs, calls the provider clients and the
// route comparator, and maps every failure to a framework-neutral Class.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/ecowise/internal/advisory"
	"github.com/derickschaefer/ecowise/internal/compare"
	"github.com/derickschaefer/ecowise/internal/model"
	"github.com/derickschaefer/ecowise/internal/provider"
)

// CarbonEstimator converts an activity into emitted CO2.
type CarbonEstimator interface {
	Name() string
	Estimate(ctx context.Context, a model.CarbonActivity) provider.Outcome[model.CarbonEstimate]
}

// WeatherReader reads current conditions at a coordinate.
type WeatherReader interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) provider.Outcome[model.WeatherReading]
}

// RoutePlanner plans a single-mode route.
type RoutePlanner interface {
	Name() string
	compare.Planner
}

// Service wires the three providers and the comparator together.
type Service struct {
	carbon     CarbonEstimator
	weather    WeatherReader
	routes     RoutePlanner
	comparator *compare.Comparator
	// concurrency bounds parallel provider calls for batch operations.
	concurrency int
	logger      *slog.Logger
}

// New creates a Service. concurrency bounds parallel planner calls per
// comparison (zero means one per mode).
func New(carbon CarbonEstimator, weather WeatherReader, routes RoutePlanner, concurrency int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		carbon:      carbon,
		weather:     weather,
		routes:      routes,
		comparator:  compare.New(routes, concurrency, logger),
		concurrency: concurrency,
		logger:      logger,
	}
}

// EstimateCarbon validates and estimates a single activity.
func (s *Service) EstimateCarbon(ctx context.Context, activityType string, value float64, unit string) (model.CarbonEstimate, error) {
	a := model.CarbonActivity{
		Kind:      model.ActivityKind(strings.TrimSpace(activityType)),
		Magnitude: value,
		Unit:      model.Unit(strings.TrimSpace(unit)),
	}
	est, err := s.carbon.Estimate(ctx, a).Get()
	if err != nil {
		s.logger.Info("carbon estimate failed", "activity_type", a.Kind, "error", err)
		return model.CarbonEstimate{}, err
	}
	s.logger.Info("carbon estimated", "activity_type", a.Kind, "value", value, "unit", a.Unit, "co2_kg", est.CO2Kg)
	return est, nil
}

// EstimateBatch estimates every activity with at most concurrency calls in
// flight. Items keep input order; a failed item carries its message and does
// not stop the others. Lines are numbered from 1 unless lines supplies them.
func (s *Service) EstimateBatch(ctx context.Context, activities []model.CarbonActivity, lines []int) []model.CarbonBatchItem {
	items := make([]model.CarbonBatchItem, len(activities))
	g, gctx := errgroup.WithContext(ctx)
	limit := s.concurrency
	if limit <= 0 {
		limit = defaultBatchConcurrency
	}
	g.SetLimit(limit)
	for i, a := range activities {
		line := i + 1
		if i < len(lines) {
			line = lines[i]
		}
		g.Go(func() error {
			item := model.CarbonBatchItem{Line: line, Activity: a}
			est, err := s.carbon.Estimate(gctx, a).Get()
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Estimate = &est
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, it := range items {
		if it.Error != "" {
			failed++
		}
	}
	s.logger.Info("carbon batch estimated", "items", len(items), "failed", failed)
	return items
}

// Weather returns the current conditions at lat, lon plus advisories.
func (s *Service) Weather(ctx context.Context, lat, lon float64) (model.WeatherReport, error) {
	reading, err := s.weather.Current(ctx, lat, lon).Get()
	if err != nil {
		s.logger.Info("weather lookup failed", "lat", lat, "lon", lon, "error", err)
		return model.WeatherReport{}, err
	}
	return model.WeatherReport{
		WeatherReading: reading,
		Advisories:     advisory.Generate(reading),
	}, nil
}

// CompareRoutes compares travel modes between origin and destination. An
// empty modes list compares every supported mode.
func (s *Service) CompareRoutes(ctx context.Context, origin, destination string, modes []string) (model.RouteComparison, error) {
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return model.RouteComparison{}, provider.InvalidArgument("origin and destination are required")
	}
	travel := make([]model.TravelMode, 0, len(modes))
	for _, m := range modes {
		travel = append(travel, model.TravelMode(strings.ToLower(strings.TrimSpace(m))))
	}
	if len(travel) == 0 {
		travel = append(travel, model.TravelModes...)
	}

	cmp, err := s.comparator.Compare(ctx, origin, destination, travel).Get()
	if err != nil {
		s.logger.Info("route comparison failed", "origin", origin, "destination", destination, "error", err)
		return model.RouteComparison{}, err
	}
	s.logger.Info("routes compared",
		"origin", origin, "destination", destination,
		"legs", len(cmp.Legs), "recommended", cmp.RecommendedMode, "savings_co2_kg", cmp.SavingsCO2Kg)
	return cmp, nil
}

const defaultBatchConcurrency = 4

// Probe inputs are small, fixed, and valid for every provider.
var (
	probeActivity = model.CarbonActivity{Kind: model.ActivityCarTransport, Magnitude: 1, Unit: model.UnitKm}
	probeLat      = 51.5074
	probeLon      = -0.1278
	probeOrigin   = "London, UK"
	probeDest     = "Oxford, UK"
)

// ProbeProviders calls each provider once, concurrently, and reports which
// answered. It never fails; per-provider failures are in the result.
func (s *Service) ProbeProviders(ctx context.Context) model.ProviderHealth {
	checks := []struct {
		name string
		call func(context.Context) *provider.Error
	}{
		{s.carbon.Name(), func(ctx context.Context) *provider.Error { return s.carbon.Estimate(ctx, probeActivity).Err() }},
		{s.weather.Name(), func(ctx context.Context) *provider.Error { return s.weather.Current(ctx, probeLat, probeLon).Err() }},
		{s.routes.Name(), func(ctx context.Context) *provider.Error {
			return s.routes.Plan(ctx, probeOrigin, probeDest, model.ModeDriving).Err()
		}},
	}

	statuses := make([]model.ProviderStatus, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			start := time.Now()
			perr := c.call(gctx)
			st := model.ProviderStatus{Name: c.name, Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
			if perr != nil {
				st.Status = "fail"
				st.Kind = perr.Kind.String()
				st.Message = perr.Message
			}
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()

	h := model.ProviderHealth{Providers: statuses, CheckedAt: time.Now().UTC()}
	s.logger.Info("providers probed", "healthy", h.Healthy())
	return h
}

// ─── Failure Classes ──────────────────────────────────────────────────────────

// Class is the framework-neutral failure class of an error.
type Class int

const (
	ClassNone      Class = iota // not a failure
	ClassClient                 // the request itself was invalid
	ClassServer                 // a provider or transport failed
	ClassThrottled              // the caller exceeded the inbound rate limit
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassClient:
		return "client"
	case ClassServer:
		return "server"
	case ClassThrottled:
		return "throttled"
	}
	return "unknown"
}

// ErrThrottled is reported when the inbound limiter rejects a caller. It is
// distinct from a vendor's rate limit, which shares its kind but not its
// class.
var ErrThrottled = provider.Errorf(provider.KindRateLimited, "Rate limit exceeded. Please try again later.")

// ClassOf maps err to its failure class. Vendor-side rate limiting is a
// server failure: the caller did nothing wrong.
func ClassOf(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrThrottled) {
		return ClassThrottled
	}
	var perr *provider.Error
	if errors.As(err, &perr) && perr.Kind == provider.KindInvalidArgument {
		return ClassClient
	}
	return ClassServer
}
